package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	dirManifests = "manifests"
	dirIndex     = "index"
	dirRaw       = "raw"
	fileHead     = "HEAD"
)

// FSStore keeps manifests as JSON files under basePath:
//
//	manifests/<hash>.json   one file per manifest, never rewritten
//	index/<date>.json       hashes appended that UTC day, in order
//	raw/<hash>/<n>.json     raw provider pages
//	HEAD                    hash of the latest manifest
//
// Appends are serialized within the process only.
type FSStore struct {
	basePath string
	mu       sync.Mutex
}

var (
	_ Store       = (*FSStore)(nil)
	_ RawArchiver = (*FSStore)(nil)
)

// NewFSStore constructs an FS-backed manifest store rooted at basePath.
func NewFSStore(basePath string) *FSStore {
	return &FSStore{basePath: basePath}
}

// BasePath exposes the store root.
func (s *FSStore) BasePath() string {
	return s.basePath
}

func (s *FSStore) manifestPath(hash string) string {
	return filepath.Join(s.basePath, dirManifests, hash+".json")
}

func (s *FSStore) indexPath(date string) string {
	return filepath.Join(s.basePath, dirIndex, date+".json")
}

func (s *FSStore) Append(ctx context.Context, m Manifest) (Manifest, error) {
	if err := ctx.Err(); err != nil {
		return Manifest{}, err
	}
	if err := validHash(m.Hash); err != nil {
		return Manifest{}, err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.manifestPath(m.Hash)); err == nil {
		return Manifest{}, ErrDuplicate
	}
	head, err := s.head()
	if err != nil {
		return Manifest{}, err
	}
	sealed := Seal(m, head)

	// The manifest file is the commit point and is written last. Index
	// entries and HEAD left behind by a failed append point at a missing
	// file and are ignored.
	if err := s.appendIndex(sealed.Date(), sealed.Hash); err != nil {
		return Manifest{}, fmt.Errorf("update index: %w", err)
	}
	headPath := filepath.Join(s.basePath, fileHead)
	prevHead, _ := os.ReadFile(headPath)
	if err := writeFileAtomic(headPath, []byte(sealed.Hash)); err != nil {
		return Manifest{}, fmt.Errorf("update head: %w", err)
	}
	if err := writeJSONAtomic(s.manifestPath(sealed.Hash), sealed); err != nil {
		if prevHead != nil {
			_ = writeFileAtomic(headPath, prevHead)
		} else {
			_ = os.Remove(headPath)
		}
		return Manifest{}, fmt.Errorf("write manifest: %w", err)
	}
	return clone(sealed), nil
}

func (s *FSStore) Get(ctx context.Context, hash string) (Manifest, error) {
	if err := validHash(hash); err != nil {
		return Manifest{}, ErrNotFound
	}
	var m Manifest
	if err := decodeFile(s.manifestPath(hash), &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, ErrNotFound
		}
		return Manifest{}, err
	}
	return m, nil
}

func (s *FSStore) Has(ctx context.Context, hash string) (bool, error) {
	if validHash(hash) != nil {
		return false, nil
	}
	_, err := os.Stat(s.manifestPath(hash))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (s *FSStore) ListByUnit(ctx context.Context, unitID string) ([]Manifest, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Manifest, 0)
	for _, m := range all {
		if m.UnitID == unitID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *FSStore) ListByDate(ctx context.Context, date string) ([]Manifest, error) {
	hashes, err := s.readIndex(date)
	if err != nil {
		return nil, err
	}
	out := make([]Manifest, 0, len(hashes))
	for _, h := range hashes {
		m, err := s.Get(ctx, h)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", date, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *FSStore) Latest(ctx context.Context) (Manifest, error) {
	head, err := s.head()
	if err != nil {
		return Manifest{}, err
	}
	if head == nil {
		return Manifest{}, ErrNotFound
	}
	return *head, nil
}

func (s *FSStore) All(ctx context.Context) ([]Manifest, error) {
	dir := filepath.Join(s.basePath, dirManifests)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Manifest{}, nil
		}
		return nil, err
	}
	out := make([]Manifest, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		var m Manifest
		if err := decodeFile(filepath.Join(dir, e.Name()), &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Name(), err)
		}
		out = append(out, m)
	}
	sortBySeq(out)
	return out, nil
}

// ArchiveRaw stores each page as raw/<hash>/<n>.json. Existing pages are
// left untouched.
func (s *FSStore) ArchiveRaw(ctx context.Context, hash string, pages [][]byte) error {
	if err := validHash(hash); err != nil {
		return err
	}
	dir := filepath.Join(s.basePath, dirRaw, hash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dir, fmt.Sprintf("%d.json", i))
		if existing, err := os.ReadFile(target); err == nil {
			if !bytes.Equal(existing, page) {
				return fmt.Errorf("raw page %s differs from archived copy", target)
			}
			continue
		}
		if err := writeFileAtomic(target, page); err != nil {
			return err
		}
	}
	return nil
}

// RawPages returns archived pages for hash in order.
func (s *FSStore) RawPages(hash string) ([][]byte, error) {
	if err := validHash(hash); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.basePath, dirRaw, hash)
	var pages [][]byte
	for i := 0; ; i++ {
		data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%d.json", i)))
		if errors.Is(err, os.ErrNotExist) {
			return pages, nil
		}
		if err != nil {
			return nil, err
		}
		pages = append(pages, data)
	}
}

// head returns the latest manifest. HEAD is a hint: when it is missing or
// names a manifest that was never written, the highest sequence on disk wins.
func (s *FSStore) head() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, fileHead))
	switch {
	case err == nil:
		var m Manifest
		err := decodeFile(s.manifestPath(strings.TrimSpace(string(data))), &m)
		if err == nil {
			return &m, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read head manifest: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}
	return s.scanHead()
}

func (s *FSStore) scanHead() (*Manifest, error) {
	all, err := s.All(context.Background())
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	last := all[len(all)-1]
	return &last, nil
}

func (s *FSStore) readIndex(date string) ([]string, error) {
	var hashes []string
	if err := decodeFile(s.indexPath(date), &hashes); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	return hashes, nil
}

func (s *FSStore) appendIndex(date, hash string) error {
	hashes, err := s.readIndex(date)
	if err != nil {
		return err
	}
	for _, h := range hashes {
		if h == hash {
			return nil
		}
	}
	return writeJSONAtomic(s.indexPath(date), append(hashes, hash))
}

// validHash keeps caller-supplied hashes from escaping the store root.
func validHash(hash string) error {
	if hash == "" || strings.ContainsAny(hash, `/\.`) {
		return fmt.Errorf("invalid manifest hash %q", hash)
	}
	return nil
}

func writeJSONAtomic(target string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(target, data)
}

func writeFileAtomic(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

func decodeFile(path string, payload any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(payload)
}
