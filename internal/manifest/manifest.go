// Package manifest records one immutable, hash-chained audit entry per
// ingested unit of work.
package manifest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"
)

// Counts summarizes a run.
type Counts struct {
	Fetched       int `json:"fetched"`
	Normalized    int `json:"normalized"`
	Accepted      int `json:"accepted"`
	Rejected      int `json:"rejected"`
	Warned        int `json:"warned"`
	PersistFailed int `json:"persist_failed"`
}

// Manifest is the audit record of one unit of work. Hash is the content hash
// of the unit id and raw pages; RecordHash seals the record itself and links
// it to the previous one.
type Manifest struct {
	Seq            int64     `json:"seq"`
	Hash           string    `json:"hash"`
	UnitID         string    `json:"unit_id"`
	UnitKind       string    `json:"unit_kind"`
	Provider       string    `json:"provider"`
	CreatedAt      time.Time `json:"created_at"`
	Counts         Counts    `json:"counts"`
	Errors         []string  `json:"errors,omitempty"`
	Warnings       []string  `json:"warnings,omitempty"`
	TransactionID  string    `json:"transaction_id,omitempty"`
	EntityIDs      []string  `json:"entity_ids,omitempty"`
	BatchRejected  bool      `json:"batch_rejected"`
	Partial        bool      `json:"partial"`
	PrevRecordHash string    `json:"prev_record_hash"`
	RecordHash     string    `json:"record_hash"`
}

// Date is the UTC creation day used by per-day listings.
func (m Manifest) Date() string {
	return m.CreatedAt.UTC().Format("2006-01-02")
}

// ComputeHash digests the unit id and pages with length prefixes so page
// boundaries are part of the content.
func ComputeHash(unitID string, pages [][]byte) string {
	h := sha256.New()
	writeFrame(h, []byte(unitID))
	for _, p := range pages {
		writeFrame(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeFrame(w io.Writer, b []byte) {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(b)))
	_, _ = w.Write(size[:])
	_, _ = w.Write(b)
}

// seal fixes the chain position of m and computes its record hash.
// CreatedAt is truncated to microseconds so the digest survives storage
// round-trips.
func seal(m Manifest, seq int64, prev string) Manifest {
	m.Seq = seq
	m.CreatedAt = m.CreatedAt.UTC().Truncate(time.Microsecond)
	m.PrevRecordHash = prev
	m.RecordHash = ""
	m.RecordHash = digest(m)
	return m
}

func digest(m Manifest) string {
	m.RecordHash = ""
	m.CreatedAt = m.CreatedAt.UTC()
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// next returns the sequence and previous record hash following head.
func next(head *Manifest) (int64, string) {
	if head == nil {
		return 1, ""
	}
	return head.Seq + 1, head.RecordHash
}

// Seal places m after head in the chain (head nil starts a new chain).
// Stores call it while holding whatever lock serializes their appends.
func Seal(m Manifest, head *Manifest) Manifest {
	seq, prev := next(head)
	return seal(clone(m), seq, prev)
}
