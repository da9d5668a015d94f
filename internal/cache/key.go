package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Key identifies one provider request. Parameter order never affects identity.
type Key struct {
	Provider string
	Endpoint string
	Params   map[string][]string
}

// Canonical renders provider|endpoint|k=v&k=v with names and values sorted.
func (k Key) Canonical() string {
	names := make([]string, 0, len(k.Params))
	for name := range k.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(k.Provider)
	b.WriteByte('|')
	b.WriteString(k.Endpoint)
	b.WriteByte('|')
	first := true
	for _, name := range names {
		values := append([]string(nil), k.Params[name]...)
		sort.Strings(values)
		for _, v := range values {
			if !first {
				b.WriteByte('&')
			}
			first = false
			b.WriteString(url.QueryEscape(name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// ID is the sha256 hex of the canonical form; stores index entries by it.
func (k Key) ID() string {
	sum := sha256.Sum256([]byte(k.Canonical()))
	return hex.EncodeToString(sum[:])
}
