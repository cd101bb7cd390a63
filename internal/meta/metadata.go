// Package meta holds the free-form string attributes attached to accounts and
// transactions, such as references from upstream systems.
package meta

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

// Metadata is a small string map with validation and stable JSON encoding.
type Metadata map[string]string

const (
	MaxPairs     = 20
	MaxKeyLen    = 64
	MaxValLen    = 256
	MaxTotalJSON = 4096
)

var (
	ErrTooManyPairs = errors.New("metadata has too many pairs")
	ErrKeyLength    = errors.New("metadata key empty or too long")
	ErrValueLength  = errors.New("metadata value too long")
	ErrTooLarge     = errors.New("metadata exceeds max json size")
)

func New(m map[string]string) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m Metadata) Clone() Metadata { return New(m) }

func (m Metadata) Get(k string) (string, bool) { v, ok := m[k]; return v, ok }

// Merge copies other into m in key order; an empty value deletes the key.
func (m Metadata) Merge(other Metadata) {
	for _, k := range other.Keys() {
		if other[k] == "" {
			delete(m, k)
			continue
		}
		m[k] = other[k]
	}
}

// Keys returns the keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m Metadata) Validate() error {
	if len(m) > MaxPairs {
		return ErrTooManyPairs
	}
	for k, v := range m {
		if len(k) == 0 || len(k) > MaxKeyLen {
			return ErrKeyLength
		}
		if len(v) > MaxValLen {
			return ErrValueLength
		}
	}
	b, err := m.MarshalJSON()
	if err != nil {
		return err
	}
	if len(b) > MaxTotalJSON {
		return ErrTooLarge
	}
	return nil
}

// MarshalJSON returns a deterministic JSON object with keys sorted.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(m[k])
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = Metadata{}
		return nil
	}
	var tmp map[string]string
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*m = New(tmp)
	return nil
}
