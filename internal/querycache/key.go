// Package querycache deduplicates, caches, retries and invalidates reads
// against the REST API, and runs writes with cache invalidation.
package querycache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a logical query. Each segment is stored in canonical JSON
// form (object keys sorted), so two keys built from structurally equal values
// are equal regardless of how those values were constructed.
type Key struct {
	segments []string
}

// NewKey builds a key from its segments. A segment that cannot be encoded as
// JSON is a programming error and panics.
func NewKey(segments ...any) Key {
	k := Key{segments: make([]string, len(segments))}
	for i, seg := range segments {
		raw, err := json.Marshal(seg)
		if err != nil {
			panic(fmt.Sprintf("querycache: key segment %d (%T) is not JSON encodable: %v", i, seg, err))
		}
		canon, err := canonical(raw)
		if err != nil {
			panic(fmt.Sprintf("querycache: key segment %d: %v", i, err))
		}
		k.segments[i] = canon
	}
	return k
}

// ParseKey decodes a key from its String form
func ParseKey(s string) (Key, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raws); err != nil {
		return Key{}, fmt.Errorf("invalid cache key %q: %w", s, err)
	}

	k := Key{segments: make([]string, len(raws))}
	for i, raw := range raws {
		canon, err := canonical(raw)
		if err != nil {
			return Key{}, fmt.Errorf("invalid cache key %q: %w", s, err)
		}
		k.segments[i] = canon
	}
	return k, nil
}

// canonical re-encodes raw through a generic value so maps and structs with
// the same fields produce the same bytes
func canonical(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// String returns the key as a JSON array. It is also the cache slot id.
func (k Key) String() string {
	return "[" + strings.Join(k.segments, ",") + "]"
}

func (k Key) Len() int { return len(k.segments) }

func (k Key) IsZero() bool { return len(k.segments) == 0 }

// Equal reports whether k and other name the same cache slot
func (k Key) Equal(other Key) bool {
	if len(k.segments) != len(other.segments) {
		return false
	}
	for i := range k.segments {
		if k.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix matches the leading segments of k
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix.segments) > len(k.segments) {
		return false
	}
	for i := range prefix.segments {
		if k.segments[i] != prefix.segments[i] {
			return false
		}
	}
	return true
}

// Domain returns the first segment when it is a string, e.g. "courses"
func (k Key) Domain() string {
	if len(k.segments) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(k.segments[0]), &s); err != nil {
		return ""
	}
	return s
}

func (k Key) MarshalJSON() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalJSON(data []byte) error {
	parsed, err := ParseKey(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
