package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrSerialization is returned when a payload cannot be serialized.
	ErrSerialization = errors.New("payload serialization failed")
)

// Canonicalize serializes payload deterministically without reordering members.
//
// json.RawMessage and []byte inputs must hold a single valid UTF-8 JSON value; they are
// compacted in place so that member order and literal spelling survive. nil
// canonicalizes to "null". Anything else goes through encoding/json with HTML
// escaping disabled.
func Canonicalize(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case nil:
		return []byte("null"), nil
	case json.RawMessage:
		return compactRaw(v)
	case []byte:
		return compactRaw(v)
	default:
		return marshal(v)
	}
}

// IsEmpty reports whether a canonical payload carries no content.
func IsEmpty(canonical []byte) bool {
	switch string(canonical) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}

func compactRaw(raw []byte) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte{}, nil
	}
	// The envelope carries the payload as a JSON string, which cannot hold invalid UTF-8.
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrSerialization)
	}

	var out bytes.Buffer
	out.Grow(len(raw))
	if err := json.Compact(&out, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return out.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	// Encode terminates every value with a newline.
	return bytes.TrimSuffix(out.Bytes(), []byte{'\n'}), nil
}
