package forensic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// canonicalJSON renders value as RFC 8785 JSON Canonicalization Scheme
// output: object keys sorted lexicographically, no insignificant
// whitespace, the same signing input both sides of a signature
// verification must independently reconstruct. No library in the
// retrieved corpus implements JCS; adapted near-verbatim from
// virtengine-virtengine's canonical_json.go, which solves the identical
// problem (deterministic signing input for an auth token).
func canonicalJSON(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonicalJSON(&buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonicalJSON(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodedKey, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(encodedKey)
			buf.WriteByte(':')
			if err := writeCanonicalJSON(buf, v[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case string:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	case json.RawMessage:
		buf.Write(v)
		return nil
	case float64, float32, int, int64, int32, uint64, uint32, uint:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case nil:
		buf.WriteString("null")
		return nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("canonicalize value: %w", err)
		}
		buf.Write(encoded)
		return nil
	}
}

// canonicalSigningInput converts record (a struct, via a JSON round-trip
// into map[string]any) into its canonical byte form, the input the
// signature is computed over.
func canonicalSigningInput(record any) ([]byte, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode record for canonicalization: %w", err)
	}
	return canonicalJSON(generic)
}
