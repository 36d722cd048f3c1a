package scenario

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
)

// Hash computes "sha256:" + 64 lowercase hex chars over the canonical-JSON
// encoding of s: sorted keys at every level, no insignificant whitespace
// (§4.2, §6.2). Hash round-trips through encoding/json (which already sorts
// map keys) and canonicalMarshal then re-marshals any nested maps recursively
// so key order is stable regardless of how the Scenario was constructed.
func Hash(s *Scenario) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("scenario: marshal for hashing: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("scenario: unmarshal for canonicalization: %w", err)
	}
	canonical, err := canonicalMarshal(generic)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("sha256:%x", sum), nil
}

// canonicalMarshal produces deterministic JSON bytes: object keys sorted,
// no extraneous whitespace. encoding/json already sorts map[string]any keys
// on marshal, but we walk explicitly so the guarantee doesn't depend on
// that being stable across stdlib versions.
func canonicalMarshal(v any) ([]byte, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			vb, err := canonicalMarshal(t[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
		buf = append(buf, '}')
		return buf, nil
	case []any:
		buf := []byte{'['}
		for i, e := range t {
			if i > 0 {
				buf = append(buf, ',')
			}
			eb, err := canonicalMarshal(e)
			if err != nil {
				return nil, err
			}
			buf = append(buf, eb...)
		}
		buf = append(buf, ']')
		return buf, nil
	default:
		return json.Marshal(t)
	}
}
