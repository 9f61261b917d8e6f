package uploadthing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/huandu/xstrings"
)

// SnakeKeys recursively converts every object key in v from camelCase to snake_case.
// Slices are walked; other values are returned unchanged.
func SnakeKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[xstrings.ToSnakeCase(k)] = SnakeKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = SnakeKeys(item)
		}
		return out
	default:
		return v
	}
}

// decodeJSON decodes data into out after normalizing its keys to snake_case,
// so camelCase and snake_case replies both land in the same struct fields
func decodeJSON(data []byte, out any) error {
	raw, err := unmarshalRaw(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	normalized, err := json.Marshal(SnakeKeys(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if err := json.Unmarshal(normalized, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// unmarshalRaw decodes data generically, keeping numbers as json.Number so
// integers above 2^53 survive the round trip
func unmarshalRaw(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}
