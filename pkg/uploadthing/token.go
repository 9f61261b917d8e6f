package uploadthing

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Token is the decoded UPLOADTHING_TOKEN
type Token struct {
	APIKey  string   `json:"api_key"`
	AppID   string   `json:"app_id"`
	Regions []string `json:"regions"`
}

// DecodeToken decodes a base64 JSON access token.
// Keys may be camelCase ("apiKey") or snake_case ("api_key").
func DecodeToken(encoded string) (*Token, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrMissingToken
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	raw, err := unmarshalRaw(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, ok := raw.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidToken)
	}

	normalized, err := json.Marshal(SnakeKeys(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var token Token
	if err := json.Unmarshal(normalized, &token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err := token.Validate(); err != nil {
		return nil, err
	}

	return &token, nil
}

// Encode renders the token in the form DecodeToken accepts
func (t Token) Encode() string {
	data, _ := json.Marshal(map[string]any{
		"apiKey":  t.APIKey,
		"appId":   t.AppID,
		"regions": t.Regions,
	})
	return base64.StdEncoding.EncodeToString(data)
}

// Validate checks the fields every request needs
func (t Token) Validate() error {
	if t.APIKey == "" {
		return fmt.Errorf("%w: missing apiKey", ErrInvalidToken)
	}
	if t.AppID == "" {
		return fmt.Errorf("%w: missing appId", ErrInvalidToken)
	}
	return nil
}
