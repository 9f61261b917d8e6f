package uploadthing

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeToken(t *testing.T) {
	encode := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name    string
		input   string
		want    *Token
		wantErr error
	}{
		{
			name:  "camel case",
			input: encode(`{"apiKey":"test-key","appId":"test-app","regions":["sea2"]}`),
			want:  &Token{APIKey: "test-key", AppID: "test-app", Regions: []string{"sea2"}},
		},
		{
			name:  "snake case",
			input: encode(`{"api_key":"k","app_id":"a","regions":["fra1","sea2"]}`),
			want:  &Token{APIKey: "k", AppID: "a", Regions: []string{"fra1", "sea2"}},
		},
		{
			name:  "unpadded",
			input: base64.RawStdEncoding.EncodeToString([]byte(`{"apiKey":"k","appId":"a"}`)),
			want:  &Token{APIKey: "k", AppID: "a"},
		},
		{
			name:  "surrounding whitespace",
			input: "  " + encode(`{"apiKey":"k","appId":"a"}`) + "\n",
			want:  &Token{APIKey: "k", AppID: "a"},
		},
		{name: "empty", input: "", wantErr: ErrMissingToken},
		{name: "not base64", input: "!!!", wantErr: ErrInvalidToken},
		{name: "not json", input: encode("hello"), wantErr: ErrInvalidToken},
		{name: "not an object", input: encode(`["k","a"]`), wantErr: ErrInvalidToken},
		{name: "missing api key", input: encode(`{"appId":"a"}`), wantErr: ErrInvalidToken},
		{name: "missing app id", input: encode(`{"apiKey":"k"}`), wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeToken(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToken_EncodeRoundTrip(t *testing.T) {
	token := Token{APIKey: "sk_live_x", AppID: "lhdsot44oz", Regions: []string{"sea2"}}

	got, err := DecodeToken(token.Encode())
	require.NoError(t, err)
	assert.Equal(t, token, *got)
}
