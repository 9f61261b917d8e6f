package filekey

import (
	"encoding/base64"
	"sort"
	"strings"
	"sync"
	"testing"
)

func TestDJB2(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int32
	}{
		{name: "empty string", input: "", expected: 5381},
		{name: "single char", input: "a", expected: 177604},
		{name: "short", input: "abc", expected: 193415941},
		{name: "app", input: "app", expected: 193425604},
		{name: "test app", input: "test-app", expected: 633278047},
		{name: "other app", input: "other-app", expected: 490607629},
		{name: "negative result", input: "lhdsot44oz", expected: -366666440},
		{name: "uppercase", input: "UPLOADTHING", expected: 353558618},
		{name: "latin-1 code point", input: "héllo", expected: 181375403},
		{name: "multibyte code points", input: "日本", expected: 6112844},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DJB2(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
			if again := DJB2(tt.input); again != result {
				t.Errorf("expected repeated hash %d, got %d", result, again)
			}
		})
	}
}

func TestDJB2TopBitsAgree(t *testing.T) {
	for _, s := range []string{"", "a", "app", "lhdsot44oz", "test-app", strings.Repeat("z", 100)} {
		h := uint32(DJB2(s))
		bit31 := h >> 31
		bit30 := (h >> 30) & 1
		if bit31 != bit30 {
			t.Errorf("%q: bit 31 (%d) and bit 30 (%d) differ", s, bit31, bit30)
		}
	}
}

func TestShuffle(t *testing.T) {
	tests := []struct {
		seed     string
		expected string
	}{
		{seed: "", expected: "acebfklP6dh3ysZuoRVpgrSCEY1GTOWKAQ80JB7L5Uj4qnmF9wMDXHzNItx2iv"},
		{seed: "app", expected: "6VUDiyh5pnMeuvskSwKxfPQBqEz0OoX8bTYZL3tRjIHmCcdFN9G7JrWAgla241"},
		{seed: "test-app", expected: "FhQg7ejlm5O0ykvEVnGwRMzu3YNxDKHa8dXboJciIf9rLWtpUZAPsSqT1624CB"},
		{seed: "lhdsot44oz", expected: "cbmOeLuKf9aiAv0ZjUCTWntF4xkPdyDHo6IRpsz7JBgrN8l5YEQMqVG32Sh1wX"},
	}

	for _, tt := range tests {
		t.Run("seed="+tt.seed, func(t *testing.T) {
			result := Shuffle(DefaultAlphabet, tt.seed)
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
			if Alphabet(tt.seed) != result {
				t.Errorf("expected Alphabet to match Shuffle of the default alphabet")
			}
		})
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	for _, seed := range []string{"", "x", "app", "lhdsot44oz", "日本"} {
		shuffled := Shuffle(DefaultAlphabet, seed)
		if sortString(shuffled) != sortString(DefaultAlphabet) {
			t.Errorf("seed %q: %s is not a permutation of the default alphabet", seed, shuffled)
		}
	}
}

func TestGenerate(t *testing.T) {
	seed := "abcd1234abcd1234abcd1234abcd1234"

	key, err := Generate(seed, "test-app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	encodedSeed := "YWJjZDEyMzRhYmNkMTIzNGFiY2QxMjM0YWJjZDEyMzQ="
	if !strings.HasSuffix(key, encodedSeed) {
		t.Errorf("expected key %s to end with %s", key, encodedSeed)
	}

	minLength := MinPrefixLength + base64.URLEncoding.EncodedLen(len(seed))
	if len(key) < minLength {
		t.Errorf("expected key length >= %d, got %d", minLength, len(key))
	}

	alphabet := Alphabet("test-app")
	for _, ch := range key[:MinPrefixLength] {
		if !strings.ContainsRune(alphabet, ch) {
			t.Errorf("prefix character %q not in app alphabet", ch)
		}
	}

	again, err := Generate(seed, "test-app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != key {
		t.Errorf("expected deterministic key %s, got %s", key, again)
	}
}

func TestGenerateVectors(t *testing.T) {
	tests := []struct {
		seed  string
		appID string
		want  string
	}{
		{"abcd1234abcd1234abcd1234abcd1234", "test-app", "2MMSPiDvPaWrYWJjZDEyMzRhYmNkMTIzNGFiY2QxMjM0YWJjZDEyMzQ="},
		{"abcd1234abcd1234abcd1234abcd1234", "app", "frEbQjJKhu6GYWJjZDEyMzRhYmNkMTIzNGFiY2QxMjM0YWJjZDEyMzQ="},
		// negative DJB2
		{"abcd1234abcd1234abcd1234abcd1234", "lhdsot44oz", "AlZ3KvVUSx6sYWJjZDEyMzRhYmNkMTIzNGFiY2QxMjM0YWJjZDEyMzQ="},
		{"0123456789abcdef0123456789abcdef", "lhdsot44oz", "AlZ3KvVUSx6sMDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="},
		{"abcd1234abcd1234abcd1234abcd1234", "", "JnYKeFp6E1KdYWJjZDEyMzRhYmNkMTIzNGFiY2QxMjM0YWJjZDEyMzQ="},
	}

	for _, tt := range tests {
		t.Run(tt.appID, func(t *testing.T) {
			key, err := Generate(tt.seed, tt.appID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key != tt.want {
				t.Errorf("Generate(%q, %q) = %s, want %s", tt.seed, tt.appID, key, tt.want)
			}
			if !BelongsTo(key, tt.appID) {
				t.Errorf("expected %s to belong to %q", key, tt.appID)
			}
		})
	}
}

func TestGenerateURLSafe(t *testing.T) {
	// bytes that map to '+' and '/' in standard base64
	key, err := Generate("\xff\xfe?>", "app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.ContainsAny(key, "+/") {
		t.Errorf("expected URL-safe key, got %s", key)
	}
	if !strings.HasSuffix(key, "__4_Pg==") {
		t.Errorf("expected padded URL-safe seed segment, got %s", key)
	}
}

func TestGeneratePrefixPerApp(t *testing.T) {
	seed := "0123456789abcdef0123456789abcdef"

	keyA, err := Generate(seed, "test-app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keyB, err := Generate(seed, "other-app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if keyA[:MinPrefixLength] == keyB[:MinPrefixLength] {
		t.Errorf("expected different prefixes, both were %s", keyA[:MinPrefixLength])
	}
	if keyA[MinPrefixLength:] != keyB[MinPrefixLength:] {
		t.Errorf("expected identical seed segments, got %s and %s", keyA[MinPrefixLength:], keyB[MinPrefixLength:])
	}
}

func TestGenerateSamePrefixPerApp(t *testing.T) {
	keyA, _ := Generate("0123456789abcdef0123456789abcdef", "app")
	keyB, _ := Generate("fedcba9876543210fedcba9876543210", "app")

	if keyA[:MinPrefixLength] != keyB[:MinPrefixLength] {
		t.Errorf("expected one prefix per app, got %s and %s", keyA[:MinPrefixLength], keyB[:MinPrefixLength])
	}
}

func TestDecodeAppID(t *testing.T) {
	tests := []struct {
		appID    string
		expected uint64
	}{
		{appID: "app", expected: 193425604},
		{appID: "test-app", expected: 633278047},
		{appID: "lhdsot44oz", expected: 366666440},
	}

	for _, tt := range tests {
		t.Run(tt.appID, func(t *testing.T) {
			key, err := Generate("873d4ffc954a40d2b9ed98865ff87718", tt.appID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			decoded, err := DecodeAppID(key, tt.appID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decoded != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, decoded)
			}
			if !BelongsTo(key, tt.appID) {
				t.Errorf("expected key %s to belong to %s", key, tt.appID)
			}
		})
	}
}

func TestDecodeAppIDShortKey(t *testing.T) {
	if _, err := DecodeAppID("short", "app"); err == nil {
		t.Error("expected error, got nil")
	}
	if BelongsTo("short", "app") {
		t.Error("expected short key not to belong to app")
	}
}

func TestBelongsToOtherApp(t *testing.T) {
	key, err := Generate("873d4ffc954a40d2b9ed98865ff87718", "test-app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if BelongsTo(key, "other-app") {
		t.Errorf("expected key %s not to belong to other-app", key)
	}
}

func TestGenerators(t *testing.T) {
	seed := "abcd1234abcd1234abcd1234abcd1234"
	expected, err := Generate(seed, "app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		gen  Generator
		want string
	}{
		{name: "default", gen: NewDefaultGenerator(), want: expected},
		{
			name: "func",
			gen: GeneratorFunc(func(seed, appID string) (string, error) {
				return appID + "-" + seed, nil
			}),
			want: "app-" + seed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.gen.GenerateKey(seed, "app")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.want {
				t.Errorf("expected %s, got %s", tt.want, result)
			}
		})
	}
}

func TestGenerateConcurrent(t *testing.T) {
	expected, err := Generate("abcd1234abcd1234abcd1234abcd1234", "app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := Generate("abcd1234abcd1234abcd1234abcd1234", "app")
			if err != nil || key != expected {
				errs <- key
			}
		}()
	}
	wg.Wait()
	close(errs)

	for key := range errs {
		t.Errorf("expected %s, got %s", expected, key)
	}
}

func sortString(s string) string {
	chars := strings.Split(s, "")
	sort.Strings(chars)
	return strings.Join(chars, "")
}
