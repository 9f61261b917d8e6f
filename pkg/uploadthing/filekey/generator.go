// Package filekey derives UploadThing file keys.
//
// A file key is the sqids encoding of the application's hash, over an
// alphabet shuffled by the application id, followed by the URL-safe base64
// of a per-upload seed:
//
//	key, err := filekey.Generate("873d4ffc954a40d2b9ed98865ff87718", "my-app-id")
//
// The same (seed, appID) pair always yields the same key. Every application
// gets its own alphabet, so the prefix namespaces keys per application.
package filekey

import (
	"encoding/base64"
	"fmt"

	"github.com/sqids/sqids-go"
)

// DefaultAlphabet is the sqids default alphabet the per-app alphabet is shuffled from.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MinPrefixLength is the minimum length of the encoded application segment.
const MinPrefixLength = 12

// Generator defines the interface for file key generation strategies
type Generator interface {
	// GenerateKey creates a file key for the given seed and application id
	GenerateKey(seed, appID string) (string, error)
}

// DefaultGenerator produces keys the ingest service accepts
type DefaultGenerator struct{}

func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{}
}

func (g *DefaultGenerator) GenerateKey(seed, appID string) (string, error) {
	return Generate(seed, appID)
}

// GeneratorFunc allows users to provide their own key generation function
type GeneratorFunc func(seed, appID string) (string, error)

func (f GeneratorFunc) GenerateKey(seed, appID string) (string, error) {
	return f(seed, appID)
}

// DJB2 hashes s with the reversed, XOR-combining djb2 variant used for file keys.
// Bit 30 of the result is replaced by bit 31 before the value is read as a signed int32.
func DJB2(s string) int32 {
	runes := []rune(s)
	h := uint32(5381)
	for i := len(runes) - 1; i >= 0; i-- {
		h = (h * 33) ^ uint32(runes[i])
	}
	h = (h & 0xBFFFFFFF) | ((h >> 1) & 0x40000000)
	return int32(h)
}

// Shuffle permutes the characters of alphabet deterministically from seed.
//
// For every index i the character is swapped with ((n % (i+1)) + i) % len where
// n = DJB2(seed). Go's remainder truncates toward zero like fmod, and the inner
// sum is never negative, so the result matches the floating point reference.
func Shuffle(alphabet, seed string) string {
	chars := []rune(alphabet)
	n := int64(DJB2(seed))
	length := int64(len(chars))

	for i := int64(0); i < length; i++ {
		j := ((n % (i + 1)) + i) % length
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars)
}

// Alphabet returns the shuffled alphabet used for appID's key prefix.
func Alphabet(appID string) string {
	return Shuffle(DefaultAlphabet, appID)
}

// Generate builds the file key for seed and appID.
func Generate(seed, appID string) (string, error) {
	encoder, err := newEncoder(appID)
	if err != nil {
		return "", err
	}

	encodedAppID, err := encoder.Encode([]uint64{appHash(appID)})
	if err != nil {
		return "", fmt.Errorf("filekey: failed to encode app id: %w", err)
	}

	encodedSeed := base64.URLEncoding.EncodeToString([]byte(seed))
	return encodedAppID + encodedSeed, nil
}

// DecodeAppID reads the numeric application hash back out of a key prefix.
// It returns an error when the prefix does not decode to exactly one number.
func DecodeAppID(fileKey, appID string) (uint64, error) {
	if len(fileKey) < MinPrefixLength {
		return 0, fmt.Errorf("filekey: key %q shorter than prefix", fileKey)
	}

	encoder, err := newEncoder(appID)
	if err != nil {
		return 0, err
	}

	// |DJB2| < 2^31 always fits, so the prefix is exactly MinPrefixLength long
	prefix := fileKey[:MinPrefixLength]
	numbers := encoder.Decode(prefix)
	if len(numbers) != 1 {
		return 0, fmt.Errorf("filekey: prefix %q does not decode to a single value", prefix)
	}
	return numbers[0], nil
}

// BelongsTo reports whether fileKey was generated for appID.
func BelongsTo(fileKey, appID string) bool {
	n, err := DecodeAppID(fileKey, appID)
	return err == nil && n == appHash(appID)
}

func appHash(appID string) uint64 {
	h := int64(DJB2(appID))
	if h < 0 {
		h = -h
	}
	return uint64(h)
}

func newEncoder(appID string) (*sqids.Sqids, error) {
	encoder, err := sqids.New(sqids.Options{
		Alphabet:  Alphabet(appID),
		MinLength: MinPrefixLength,
		Blocklist: sqids.Blocklist(),
	})
	if err != nil {
		return nil, fmt.Errorf("filekey: failed to create encoder: %w", err)
	}
	return encoder, nil
}
