package presigned

import "errors"

// Signing errors, returned before any URL is built
var (
	// ErrNoSecretKey is returned when signing or verifying without an API key
	ErrNoSecretKey = errors.New("presigned: no secret key configured")

	// ErrMissingRegion is returned when the region alias is empty
	ErrMissingRegion = errors.New("presigned: missing region")

	// ErrMissingFileKey is returned when the file key is empty
	ErrMissingFileKey = errors.New("presigned: missing file key")

	// ErrNegativeFileSize is returned when the file size is below zero
	ErrNegativeFileSize = errors.New("presigned: negative file size")
)

// Signature validation errors
var (
	// ErrMissingSignature is returned when the signature query parameter is missing
	ErrMissingSignature = errors.New("presigned: missing signature parameter")

	// ErrMissingExpiration is returned when the expires query parameter is missing
	ErrMissingExpiration = errors.New("presigned: missing expires parameter")

	// ErrInvalidExpiration is returned when the expires parameter cannot be parsed
	ErrInvalidExpiration = errors.New("presigned: invalid expires parameter")

	// ErrExpired is returned when the presigned URL has expired
	ErrExpired = errors.New("presigned: URL has expired")

	// ErrInvalidSignature is returned when the signature is invalid
	ErrInvalidSignature = errors.New("presigned: invalid signature")
)

// ErrBodyNotRewindable is returned when a retried upload cannot resend its body
var ErrBodyNotRewindable = errors.New("presigned: upload body cannot be rewound for retry")

// IsAuthError returns true if the error is a signature validation error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrMissingExpiration) ||
		errors.Is(err, ErrInvalidExpiration) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidSignature)
}
