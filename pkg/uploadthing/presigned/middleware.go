package presigned

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
)

type contextKey string

const (
	// FileKeyContextKey is the context key for storing the validated file key
	FileKeyContextKey contextKey = "presigned:file_key"
)

// ValidateMiddleware returns HTTP middleware that validates signed ingest URLs against apiKey.
// If validation fails, it returns an appropriate HTTP error response.
// If validation succeeds, it calls the next handler with the file key in the context.
//
// Example:
//
//	signer := presigned.New()
//	r.Put("/{fileKey}", presigned.ValidateMiddleware(signer, apiKey, ingestHandler).ServeHTTP)
func ValidateMiddleware(signer *Signer, apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := signer.ValidateRequest(r, apiKey); err != nil {
			handleValidationError(w, err)
			return
		}

		fileKey := path.Base(r.URL.Path)
		if fileKey == "/" || fileKey == "." {
			http.Error(w, "Missing file key", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), FileKeyContextKey, fileKey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FileKeyFromContext extracts the validated file key from the request context
// Returns empty string if not found
func FileKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(FileKeyContextKey).(string); ok {
		return key
	}
	return ""
}

// handleValidationError writes an appropriate HTTP error response based on the validation error
func handleValidationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingSignature):
		http.Error(w, "Missing signature parameter", http.StatusUnauthorized)
	case errors.Is(err, ErrMissingExpiration):
		http.Error(w, "Missing expires parameter", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidExpiration):
		http.Error(w, "Invalid expires parameter", http.StatusBadRequest)
	case errors.Is(err, ErrExpired):
		http.Error(w, "Presigned URL has expired", http.StatusForbidden)
	case errors.Is(err, ErrInvalidSignature):
		http.Error(w, "Invalid signature", http.StatusForbidden)
	default:
		slog.Error("presigned: validation error", "err", err)
		http.Error(w, "Authentication failed", http.StatusForbidden)
	}
}
