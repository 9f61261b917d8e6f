package uploadthing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error types
var (
	// ErrMissingToken indicates no access token was configured
	ErrMissingToken = errors.New("uploadthing: UPLOADTHING_TOKEN is required")

	// ErrInvalidToken indicates the access token could not be decoded
	ErrInvalidToken = errors.New("uploadthing: invalid token")

	// ErrNoRegion indicates no region was configured and the token lists none
	ErrNoRegion = errors.New("uploadthing: no region available")

	// ErrInvalidACL indicates an ACL value other than public-read or private
	ErrInvalidACL = errors.New("uploadthing: ACL must be one of: 'public-read', 'private'")

	// ErrMissingIdentifier indicates an update carries neither a file key nor a custom id
	ErrMissingIdentifier = errors.New("uploadthing: each update must contain either 'fileKey' or 'customId'")

	// ErrInvalidKeyType indicates a key type other than file_key or custom_id
	ErrInvalidKeyType = errors.New("uploadthing: key type must be 'file_key' or 'custom_id'")

	// ErrNoFiles indicates an upload call without files
	ErrNoFiles = errors.New("uploadthing: no files to upload")

	// ErrInvalidResponse indicates a reply that does not match the expected shape
	ErrInvalidResponse = errors.New("uploadthing: invalid response")
)

// APIError is a non-2xx reply from the REST API or the ingest endpoint
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("UploadThing API error: %d", e.StatusCode)
	if e.Message != "" {
		msg += " - " + e.Message
	}
	return msg
}

// newAPIError builds an APIError, lifting the "error" field out of a JSON body when there is one
func newAPIError(endpoint string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Endpoint: endpoint}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Error
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 256 {
		apiErr.Message = text
	}

	return apiErr
}

// IsRejected reports whether err is the service refusing the request (4xx),
// as opposed to a transport failure or a server-side fault
func IsRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError
}

// IsAPIError reports whether err carries an APIError
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// UploadError wraps a failed upload of one file
type UploadError struct {
	FileName string
	FileKey  string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %s (key %s) failed: %v", e.FileName, e.FileKey, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
