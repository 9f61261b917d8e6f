package presigned

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// SignaturePrefix precedes the hex digest in the signature parameter
	SignaturePrefix = "hmac-sha256="

	signatureParam = "&signature="
)

// Content disposition directives accepted by the ingest service
const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// ACL directives accepted by the ingest service
const (
	ACLPublicRead = "public-read"
	ACLPrivate    = "private"
)

// Signer builds HMAC-signed ingest URLs
type Signer struct {
	expiration time.Duration
	now        func() time.Time
	ingestURL  string // e.g. "https://%s.ingest.uploadthing.com"
}

// UploadParams describes the single file a signed URL authorizes.
// Optional fields are left out of the URL when empty.
type UploadParams struct {
	Region   string
	FileKey  string
	APIKey   string
	AppID    string
	FileName string
	FileSize int64

	FileType           string
	CustomID           string
	ContentDisposition string
	ACL                string
}

// DefaultUploadParams returns params with the inline disposition and public-read ACL
func DefaultUploadParams() UploadParams {
	return UploadParams{
		ContentDisposition: DispositionInline,
		ACL:                ACLPublicRead,
	}
}

// New creates a new Signer with the given options
func New(opts ...Option) *Signer {
	s := &Signer{
		expiration: 1 * time.Hour,
		now:        time.Now,
		ingestURL:  DefaultIngestURL,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SignUploadURL generates a presigned ingest URL for one file.
//
// Example:
//
//	url, err := signer.SignUploadURL(presigned.UploadParams{
//	    Region: "sea2", FileKey: key, APIKey: apiKey, AppID: appID,
//	    FileName: "photo.jpg", FileSize: 1024,
//	})
//	// Returns: https://sea2.ingest.uploadthing.com/<key>?expires=...&x-ut-identifier=...&signature=hmac-sha256=...
func (s *Signer) SignUploadURL(p UploadParams) (string, error) {
	expiresAt := s.now().Add(s.expiration).UnixMilli()

	unsigned, err := s.UnsignedURL(p, expiresAt)
	if err != nil {
		return "", err
	}

	return unsigned + signatureParam + Sign(unsigned, p.APIKey), nil
}

// UnsignedURL builds the ingest URL for p with a fixed expiry, before the signature is appended.
// Parameter order is part of the wire contract.
func (s *Signer) UnsignedURL(p UploadParams, expiresAt int64) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}

	q := &query{}
	q.add("expires", strconv.FormatInt(expiresAt, 10))
	q.add("x-ut-identifier", p.AppID)
	q.add("x-ut-file-name", p.FileName)
	q.add("x-ut-file-size", strconv.FormatInt(p.FileSize, 10))
	q.addIfSet("x-ut-file-type", p.FileType)
	q.addIfSet("x-ut-custom-id", p.CustomID)
	q.addIfSet("x-ut-content-disposition", p.ContentDisposition)
	q.addIfSet("x-ut-acl", p.ACL)

	return fmt.Sprintf("%s/%s?%s", s.baseURL(p.Region), p.FileKey, q.encode()), nil
}

// Sign computes the signature parameter value for message
func Sign(message, apiKey string) string {
	h := hmac.New(sha256.New, []byte(apiKey))
	h.Write([]byte(message))
	return SignaturePrefix + hex.EncodeToString(h.Sum(nil))
}

// Verify checks the signature and expiry of a signed URL produced with apiKey
func (s *Signer) Verify(signedURL, apiKey string) error {
	if apiKey == "" {
		return ErrNoSecretKey
	}

	idx := strings.LastIndex(signedURL, signatureParam)
	if idx == -1 {
		return ErrMissingSignature
	}
	unsigned := signedURL[:idx]
	signature := signedURL[idx+len(signatureParam):]
	if signature == "" {
		return ErrMissingSignature
	}

	parsed, err := url.Parse(unsigned)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	expiresStr := parsed.Query().Get("expires")
	if expiresStr == "" {
		return ErrMissingExpiration
	}
	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpiration, err)
	}

	if s.now().UnixMilli() > expiresAt {
		return ErrExpired
	}

	// Compare signatures using constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(signature), []byte(Sign(unsigned, apiKey))) {
		return ErrInvalidSignature
	}

	return nil
}

// ValidateRequest verifies the URL an ingest request was sent to
func (s *Signer) ValidateRequest(r *http.Request, apiKey string) error {
	return s.Verify(RequestURL(r), apiKey)
}

// RequestURL rebuilds the absolute URL a request was made against, query untouched
func RequestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// Expiration returns the validity window of generated URLs
func (s *Signer) Expiration() time.Duration {
	return s.expiration
}

func (s *Signer) baseURL(region string) string {
	if strings.Contains(s.ingestURL, "%s") {
		return fmt.Sprintf(s.ingestURL, region)
	}
	return strings.TrimSuffix(s.ingestURL, "/")
}

func (p UploadParams) validate() error {
	switch {
	case p.Region == "":
		return ErrMissingRegion
	case p.FileKey == "":
		return ErrMissingFileKey
	case p.APIKey == "":
		return ErrNoSecretKey
	case p.FileSize < 0:
		return ErrNegativeFileSize
	}
	return nil
}

// query keeps insertion order, unlike url.Values which sorts on Encode
type query struct {
	keys   []string
	values []string
}

func (q *query) add(key, value string) {
	q.keys = append(q.keys, key)
	q.values = append(q.values, value)
}

func (q *query) addIfSet(key, value string) {
	if value != "" {
		q.add(key, value)
	}
}

func (q *query) encode() string {
	var b strings.Builder
	for i, k := range q.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(q.values[i]))
	}
	return b.String()
}
