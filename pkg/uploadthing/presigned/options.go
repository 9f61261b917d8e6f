package presigned

import "time"

// DefaultIngestURL is the regional ingest endpoint; %s is replaced with the region alias
const DefaultIngestURL = "https://%s.ingest.uploadthing.com"

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithExpiration sets how long signed URLs stay valid
// Default is 1 hour if not specified
func WithExpiration(duration time.Duration) Option {
	return func(s *Signer) {
		s.expiration = duration
	}
}

// WithClock replaces the wall clock used for the expires timestamp
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIngestURL overrides the ingest endpoint.
// A %s in the value is replaced with the region; without one the URL is used for every region.
// Examples: "https://%s.ingest.uploadthing.com", "http://127.0.0.1:8081"
func WithIngestURL(ingestURL string) Option {
	return func(s *Signer) {
		if ingestURL != "" {
			s.ingestURL = ingestURL
		}
	}
}
