package uploadthing

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/tendant/uploadthing-go/pkg/uploadthing/filekey"
	"github.com/tendant/uploadthing-go/pkg/uploadthing/presigned"
)

// Environment variable names read by WithEnv, before the prefix is applied
const (
	EnvToken     = "UPLOADTHING_TOKEN"
	EnvRegion    = "UPLOADTHING_REGION"
	EnvAPIURL    = "UPLOADTHING_API_URL"
	EnvIngestURL = "UPLOADTHING_INGEST_URL"
)

const (
	// DefaultAPIURL is the REST API base
	DefaultAPIURL = "https://api.uploadthing.com"

	// SDKVersion is sent as x-uploadthing-version
	SDKVersion = "7.4.4"

	// BEAdapter is sent as x-uploadthing-be-adapter
	BEAdapter = "server-sdk"
)

// Option applies configuration to a Config instance.
type Option func(*Config) error

// Config holds everything a Client needs. Zero values are filled from defaults().
//
// Region precedence: an explicit region (WithRegion) wins over the environment
// (WithEnv), which wins over the first region listed in the token.
type Config struct {
	Token     string
	Region    string
	APIURL    string
	IngestURL string // region template, see presigned.WithIngestURL

	Timeout           time.Duration
	RetryCount        int
	UploadConcurrency int

	HTTPClient   *http.Client
	Logger       *slog.Logger
	KeyGenerator filekey.Generator
	Clock        func() time.Time

	// UploadProgress is called with bytes read so far, from several goroutines at once
	UploadProgress presigned.ProgressFunc
}

// LoadConfig constructs a Config by applying the supplied options on top of library defaults.
func LoadConfig(opts ...Option) (*Config, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		APIURL:            DefaultAPIURL,
		Timeout:           30 * time.Second,
		UploadConcurrency: 4,
		KeyGenerator:      filekey.NewDefaultGenerator(),
		Clock:             time.Now,
	}
}

// fillDefaults sets zero fields of a hand-built Config to their defaults
func (c *Config) fillDefaults() {
	d := defaults()
	if c.APIURL == "" {
		c.APIURL = d.APIURL
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.UploadConcurrency == 0 {
		c.UploadConcurrency = d.UploadConcurrency
	}
	if c.KeyGenerator == nil {
		c.KeyGenerator = d.KeyGenerator
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.APIURL == "" {
		return errors.New("uploadthing: api url cannot be empty")
	}
	if c.Timeout < 0 {
		return errors.New("uploadthing: timeout cannot be negative")
	}
	if c.RetryCount < 0 {
		return errors.New("uploadthing: retry count cannot be negative")
	}
	if c.UploadConcurrency < 1 {
		return errors.New("uploadthing: upload concurrency must be at least 1")
	}
	return nil
}

// resolveRegion applies the region precedence against the decoded token
func (c *Config) resolveRegion(token *Token) (string, error) {
	if c.Region != "" {
		return c.Region, nil
	}
	if len(token.Regions) > 0 && token.Regions[0] != "" {
		return token.Regions[0], nil
	}
	return "", ErrNoRegion
}

// WithToken sets the base64 access token
func WithToken(token string) Option {
	return func(c *Config) error {
		if token == "" {
			return ErrMissingToken
		}
		c.Token = token
		return nil
	}
}

// WithRegion pins the ingest region alias
func WithRegion(region string) Option {
	return func(c *Config) error {
		if region == "" {
			return fmt.Errorf("uploadthing: region cannot be empty")
		}
		c.Region = region
		return nil
	}
}

// WithAPIURL overrides the REST API base URL
func WithAPIURL(apiURL string) Option {
	return func(c *Config) error {
		if apiURL == "" {
			return fmt.Errorf("uploadthing: api url cannot be empty")
		}
		c.APIURL = apiURL
		return nil
	}
}

// WithIngestURL overrides the ingest endpoint template
func WithIngestURL(ingestURL string) Option {
	return func(c *Config) error {
		c.IngestURL = ingestURL
		return nil
	}
}

// WithTimeout sets the per-request timeout for API calls and uploads
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		c.Timeout = timeout
		return nil
	}
}

// WithRetryCount enables the HTTP library's retries on transport errors.
// Uploads are retried only when the file reader is an io.Seeker.
func WithRetryCount(n int) Option {
	return func(c *Config) error {
		c.RetryCount = n
		return nil
	}
}

// WithUploadConcurrency bounds how many files upload at once
func WithUploadConcurrency(n int) Option {
	return func(c *Config) error {
		c.UploadConcurrency = n
		return nil
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) error {
		c.HTTPClient = client
		return nil
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithKeyGenerator replaces the file key strategy
func WithKeyGenerator(gen filekey.Generator) Option {
	return func(c *Config) error {
		if gen == nil {
			return fmt.Errorf("uploadthing: key generator cannot be nil")
		}
		c.KeyGenerator = gen
		return nil
	}
}

// WithClock replaces the clock used for URL expiry
func WithClock(now func() time.Time) Option {
	return func(c *Config) error {
		if now == nil {
			return fmt.Errorf("uploadthing: clock cannot be nil")
		}
		c.Clock = now
		return nil
	}
}

// WithUploadProgress reports upload progress per file name
func WithUploadProgress(fn presigned.ProgressFunc) Option {
	return func(c *Config) error {
		c.UploadProgress = fn
		return nil
	}
}

// WithEnv fills unset fields from environment variables using the provided prefix.
//
//	UPLOADTHING_TOKEN      - base64 access token
//	UPLOADTHING_REGION     - region alias (default: first region in the token)
//	UPLOADTHING_API_URL    - REST API base (default: https://api.uploadthing.com)
//	UPLOADTHING_INGEST_URL - ingest endpoint template
//
// Values already set by other options are kept, whatever the option order.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		if v, ok := lookupEnv(prefix, EnvToken); ok && v != "" && c.Token == "" {
			c.Token = v
		}
		if v, ok := lookupEnv(prefix, EnvRegion); ok && v != "" && c.Region == "" {
			c.Region = v
		}
		if v, ok := lookupEnv(prefix, EnvAPIURL); ok && v != "" && c.APIURL == DefaultAPIURL {
			c.APIURL = v
		}
		if v, ok := lookupEnv(prefix, EnvIngestURL); ok && v != "" && c.IngestURL == "" {
			c.IngestURL = v
		}
		return nil
	}
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}
