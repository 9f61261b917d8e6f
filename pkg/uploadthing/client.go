package uploadthing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/tendant/uploadthing-go/pkg/uploadthing/presigned"
)

// Client talks to the UploadThing REST API and ingest endpoints.
// It is safe for concurrent use.
type Client struct {
	cfg      Config
	token    Token
	region   string
	http     *resty.Client
	signer   *presigned.Signer
	uploader *presigned.Client
	logger   *slog.Logger
}

// New creates a Client from options.
//
// Example:
//
//	client, err := uploadthing.New(uploadthing.WithEnv(""))
//	client, err := uploadthing.New(uploadthing.WithToken(token), uploadthing.WithRegion("sea2"))
func New(opts ...Option) (*Client, error) {
	cfg, err := LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(*cfg)
}

// NewWithConfig creates a Client from an already assembled Config
func NewWithConfig(cfg Config) (*Client, error) {
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	token, err := DecodeToken(cfg.Token)
	if err != nil {
		return nil, err
	}

	region, err := cfg.resolveRegion(token)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var rc *resty.Client
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(cfg.APIURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeaders(map[string]string{
			"x-uploadthing-version":    SDKVersion,
			"x-uploadthing-be-adapter": BEAdapter,
			"x-uploadthing-api-key":    token.APIKey,
		})

	c := &Client{
		cfg:    cfg,
		token:  *token,
		region: region,
		http:   rc,
		signer: presigned.New(
			presigned.WithClock(cfg.Clock),
			presigned.WithIngestURL(cfg.IngestURL),
		),
		uploader: presigned.NewClient(
			presigned.WithRestyClient(rc),
			presigned.WithProgress(cfg.UploadProgress),
		),
		logger:   logger,
	}

	return c, nil
}

// Token returns the decoded access token
func (c *Client) Token() Token {
	return c.token
}

// Region returns the region uploads are sent to
func (c *Client) Region() string {
	return c.region
}

// do POSTs body as JSON to an API path and decodes the reply into out.
// A nil body sends no payload; a nil out discards the reply.
func (c *Client) do(ctx context.Context, path string, body any, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Post(path)
	if err != nil {
		c.logger.Error("UploadThing request failed", "path", path, "err", err)
		return fmt.Errorf("request %s: %w", path, err)
	}

	c.logger.Debug("UploadThing request", "method", http.MethodPost, "path", path, "status", resp.StatusCode())

	if resp.IsError() {
		return newAPIError(path, resp.StatusCode(), resp.Body())
	}

	if out == nil {
		return nil
	}
	return decodeJSON(resp.Body(), out)
}
