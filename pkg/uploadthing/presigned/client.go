package presigned

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client uploads file bodies to presigned ingest URLs
type Client struct {
	http         *resty.Client
	progressFunc ProgressFunc
}

// ProgressFunc is called during upload to report progress
// It receives the file name and the number of bytes uploaded so far
type ProgressFunc func(fileName string, bytesUploaded int64)

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// NewClient creates a new presigned upload client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http: resty.New().SetTimeout(30 * time.Minute), // Long timeout for large uploads
	}

	for _, opt := range opts {
		opt(c)
	}
	c.http.OnBeforeRequest(rewindBody)

	return c
}

// WithRestyClient shares an existing resty client (transport, timeouts, retries)
func WithRestyClient(client *resty.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithProgress sets a progress callback function
func WithProgress(fn ProgressFunc) ClientOption {
	return func(c *Client) {
		c.progressFunc = fn
	}
}

// UploadFile is the body of a single upload
type UploadFile struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Response is the raw ingest reply
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Upload sends file as the "file" part of a multipart PUT to presignedURL.
// Non-2xx replies are returned as a Response, not an error; transport failures are errors.
// When the resty client retries, an io.Seeker body is rewound before each new attempt;
// any other reader stops the retries with ErrBodyNotRewindable.
//
// Example:
//
//	client := presigned.NewClient()
//	resp, err := client.Upload(ctx, signedURL, presigned.UploadFile{Name: "a.png", ContentType: "image/png", Reader: f})
func (c *Client) Upload(ctx context.Context, presignedURL string, file UploadFile) (*Response, error) {
	body := &uploadBody{}
	if seeker, ok := file.Reader.(io.Seeker); ok {
		start, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("upload failed: %w", err)
		}
		body.seeker, body.start = seeker, start
	}

	reader := file.Reader
	if c.progressFunc != nil {
		body.progress = &progressReader{
			reader:   file.Reader,
			fileName: file.Name,
			callback: c.progressFunc,
		}
		reader = body.progress
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := c.http.R().
		SetContext(context.WithValue(ctx, uploadBodyKey{}, body)).
		SetMultipartField("file", file.Name, contentType, reader).
		Execute(http.MethodPut, presignedURL)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}

type uploadBodyKey struct{}

// uploadBody remembers where an upload body starts so a retry can resend it
type uploadBody struct {
	seeker   io.Seeker
	start    int64
	progress *progressReader
}

func (b *uploadBody) rewind() error {
	if b.seeker == nil {
		return ErrBodyNotRewindable
	}
	if _, err := b.seeker.Seek(b.start, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", ErrBodyNotRewindable, err)
	}
	if b.progress != nil {
		b.progress.bytesRead = 0
	}
	return nil
}

// rewindBody runs before every attempt; requests without an upload body pass through
func rewindBody(_ *resty.Client, req *resty.Request) error {
	body, ok := req.Context().Value(uploadBodyKey{}).(*uploadBody)
	if !ok || req.Attempt <= 1 {
		return nil
	}
	return body.rewind()
}

// progressReader wraps an io.Reader to track upload progress
type progressReader struct {
	reader    io.Reader
	fileName  string
	bytesRead int64
	callback  ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.callback != nil && n > 0 {
		pr.callback(pr.fileName, pr.bytesRead)
	}
	return n, err
}
