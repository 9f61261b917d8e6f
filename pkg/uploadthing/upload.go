package uploadthing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tendant/uploadthing-go/pkg/uploadthing/presigned"
)

const defaultContentType = "application/octet-stream"

// File is one file to upload.
// Size and Type are computed from Reader and Name when left empty.
type File struct {
	Name   string
	Reader io.Reader
	Size   int64
	Type   string
}

// FileFromBytes wraps in-memory content
func FileFromBytes(name string, data []byte) File {
	return File{
		Name:   name,
		Reader: bytes.NewReader(data),
		Size:   int64(len(data)),
	}
}

// FileFromPath opens a file on disk. The caller closes the returned closer after the upload.
func FileFromPath(path string) (File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return File{}, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return File{
		Name:   filepath.Base(path),
		Reader: f,
		Size:   info.Size(),
	}, f, nil
}

// UploadOptions applies to every file of one UploadFiles call
type UploadOptions struct {
	ContentDisposition ContentDisposition
	ACL                ACL
}

// UploadOption is a functional option for UploadFiles
type UploadOption func(*UploadOptions)

// WithContentDisposition sets inline or attachment
func WithContentDisposition(d ContentDisposition) UploadOption {
	return func(o *UploadOptions) {
		o.ContentDisposition = d
	}
}

// WithACL sets the ACL of the uploaded files. An empty ACL leaves it to the app default.
func WithACL(acl ACL) UploadOption {
	return func(o *UploadOptions) {
		o.ACL = acl
	}
}

// applyUploadOptions starts from inline and public-read and rejects unknown values
func applyUploadOptions(opts []UploadOption) (UploadOptions, error) {
	o := UploadOptions{
		ContentDisposition: DispositionInline,
		ACL:                ACLPublicRead,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.ACL != "" && !o.ACL.Valid() {
		return o, fmt.Errorf("%w: got %q", ErrInvalidACL, o.ACL)
	}
	switch o.ContentDisposition {
	case "", DispositionInline, DispositionAttachment:
	default:
		return o, fmt.Errorf("uploadthing: content disposition must be 'inline' or 'attachment', got %q", o.ContentDisposition)
	}
	return o, nil
}

// preparedFile is a file with its key and signed ingest URL
type preparedFile struct {
	file      File
	fileKey   string
	customID  string
	ingestURL string
}

// UploadFiles uploads files concurrently and returns results in input order.
// Keys and signed URLs are prepared for every file before the first byte is sent,
// so a bad input fails the call without partial uploads.
func (c *Client) UploadFiles(ctx context.Context, files []File, opts ...UploadOption) ([]UploadResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	uploadOpts, err := applyUploadOptions(opts)
	if err != nil {
		return nil, err
	}

	prepared := make([]preparedFile, len(files))
	for i, f := range files {
		p, err := c.prepareFile(f, uploadOpts)
		if err != nil {
			return nil, err
		}
		prepared[i] = p
	}

	results := make([]UploadResult, len(prepared))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.UploadConcurrency)

	for i, p := range prepared {
		i, p := i, p
		g.Go(func() error {
			result, err := c.uploadOne(ctx, p)
			if err != nil {
				return &UploadError{FileName: p.file.Name, FileKey: p.fileKey, Err: err}
			}
			if result.ACL == "" {
				result.ACL = uploadOpts.ACL
			}
			results[i] = *result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// UploadFile uploads a single file
func (c *Client) UploadFile(ctx context.Context, file File, opts ...UploadOption) (*UploadResult, error) {
	results, err := c.UploadFiles(ctx, []File{file}, opts...)
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// GenerateKey derives the file key for seed under this client's app
func (c *Client) GenerateKey(seed string) (string, error) {
	return c.cfg.KeyGenerator.GenerateKey(seed, c.token.AppID)
}

// SignUploadURL signs an ingest URL for a file key with this client's credentials and region
func (c *Client) SignUploadURL(fileKey, fileName string, fileSize int64, fileType, customID string, opts ...UploadOption) (string, error) {
	uploadOpts, err := applyUploadOptions(opts)
	if err != nil {
		return "", err
	}

	return c.signer.SignUploadURL(presigned.UploadParams{
		Region:             c.region,
		FileKey:            fileKey,
		APIKey:             c.token.APIKey,
		AppID:              c.token.AppID,
		FileName:           fileName,
		FileSize:           fileSize,
		FileType:           fileType,
		CustomID:           customID,
		ContentDisposition: string(uploadOpts.ContentDisposition),
		ACL:                string(uploadOpts.ACL),
	})
}

func (c *Client) prepareFile(f File, opts UploadOptions) (preparedFile, error) {
	if f.Reader == nil {
		return preparedFile{}, fmt.Errorf("uploadthing: file %q has no reader", f.Name)
	}
	if f.Size < 0 {
		return preparedFile{}, fmt.Errorf("uploadthing: file %q has negative size", f.Name)
	}

	if f.Name == "" {
		f.Name = "upload_" + uuid.NewString()
	}

	if f.Size == 0 {
		size, reader, err := measure(f.Reader)
		if err != nil {
			return preparedFile{}, fmt.Errorf("failed to size %s: %w", f.Name, err)
		}
		f.Size, f.Reader = size, reader
	}

	if f.Type == "" {
		f.Type = detectContentType(f.Name, f.Reader)
	}

	seed := newSeed()
	fileKey, err := c.GenerateKey(seed)
	if err != nil {
		return preparedFile{}, fmt.Errorf("failed to generate key for %s: %w", f.Name, err)
	}

	ingestURL, err := c.SignUploadURL(fileKey, f.Name, f.Size, f.Type, seed,
		WithContentDisposition(opts.ContentDisposition), WithACL(opts.ACL))
	if err != nil {
		return preparedFile{}, fmt.Errorf("failed to sign upload for %s: %w", f.Name, err)
	}

	return preparedFile{
		file:      f,
		fileKey:   fileKey,
		customID:  seed,
		ingestURL: ingestURL,
	}, nil
}

func (c *Client) uploadOne(ctx context.Context, p preparedFile) (*UploadResult, error) {
	resp, err := c.uploader.Upload(ctx, p.ingestURL, presigned.UploadFile{
		Name:        p.file.Name,
		ContentType: p.file.Type,
		Reader:      p.file.Reader,
	})
	if err != nil {
		c.logger.Error("Failed to upload file", "name", p.file.Name, "file_key", p.fileKey, "err", err)
		return nil, err
	}
	if !resp.OK() {
		apiErr := newAPIError("ingest", resp.StatusCode, resp.Body)
		c.logger.Error("Upload rejected", "name", p.file.Name, "file_key", p.fileKey, "status", resp.StatusCode, "err", apiErr)
		return nil, apiErr
	}

	var ingest ingestResponse
	if err := decodeJSON(resp.Body, &ingest); err != nil {
		return nil, err
	}
	if ingest.URL == "" {
		return nil, fmt.Errorf("%w: ingest reply has no url", ErrInvalidResponse)
	}

	c.logger.Info("Uploaded file", "name", p.file.Name, "file_key", p.fileKey, "size", p.file.Size)

	return &UploadResult{
		FileKey:    p.fileKey,
		Name:       p.file.Name,
		Size:       p.file.Size,
		Type:       p.file.Type,
		URL:        ingest.URL,
		UfsURL:     ingest.UfsURL,
		AppURL:     ingest.AppURL,
		FileHash:   ingest.FileHash,
		ServerData: ingest.ServerData,
		ACL:        ingest.ACL,
	}, nil
}

// newSeed returns 32 lowercase hex characters
func newSeed() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// measure finds the size of r, seeking when it can and buffering when it cannot
func measure(r io.Reader) (int64, io.Reader, error) {
	if seeker, ok := r.(io.Seeker); ok {
		start, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, nil, err
		}
		end, err := seeker.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, nil, err
		}
		if _, err := seeker.Seek(start, io.SeekStart); err != nil {
			return 0, nil, err
		}
		return end - start, r, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, nil, err
	}
	return int64(len(data)), bytes.NewReader(data), nil
}

// detectContentType guesses from the extension first, then sniffs seekable content
func detectContentType(name string, r io.Reader) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return stripParams(t)
	}

	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return defaultContentType
	}

	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return defaultContentType
	}
	mt, err := mimetype.DetectReader(rs)
	if _, seekErr := rs.Seek(start, io.SeekStart); seekErr != nil || err != nil {
		return defaultContentType
	}
	return stripParams(mt.String())
}

func stripParams(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		return strings.TrimSpace(contentType[:i])
	}
	return contentType
}
