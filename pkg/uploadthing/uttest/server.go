// Package uttest provides an in-process UploadThing service for tests and local development.
//
// One handler serves both the REST API (POST /v6/...) and the ingest endpoint
// (PUT /{fileKey}), so a client configured with the server URL as its API and
// ingest base talks to it end to end:
//
//	ts := uttest.NewTestServer(t)
//	client, err := uploadthing.New(ts.ClientOptions()...)
//
// The server is a fake for tests and local development only, never a
// deployable UploadThing backend.
package uttest

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/uploadthing-go/pkg/uploadthing"
	"github.com/tendant/uploadthing-go/pkg/uploadthing/filekey"
	"github.com/tendant/uploadthing-go/pkg/uploadthing/presigned"
	"github.com/tendant/uploadthing-go/pkg/uploadthing/uttest/blob"
)

const (
	// DefaultAppID is the app id of the default token
	DefaultAppID = "test-app"

	// DefaultAPIKey is the API key of the default token
	DefaultAPIKey = "test-key"

	// DefaultRegion is the only region listed in the default token
	DefaultRegion = "sea2"

	// DefaultLimitBytes is the storage quota reported by getUsageInfo
	DefaultLimitBytes = 2 * 1024 * 1024 * 1024

	maxUploadMemory = 32 << 20
)

// Server is a fake UploadThing backend
type Server struct {
	token      uploadthing.Token
	signer     *presigned.Signer
	store      *Store
	blobs      blob.Store
	limitBytes int64
	checkKeys  bool
	now        func() time.Time
	logger     *slog.Logger

	mu       sync.Mutex
	failures map[string]failure
	requests map[string]int

	router chi.Router
}

type failure struct {
	status  int
	message string
}

// Option configures a Server
type Option func(*Server)

// WithToken replaces the default credentials
func WithToken(token uploadthing.Token) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithStore shares a store between servers or with the test
func WithStore(store *Store) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithBlobStore sets where uploaded bodies are kept; memory by default
func WithBlobStore(blobs blob.Store) Option {
	return func(s *Server) {
		if blobs != nil {
			s.blobs = blobs
		}
	}
}

// WithLimitBytes sets the quota reported by getUsageInfo
func WithLimitBytes(n int64) Option {
	return func(s *Server) {
		s.limitBytes = n
	}
}

// WithKeyCheck rejects uploads whose file key was not derived from the server's app id
func WithKeyCheck(enabled bool) Option {
	return func(s *Server) {
		s.checkKeys = enabled
	}
}

// WithClock replaces the clock used for expiry checks and upload timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a Server with the default token and an empty store
func NewServer(opts ...Option) *Server {
	s := &Server{
		token: uploadthing.Token{
			APIKey:  DefaultAPIKey,
			AppID:   DefaultAppID,
			Regions: []string{DefaultRegion},
		},
		store:      NewStore(),
		blobs:      blob.NewMemory(),
		limitBytes: DefaultLimitBytes,
		checkKeys:  true,
		now:        time.Now,
		logger:     slog.Default(),
		failures:   make(map[string]failure),
		requests:   make(map[string]int),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.signer = presigned.New(presigned.WithClock(s.now))
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving the API and ingest routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Token returns the credentials clients must present
func (s *Server) Token() uploadthing.Token {
	return s.token
}

// Store returns the backing file store
func (s *Server) Store() *Store {
	return s.store
}

// Content returns the uploaded body of a file
func (s *Server) Content(ctx context.Context, fileKey string) ([]byte, error) {
	return s.blobs.Get(ctx, fileKey)
}

// FailNext makes the next request to path answer with status and message.
// Paths are API paths such as "/v6/listFiles", or "ingest" for uploads.
func (s *Server) FailNext(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, message: message}
}

// Requests returns how many requests reached path
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/v6", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/deleteFiles", s.deleteFiles)
		r.Post("/listFiles", s.listFiles)
		r.Post("/getUsageInfo", s.getUsageInfo)
		r.Post("/renameFiles", s.renameFiles)
		r.Post("/updateACL", s.updateACL)
	})

	r.Put("/{fileKey}", presigned.ValidateMiddleware(s.signer, s.token.APIKey, http.HandlerFunc(s.ingest)).ServeHTTP)
	r.Get("/f/{fileKey}", s.download)

	return r
}

// authenticate checks the API key header and applies injected failures
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.intercept(w, r, r.URL.Path) {
			return
		}
		if r.Header.Get("x-uploadthing-api-key") != s.token.APIKey {
			s.logger.Warn("Rejected API request", "path", r.URL.Path)
			writeError(w, r, http.StatusUnauthorized, "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// intercept counts the request and answers it when a failure was queued for path
func (s *Server) intercept(w http.ResponseWriter, r *http.Request, path string) bool {
	s.mu.Lock()
	s.requests[path]++
	f, ok := s.failures[path]
	if ok {
		delete(s.failures, path)
	}
	s.mu.Unlock()

	if ok {
		writeError(w, r, f.status, f.message)
	}
	return ok
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": message})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) deleteFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileKeys  []string `json:"fileKeys"`
		CustomIDs []string `json:"customIds"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	removed := append(s.store.Delete(req.FileKeys...), s.store.DeleteByCustomID(req.CustomIDs...)...)
	for _, key := range removed {
		if err := s.blobs.Delete(r.Context(), key); err != nil && !errors.Is(err, blob.ErrNotFound) {
			s.logger.Warn("Failed to delete blob", "file_key", key, "err", err)
		}
	}
	s.logger.Debug("Deleted files", "count", len(removed))

	render.JSON(w, r, map[string]any{
		"success":      true,
		"deletedCount": len(removed),
	})
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Limit < 0 || req.Offset < 0 {
		writeError(w, r, http.StatusBadRequest, "limit and offset must be non-negative")
		return
	}

	files, hasMore := s.store.List(req.Offset, req.Limit)
	out := make([]map[string]any, 0, len(files))
	for _, f := range files {
		entry := map[string]any{
			"id":         f.ID,
			"key":        f.Key,
			"name":       f.Name,
			"size":       f.Size,
			"status":     f.Status,
			"uploadedAt": f.UploadedAt.UnixMilli(),
		}
		if f.CustomID != "" {
			entry["customId"] = f.CustomID
		}
		out = append(out, entry)
	}

	render.JSON(w, r, map[string]any{
		"hasMore": hasMore,
		"files":   out,
	})
}

func (s *Server) getUsageInfo(w http.ResponseWriter, r *http.Request) {
	total, count := s.store.Usage()
	render.JSON(w, r, map[string]any{
		"totalBytes":    total,
		"appTotalBytes": total,
		"filesUploaded": count,
		"limitBytes":    s.limitBytes,
	})
}

type fileUpdate struct {
	FileKey  string `json:"fileKey"`
	CustomID string `json:"customId"`
	NewName  string `json:"newName"`
	ACL      string `json:"acl"`
}

func (s *Server) renameFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Updates []fileUpdate `json:"updates"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	renamed := 0
	for _, u := range req.Updates {
		if u.NewName == "" {
			writeError(w, r, http.StatusBadRequest, "newName is required")
			return
		}
		err := s.store.Update(u.FileKey, u.CustomID, func(f *StoredFile) {
			f.Name = u.NewName
		})
		if err == nil {
			renamed++
		}
	}

	render.JSON(w, r, map[string]any{
		"success":      true,
		"renamedCount": renamed,
	})
}

func (s *Server) updateACL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Updates []fileUpdate `json:"updates"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated := 0
	for _, u := range req.Updates {
		if !uploadthing.ACL(u.ACL).Valid() {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid acl %q", u.ACL))
			return
		}
		err := s.store.Update(u.FileKey, u.CustomID, func(f *StoredFile) {
			f.ACL = u.ACL
		})
		if err == nil {
			updated++
		}
	}

	render.JSON(w, r, map[string]any{
		"success":      true,
		"updatedCount": updated,
	})
}

// ingest stores the "file" part of a signed multipart PUT
func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w, r, "ingest") {
		return
	}

	fileKey := presigned.FileKeyFromContext(r.Context())
	if s.checkKeys && !filekey.BelongsTo(fileKey, s.token.AppID) {
		writeError(w, r, http.StatusForbidden, "File key does not belong to this app")
		return
	}

	q := r.URL.Query()
	declaredSize, err := strconv.ParseInt(q.Get("x-ut-file-size"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid x-ut-file-size")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, r, http.StatusBadRequest, "Expected multipart body")
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Missing file part")
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Failed to read file part")
		return
	}
	if int64(len(data)) != declaredSize {
		writeError(w, r, http.StatusBadRequest,
			fmt.Sprintf("File size mismatch: declared %d, received %d", declaredSize, len(data)))
		return
	}

	fileType := q.Get("x-ut-file-type")
	if fileType == "" {
		fileType = header.Header.Get("Content-Type")
	}
	acl := q.Get("x-ut-acl")
	if acl == "" {
		acl = string(uploadthing.ACLPublicRead)
	}

	sum := md5.Sum(data)
	f := StoredFile{
		ID:         uuid.NewString(),
		Key:        fileKey,
		CustomID:   q.Get("x-ut-custom-id"),
		Name:       q.Get("x-ut-file-name"),
		Type:       fileType,
		Size:       declaredSize,
		ACL:        acl,
		Status:     "Uploaded",
		Hash:       hex.EncodeToString(sum[:]),
		UploadedAt: s.now(),
	}
	if err := s.store.Put(f); err != nil {
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}
	if err := s.blobs.Put(r.Context(), fileKey, fileType, data); err != nil {
		s.store.Delete(fileKey)
		s.logger.Error("Failed to store upload", "file_key", fileKey, "err", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to store file")
		return
	}

	s.logger.Info("Stored upload", "file_key", fileKey, "name", f.Name, "size", f.Size)

	fileURL := fmt.Sprintf("https://%s.ufs.sh/f/%s", s.token.AppID, fileKey)
	render.JSON(w, r, map[string]any{
		"url":        fileURL,
		"ufsUrl":     fileURL,
		"appUrl":     fmt.Sprintf("https://utfs.io/a/%s/%s", s.token.AppID, fileKey),
		"fileHash":   f.Hash,
		"serverData": nil,
	})
}

// download serves a stored body. Private files need the API key header.
func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	fileKey := chi.URLParam(r, "fileKey")

	f, err := s.store.Get(fileKey)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "File not found")
		return
	}
	if f.ACL == string(uploadthing.ACLPrivate) && r.Header.Get("x-uploadthing-api-key") != s.token.APIKey {
		writeError(w, r, http.StatusForbidden, "File is private")
		return
	}

	data, err := s.blobs.Get(r.Context(), fileKey)
	if err != nil {
		s.logger.Error("Failed to read blob", "file_key", fileKey, "err", err)
		writeError(w, r, http.StatusNotFound, "File not found")
		return
	}

	if f.Type != "" {
		w.Header().Set("Content-Type", f.Type)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// TestServer is a Server listening on a loopback address
type TestServer struct {
	*Server
	URL string
}

// NewTestServer starts a Server that is closed when t finishes
func NewTestServer(t testing.TB, opts ...Option) *TestServer {
	t.Helper()

	s := NewServer(opts...)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &TestServer{Server: s, URL: srv.URL}
}

// ClientOptions points a client at the test server with its credentials
func (ts *TestServer) ClientOptions() []uploadthing.Option {
	return []uploadthing.Option{
		uploadthing.WithToken(ts.token.Encode()),
		uploadthing.WithAPIURL(ts.URL),
		uploadthing.WithIngestURL(ts.URL),
	}
}
