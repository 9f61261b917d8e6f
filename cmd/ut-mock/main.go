// Command ut-mock serves a fake UploadThing API and ingest endpoint for local development.
// It is not a deployable storage backend. File bytes go to the blob store named by UT_MOCK_BLOB.
//
//	UT_MOCK_ADDR=:8089 ut-mock
//	UPLOADTHING_TOKEN=<printed token> UPLOADTHING_API_URL=http://localhost:8089 \
//	UPLOADTHING_INGEST_URL=http://localhost:8089 ut upload photo.png
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/tendant/uploadthing-go/pkg/uploadthing"
	"github.com/tendant/uploadthing-go/pkg/uploadthing/uttest"
	"github.com/tendant/uploadthing-go/pkg/uploadthing/uttest/blob"
)

type Config struct {
	Addr       string   `env:"UT_MOCK_ADDR" env-default:":8089"`
	AppID      string   `env:"UT_MOCK_APP_ID" env-default:"test-app"`
	APIKey     string   `env:"UT_MOCK_API_KEY" env-default:"test-key"`
	Regions    []string `env:"UT_MOCK_REGIONS" env-default:"sea2" env-separator:","`
	LimitBytes int64    `env:"UT_MOCK_LIMIT_BYTES" env-default:"2147483648"`
	KeyCheck   bool     `env:"UT_MOCK_KEY_CHECK" env-default:"true"`
	Blob       BlobConfig
}

type BlobConfig struct {
	Kind  string `env:"UT_MOCK_BLOB" env-default:"memory"`
	FSDir string `env:"UT_MOCK_FS_DIR" env-default:"./data/uploads"`
	S3    S3Config
}

type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	BucketName      string `env:"AWS_S3_BUCKET" env-default:"uploadthing-mock"`
	Prefix          string `env:"AWS_S3_PREFIX"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"true"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"true"`
}

func (c BlobConfig) toBlobConfig() blob.Config {
	return blob.Config{
		Kind: blob.Kind(c.Kind),
		FS:   blob.FSConfig{BaseDir: c.FSDir},
		S3: blob.S3Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.BucketName,
			Prefix:                 c.S3.Prefix,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		},
	}
}

func newRouter(mock *uttest.Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})
	r.Mount("/", mock.Handler())
	return r
}

func main() {
	_ = godotenv.Load()

	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := blob.New(ctx, config.Blob.toBlobConfig())
	if err != nil {
		slog.Error("Failed to initialize blob store", "kind", config.Blob.Kind, "err", err)
		os.Exit(1)
	}

	token := uploadthing.Token{APIKey: config.APIKey, AppID: config.AppID, Regions: config.Regions}
	mock := uttest.NewServer(
		uttest.WithToken(token),
		uttest.WithBlobStore(blobs),
		uttest.WithLimitBytes(config.LimitBytes),
		uttest.WithKeyCheck(config.KeyCheck),
	)

	server := &http.Server{
		Addr:              config.Addr,
		Handler:           newRouter(mock),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Mock UploadThing listening", "addr", config.Addr, "app_id", config.AppID, "blob", config.Blob.Kind)
		slog.Info("Client token", "UPLOADTHING_TOKEN", token.Encode())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "err", err)
	}
}
