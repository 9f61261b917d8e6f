package main

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/tendant/uploadthing-go/pkg/uploadthing"
)

// Config is read from the environment, after an optional .env file
type Config struct {
	Token       string        `env:"UPLOADTHING_TOKEN"`
	Region      string        `env:"UPLOADTHING_REGION"`
	APIURL      string        `env:"UPLOADTHING_API_URL" env-default:"https://api.uploadthing.com"`
	IngestURL   string        `env:"UPLOADTHING_INGEST_URL"`
	Timeout     time.Duration `env:"UPLOADTHING_TIMEOUT" env-default:"30s"`
	RetryCount  int           `env:"UPLOADTHING_RETRY_COUNT" env-default:"0"`
	Concurrency int           `env:"UPLOADTHING_UPLOAD_CONCURRENCY" env-default:"4"`
	LogLevel    string        `env:"UPLOADTHING_LOG_LEVEL" env-default:"info"`
}

func loadConfig(envFile string) (*Config, error) {
	// A missing .env file is fine; the process environment still applies.
	if envFile == "" {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// clientOptions maps the CLI config onto library options
func (c *Config) clientOptions() []uploadthing.Option {
	opts := []uploadthing.Option{
		uploadthing.WithToken(c.Token),
		uploadthing.WithAPIURL(c.APIURL),
		uploadthing.WithIngestURL(c.IngestURL),
		uploadthing.WithTimeout(c.Timeout),
		uploadthing.WithRetryCount(c.RetryCount),
		uploadthing.WithUploadConcurrency(c.Concurrency),
	}
	if c.Region != "" {
		opts = append(opts, uploadthing.WithRegion(c.Region))
	}
	return opts
}
