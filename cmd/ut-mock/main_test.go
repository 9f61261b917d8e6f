package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/uploadthing-go/pkg/uploadthing/uttest"
	"github.com/tendant/uploadthing-go/pkg/uploadthing/uttest/blob"
)

func TestRouter(t *testing.T) {
	srv := httptest.NewServer(newRouter(uttest.NewServer()))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v6/getUsageInfo", strings.NewReader(""))
	require.NoError(t, err)
	req.Header.Set("x-uploadthing-api-key", uttest.DefaultAPIKey)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBlobConfig(t *testing.T) {
	t.Setenv("UT_MOCK_BLOB", "fs")
	t.Setenv("UT_MOCK_FS_DIR", t.TempDir())

	var config Config
	require.NoError(t, cleanenv.ReadEnv(&config))
	assert.Equal(t, []string{"sea2"}, config.Regions)
	assert.True(t, config.KeyCheck)

	bc := config.Blob.toBlobConfig()
	assert.Equal(t, blob.KindFS, bc.Kind)
	assert.Equal(t, "uploadthing-mock", bc.S3.Bucket)

	store, err := blob.New(context.Background(), bc)
	require.NoError(t, err)
	assert.IsType(t, &blob.FS{}, store)
}
