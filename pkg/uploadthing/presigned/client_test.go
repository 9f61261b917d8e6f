package presigned

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientUpload(t *testing.T) {
	var gotName, gotType, gotBody, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fileHash":"abc"}`))
	}))
	defer srv.Close()

	var progress int64
	client := NewClient(WithProgress(func(name string, n int64) {
		progress = n
	}))

	resp, err := client.Upload(context.Background(), srv.URL+"/K?expires=1", UploadFile{
		Name:        "test.jpg",
		ContentType: "image/jpeg",
		Reader:      bytes.NewReader([]byte("test content")),
	})
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"fileHash":"abc"}`, string(resp.Body))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "test.jpg", gotName)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "test content", gotBody)
	assert.Equal(t, int64(len("test content")), progress)
}

func TestClientUpload_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid signature", http.StatusForbidden)
	}))
	defer srv.Close()

	resp, err := NewClient().Upload(context.Background(), srv.URL+"/K", UploadFile{
		Name:   "a.bin",
		Reader: strings.NewReader("x"),
	})
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestClientUpload_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient().Upload(context.Background(), url+"/K", UploadFile{
		Name:   "a.bin",
		Reader: strings.NewReader("x"),
	})
	assert.Error(t, err)
}

// newFlakyServer drops the connection of the first request and echoes the
// uploaded file part of every later one
func newFlakyServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &attempts
}

func retryingClient() *resty.Client {
	return resty.New().SetRetryCount(2).SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
}

func TestClientUpload_RetryRewindsSeekableBody(t *testing.T) {
	srv, attempts := newFlakyServer(t)

	var progress []int64
	client := NewClient(WithRestyClient(retryingClient()), WithProgress(func(_ string, n int64) {
		progress = append(progress, n)
	}))

	resp, err := client.Upload(context.Background(), srv.URL+"/K", UploadFile{
		Name:   "a.txt",
		Reader: bytes.NewReader([]byte("full body")),
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), attempts.Load())
	assert.True(t, resp.OK())
	assert.Equal(t, "full body", string(resp.Body))
	require.NotEmpty(t, progress)
	assert.Equal(t, int64(len("full body")), progress[len(progress)-1])
}

func TestClientUpload_RetryRewindsToStartOffset(t *testing.T) {
	srv, _ := newFlakyServer(t)

	reader := strings.NewReader("skip:payload")
	_, err := reader.Seek(int64(len("skip:")), io.SeekStart)
	require.NoError(t, err)

	resp, err := NewClient(WithRestyClient(retryingClient())).Upload(context.Background(), srv.URL+"/K", UploadFile{
		Name:   "a.txt",
		Reader: reader,
	})
	require.NoError(t, err)
	assert.Equal(t, "payload", string(resp.Body))
}

func TestClientUpload_RetryStopsOnStreamBody(t *testing.T) {
	srv, attempts := newFlakyServer(t)

	_, err := NewClient(WithRestyClient(retryingClient())).Upload(context.Background(), srv.URL+"/K", UploadFile{
		Name:   "a.txt",
		Reader: io.NopCloser(strings.NewReader("stream")),
	})
	assert.ErrorIs(t, err, ErrBodyNotRewindable)
	assert.Equal(t, int32(1), attempts.Load())
}
