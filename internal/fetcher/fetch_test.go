package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/drtvfeed/internal/config"
)

func testProviderConfig() config.Provider {
	p := config.Default().Provider
	p.RateLimit = 0
	p.Timeout = 2 * time.Second
	return p
}

func TestClient_SendsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testProviderConfig()
	resp, err := NewClient(cfg, nil).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, cfg.UserAgent, got.Get("User-Agent"))
	assert.Equal(t, cfg.Accept, got.Get("Accept"))
	assert.Equal(t, cfg.AcceptLanguage, got.Get("Accept-Language"))
	assert.Equal(t, "gzip, deflate, br", got.Get("Accept-Encoding"))
}

func TestClient_QueryEncoding(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
	}))
	defer srv.Close()

	q := url.Values{"channels": {"20875,20876"}, "hour": {"7"}}
	_, err := NewClient(testProviderConfig(), nil).Get(context.Background(), srv.URL+"/api?x=1", q)
	require.NoError(t, err)
	assert.Equal(t, "20875,20876", got.Get("channels"))
	assert.Equal(t, "7", got.Get("hour"))
	assert.Equal(t, "1", got.Get("x"))
}

func TestClient_Decompression(t *testing.T) {
	const body = "<html>compressed</html>"
	encoders := map[string]func([]byte) []byte{
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, _ = zw.Write(b)
			_ = zw.Close()
			return buf.Bytes()
		},
		"br": func(b []byte) []byte {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			_, _ = bw.Write(b)
			_ = bw.Close()
			return buf.Bytes()
		},
	}
	for enc, encode := range encoders {
		t.Run(enc, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", enc)
				_, _ = w.Write(encode([]byte(body)))
			}))
			defer srv.Close()

			resp, err := NewClient(testProviderConfig(), nil).Get(context.Background(), srv.URL, nil)
			require.NoError(t, err)
			assert.Equal(t, body, string(resp.Body))
		})
	}
}

func TestClient_GetOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(testProviderConfig(), nil).GetOK(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := testProviderConfig()
	cfg.Timeout = 50 * time.Millisecond
	_, err := NewClient(cfg, nil).Get(context.Background(), srv.URL, nil)
	assert.Error(t, err)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := testProviderConfig()
	cfg.RateLimit = 0.001
	c := NewClient(cfg, nil)
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err, "first request uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, srv.URL, nil)
	assert.Error(t, err)
}
