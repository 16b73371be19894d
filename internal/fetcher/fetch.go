package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"github.com/voyagen/drtvfeed/internal/config"
)

// ErrUnexpectedStatus is wrapped by callers that treat non-200 responses as failures.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// maxBodySize caps decoded response bodies. DR TV pages are a few hundred KiB.
const maxBodySize = 16 << 20

// Client issues GET requests with a fixed browser-like header set.
// It is safe for concurrent use.
type Client struct {
	http    *http.Client
	header  http.Header
	limiter *rate.Limiter
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// NewClient builds a Client from provider settings.
// hc may be nil, in which case a client with cfg.Timeout is created.
func NewClient(cfg config.Provider, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	h := http.Header{}
	if cfg.UserAgent != "" {
		h.Set("User-Agent", cfg.UserAgent)
	}
	if cfg.Accept != "" {
		h.Set("Accept", cfg.Accept)
	}
	if cfg.AcceptLanguage != "" {
		h.Set("Accept-Language", cfg.AcceptLanguage)
	}
	h.Set("Accept-Encoding", "gzip, deflate, br")

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &Client{http: hc, header: h, limiter: limiter}
}

// Get fetches rawURL with query appended (query may be nil).
// Any status code is returned as a Response; only transport errors are errors.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do: %w", err)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// GetOK is Get that also fails on any status other than 200.
func (c *Client) GetOK(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	resp, err := c.Get(ctx, rawURL, query)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return resp.Body, nil
}

// decodeBody undoes Content-Encoding. Setting Accept-Encoding ourselves turns
// off net/http's transparent gzip handling, so every encoding is handled here.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case "deflate":
		return flate.NewReader(resp.Body), nil
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	default:
		return nil, fmt.Errorf("unsupported Content-Encoding %q", resp.Header.Get("Content-Encoding"))
	}
}
