package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"siteauditor/internal/log"
)

const (
	maxBodyBytes   = 2 << 20
	maxRedirects   = 10
	defaultTimeout = 20 * time.Second
)

// Result is the tri-state fetch outcome: a transport failure is returned as
// an error, any completed HTTP exchange as a Result with OK reflecting 2xx.
type Result struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       string
	OK         bool
}

type Fetcher struct {
	client    *http.Client
	userAgent string
}

// RequestOption mutates the outgoing request, e.g. to override headers.
type RequestOption func(*http.Request)

func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

func New(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// Fetch retrieves rawURL following redirects. The returned Result carries
// the final URL, status, headers and the body decoded to UTF-8 per the
// response charset. Bodies are capped at maxBodyBytes.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts ...RequestOption) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for _, opt := range opts {
		opt(req)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	res := &Result{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode body from %s: %w", rawURL, err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", rawURL, err)
	}
	res.Body = string(body)

	log.Logger.Debug("fetched",
		zap.String("url", res.URL),
		zap.Int("status_code", res.StatusCode),
		zap.Int("content_length", len(res.Body)),
	)

	return res, nil
}
