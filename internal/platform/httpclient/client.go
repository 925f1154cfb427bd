// Package httpclient wraps http.Client with connection pooling, default
// headers and optional request logging. It deliberately contains no retry
// logic: retries are the executor's job, one level up, so that a single
// policy governs every outbound operation.
package httpclient

import (
	"context"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"time"
)

// Client wraps http.Client for single-attempt requests.
type Client struct {
	hc          *stdhttp.Client
	log         *slog.Logger
	headers     map[string]string
	urlRedactor func(*url.URL) string
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		if t > 0 {
			c.hc.Timeout = t
		}
	}
}

// WithLogger sets the logger used by the client. The default discards
// everything; the surrounding application opts in to observability.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHeaders adds default headers applied to each request unless the
// request already sets them.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = make(map[string]string, len(h))
		}
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithTransport sets a custom transport. Used by tests to stub the network.
func WithTransport(rt stdhttp.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.hc.Transport = rt
		}
	}
}

// WithHTTPClient replaces the underlying http.Client entirely.
func WithHTTPClient(hc *stdhttp.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithURLRedactor sets the URL redactor used in logs.
func WithURLRedactor(f func(*url.URL) string) Option {
	return func(c *Client) {
		if f != nil {
			c.urlRedactor = f
		}
	}
}

// New creates a configured Client with a pooled transport.
func New(opts ...Option) *Client {
	tr := stdhttp.DefaultTransport.(*stdhttp.Transport).Clone()
	tr.MaxIdleConns = 100
	tr.MaxConnsPerHost = 100
	tr.MaxIdleConnsPerHost = 100
	tr.IdleConnTimeout = 90 * time.Second
	tr.TLSHandshakeTimeout = 10 * time.Second
	tr.ResponseHeaderTimeout = 10 * time.Second
	tr.ExpectContinueTimeout = 1 * time.Second

	c := &Client{
		hc: &stdhttp.Client{
			Timeout:   30 * time.Second,
			Transport: tr,
		},
		log: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Do sends one HTTP request with the default headers applied and logs the
// attempt. It performs exactly one attempt; the caller owns retries.
func (c *Client) Do(ctx context.Context, req *stdhttp.Request) (*stdhttp.Response, error) {
	r := req.Clone(ctx)
	for k, v := range c.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}

	u := c.redactURL(r.URL)
	start := time.Now()
	resp, err := c.hc.Do(r)
	dur := time.Since(start)
	if err != nil {
		c.log.Warn("http request error",
			slog.String("method", r.Method),
			slog.String("url", u),
			slog.Any("error", err))
		return nil, err
	}
	c.log.Debug("http request",
		slog.String("method", r.Method),
		slog.String("url", u),
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", dur))
	return resp, nil
}

func (c *Client) redactURL(u *url.URL) string {
	if c.urlRedactor != nil {
		return c.urlRedactor(u)
	}
	return u.Redacted()
}

// ParseRetryAfter parses a Retry-After header value, either delta-seconds or
// an HTTP date. Returns 0 when the header is absent or unparseable.
func ParseRetryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := stdhttp.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// DrainAndClose drains up to 512KB from body and closes it, keeping the
// underlying connection reusable.
func DrainAndClose(b io.ReadCloser) {
	if b == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, b, 512<<10)
	_ = b.Close()
}
