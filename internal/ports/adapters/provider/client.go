package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/forPelevin/reelchemist/internal/errs"
)

const (
	defaultTimeout = 90 * time.Second
	maxBodyBytes   = 32 << 20
	maxErrorBody   = 400
)

// Client performs exactly one HTTP request per call against a single
// provider. It never retries; the limiter only spaces calls out.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout <= 0 {
			return
		}
		c.httpClient = &http.Client{Timeout: timeout, Transport: c.httpClient.Transport}
	}
}

// WithRateLimit caps the request rate. A non-positive rate disables limiting.
func WithRateLimit(requestsPerMinute int, burst int) Option {
	return func(c *Client) {
		if requestsPerMinute <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:       name,
		baseURL:    NormalizeBaseURL(baseURL, ""),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "provider", "provider", name)
	return c
}

func (c *Client) Name() string    { return c.name }
func (c *Client) BaseURL() string { return c.baseURL }

type Request struct {
	Method string
	Path   string
	Header http.Header
	// Body is JSON encoded when non-nil.
	Body any
	// Secret is redacted from any error text built from the response.
	Secret string
}

type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Do sends the request and returns the body of a 2xx response. Everything
// else comes back as an *errs.ProviderError.
func (c *Client) Do(ctx context.Context, r Request) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, c.fail(errs.KindNetwork, 0, fmt.Sprintf("rate limiter: %v", err))
		}
	}

	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return Response{}, fmt.Errorf("%s: marshal request: %w", c.name, err)
		}
		body = bytes.NewReader(b)
	}
	method := r.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+r.Path, body)
	if err != nil {
		return Response{}, fmt.Errorf("%s: build request: %w", c.name, err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return Response{}, ctx.Err()
		}
		return Response{}, c.fail(errs.KindNetwork, 0, RedactSecrets(err.Error(), r.Secret))
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, c.fail(errs.KindNetwork, resp.StatusCode, fmt.Sprintf("read body: %v", err))
	}
	c.logger.Debug("provider call",
		"method", method,
		"path", r.Path,
		"status", resp.StatusCode,
		"elapsed", time.Since(started).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := Truncate(RedactSecrets(string(rb), r.Secret), maxErrorBody)
		return Response{}, c.fail(errs.KindForStatus(resp.StatusCode), resp.StatusCode, msg)
	}
	return Response{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: rb}, nil
}

// DoJSON is Do followed by decoding the response body into out.
func (c *Client) DoJSON(ctx context.Context, r Request, out any) error {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return c.fail(errs.KindDecode, resp.Status, err.Error())
	}
	return nil
}

// DecodeError reports a well-formed response whose content was unusable.
func (c *Client) DecodeError(format string, args ...any) error {
	return c.fail(errs.KindDecode, 0, fmt.Sprintf(format, args...))
}

func (c *Client) fail(kind errs.ProviderKind, status int, msg string) error {
	return &errs.ProviderError{Provider: c.name, Kind: kind, Status: status, Message: msg}
}

// DataURI inlines binary media.
func DataURI(mime string, b []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}
