package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dukerupert/walkin/internal/model"
)

const maxResponseBytes = 10 << 20

// Credentials is the session source the client reads bearer tokens from and
// clears on a 401. *store.CredentialStore satisfies it.
type Credentials interface {
	Get() (model.Session, error)
	Clear() error
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	AuthTimeout time.Duration
}

// Client talks to the backend REST API. It unwraps the response envelope,
// attaches the bearer token and classifies failures into *Error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authClient *http.Client
	creds      Credentials
	logger     *slog.Logger

	mu             sync.RWMutex
	onUnauthorized []func()
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the base transport under the logging and tracing
// layers.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = c.wrap(rt)
		c.authClient.Transport = c.httpClient.Transport
	}
}

// NewClient creates a client. Zero timeouts fall back to 10s for regular
// calls and 60s for auth calls.
func NewClient(cfg Config, creds Credentials, logger *slog.Logger, opts ...Option) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.AuthTimeout == 0 {
		cfg.AuthTimeout = 60 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		creds:   creds,
		logger:  logger.With("component", "api"),
	}
	transport := c.wrap(http.DefaultTransport)
	c.httpClient = &http.Client{Timeout: cfg.Timeout, Transport: transport}
	c.authClient = &http.Client{Timeout: cfg.AuthTimeout, Transport: transport}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) wrap(rt http.RoundTripper) http.RoundTripper {
	return otelhttp.NewTransport(&loggingTransport{next: rt, logger: c.logger})
}

// OnUnauthorized registers fn to run after a 401 has cleared the stored
// session. Hooks run in registration order on the calling goroutine.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

func (c *Client) expire() {
	if err := c.creds.Clear(); err != nil {
		c.logger.Error("clear credentials after 401", "error", err)
	}
	c.mu.RLock()
	hooks := append([]func(){}, c.onUnauthorized...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

// request describes one API call. public calls carry no bearer token and a
// 401 on them is a plain auth failure, not a session expiry. auth calls use
// the longer timeout.
type request struct {
	method      string
	path        string
	query       url.Values
	body        any
	raw         io.Reader
	contentType string
	public      bool
	auth        bool
}

type envelope struct {
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	StatusCode int             `json:"statusCode"`
	Field      string          `json:"field"`
	Detail     string          `json:"detail"`
	Error      string          `json:"error"`
}

func (e *envelope) message() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Detail != "":
		return e.Detail
	default:
		return e.Error
	}
}

// send performs r and returns the unwrapped data payload.
func (c *Client) send(ctx context.Context, r request) (json.RawMessage, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	body := r.raw
	contentType := r.contentType
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !r.public {
		sess, err := c.creds.Get()
		if err != nil {
			c.logger.Warn("read credentials", "error", err)
		} else if sess.Valid() {
			req.Header.Set("Authorization", "Bearer "+sess.AuthToken)
		}
	}

	hc := c.httpClient
	if r.auth {
		hc = c.authClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)
	wrapped := decodeErr == nil && (env.Success != nil || env.Data != nil)

	status := resp.StatusCode
	failed := status >= 400
	if !failed && wrapped && env.Success != nil && !*env.Success {
		failed = true
		status = env.StatusCode
	}
	if failed {
		kind := KindValidation
		if status >= 400 {
			kind = KindForStatus(status)
		}
		if kind == KindAuth && !r.public {
			c.expire()
		}
		return nil, &Error{Kind: kind, Status: status, Message: env.message(), Field: env.Field}
	}

	if wrapped {
		return env.Data, nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if decodeErr != nil && !json.Valid(data) {
		return nil, fmt.Errorf("decode %s %s: %w", r.method, r.path, decodeErr)
	}
	return data, nil
}

// do sends r and decodes its payload into out (which may be nil). When the
// payload is an object carrying one of keys, that member is decoded instead;
// the backend wraps some resources ({"user": {...}}) and not others.
func (c *Client) do(ctx context.Context, r request, out any, keys ...string) error {
	raw, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := decode(raw, out, keys...); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func decode(raw json.RawMessage, out any, keys ...string) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if len(keys) > 0 && raw[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			for _, k := range keys {
				if v, ok := obj[k]; ok {
					raw = v
					break
				}
			}
		}
	}
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
