package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/storekit/pkg/buildinfo"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/httputil"
	"github.com/matzehuels/storekit/pkg/observability"
)

const (
	defaultTimeout = 15 * time.Second
	defaultLocale  = "sa"
	maxErrorBody   = 64 << 10
)

// Identity supplies the per-request caller identity. Implementations must
// be safe for concurrent use; the client reads them on every request.
type Identity interface {
	Token() string  // bearer token, "" when anonymous
	GuestID() int64 // guest id issued by the backend, 0 when unknown
	Locale() string // storefront locale ("ar", "en"), "" for default
}

// Anonymous is an Identity with no token, no guest id, and the default
// locale.
type Anonymous struct{}

func (Anonymous) Token() string  { return "" }
func (Anonymous) GuestID() int64 { return 0 }
func (Anonymous) Locale() string { return "" }

// Options configures a [Client].
type Options struct {
	// BaseURL is the API root, e.g. "https://shop.example.com/api".
	// A trailing slash is ignored.
	BaseURL string

	// Identity supplies token, guest id, and locale. Nil means [Anonymous].
	Identity Identity

	// HTTPClient overrides the transport. Nil uses a client with Timeout.
	HTTPClient *http.Client

	// Timeout bounds each request when HTTPClient is nil. Zero means 15s.
	Timeout time.Duration

	// Retry controls retries for idempotent requests. The zero value
	// selects [httputil.DefaultPolicy].
	Retry httputil.Policy

	// Logger receives debug-level request traces. Nil uses log.Default().
	Logger *log.Logger
}

// Client performs JSON requests against the storefront API.
// It is safe for concurrent use.
type Client struct {
	base     *url.URL
	http     *http.Client
	identity Identity
	retry    httputil.Policy
	logger   *log.Logger
	agent    string
}

// NewClient creates a Client. It returns an INVALID_CONFIG error when the
// base URL is missing or not absolute http(s).
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if err := skerrors.ValidateURL(raw); err != nil {
		return nil, skerrors.Wrap(skerrors.ErrCodeInvalidConfig, err, "api base %q", opts.BaseURL)
	}
	base, err := url.Parse(raw)
	if err != nil || base.Host == "" {
		return nil, skerrors.New(skerrors.ErrCodeInvalidConfig, "api base %q is not an absolute URL", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	id := opts.Identity
	if id == nil {
		id = Anonymous{}
	}
	policy := opts.Retry
	if policy.Attempts == 0 {
		policy = httputil.DefaultPolicy
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		base:     base,
		http:     hc,
		identity: id,
		retry:    policy,
		logger:   logger,
		agent:    buildinfo.UserAgent(),
	}, nil
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string { return c.base.String() }

// Get performs a GET and decodes the JSON response into v.
func (c *Client) Get(ctx context.Context, path string, query url.Values, v any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, v)
}

// Post performs a POST with a JSON body. POST is never retried.
func (c *Client) Post(ctx context.Context, path string, body, v any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, v)
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, v any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, v)
}

// Delete performs a DELETE. The backend reads parameters such as the cart
// key from the request body, so body may be non-nil.
func (c *Client) Delete(ctx context.Context, path string, body, v any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, body, v)
}

// Do performs a request and decodes a JSON response into v. A nil v
// discards the body. An empty response body leaves v untouched.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, v any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
	}

	policy := c.retry
	if method == http.MethodPost {
		policy = httputil.NoRetry
	}
	target := c.URL(path, query)

	return httputil.Retry(ctx, policy, func() error {
		return c.once(ctx, method, target, payload, v)
	})
}

// URL builds the absolute request URL for path, adding guest_id and locale
// to the query along with any caller-supplied parameters.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")

	q := url.Values{}
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	if gid := c.identity.GuestID(); gid != 0 {
		q.Set("guest_id", strconv.FormatInt(gid, 10))
	}
	q.Set("locale", BackendLocale(c.identity.Locale()))
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) once(ctx context.Context, method, target string, payload []byte, v any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	c.setHeaders(req, payload != nil)

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, req.URL.Host, req.URL.Path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &httputil.RetryableError{Err: fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, target, err)}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	hooks.OnResponse(ctx, method, req.URL.Host, req.URL.Path, resp.StatusCode, elapsed)
	c.logger.Debug("api request",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"),
		"elapsed", elapsed.Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(req, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &httputil.RetryableError{Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}
	if v == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.agent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("lang", BackendLocale(c.identity.Locale()))
	if tok := c.identity.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

func statusError(req *http.Request, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	he := &HTTPError{
		Method:  req.Method,
		URL:     req.URL.String(),
		Status:  resp.StatusCode,
		Message: extractMessage(body),
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &httputil.RetryableError{Err: he, After: retryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return &httputil.RetryableError{Err: he}
	default:
		return he
	}
}

func retryAfter(h string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// BackendLocale maps a storefront locale to the code the backend stores.
// Arabic is stored as "sa"; an empty locale defaults to "sa".
func BackendLocale(locale string) string {
	switch locale {
	case "":
		return defaultLocale
	case "ar":
		return "sa"
	default:
		return locale
	}
}
