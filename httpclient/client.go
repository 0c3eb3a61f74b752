package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/kbukum/sessionkit/errors"
)

// Request is one outbound call. Body is sent raw when it is []byte or string
// and JSON-encoded otherwise.
type Request struct {
	Method  string
	Path    string // relative to BaseURL unless absolute
	Headers map[string]string
	Query   map[string]string
	Body    any
}

// Response holds a fully read response body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func (r *Response) IsSuccess() bool { return r.StatusCode/100 == 2 }

// Decode unmarshals the JSON body into out. A blank body is not an error and
// leaves out unchanged.
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return errors.InvalidResponse("response body is not valid JSON", err)
	}
	return nil
}

// Client sends requests against one base URL.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client
}

type Option func(*Client)

// WithJar sets the cookie jar. Clients sharing a jar share session cookies.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) { c.http.Jar = jar }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
	if cfg.BaseURL != "" {
		c.base, _ = url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.cfg.BaseURL }

func (c *Client) Jar() http.CookieJar { return c.http.Jar }

// Do sends req and reads the whole body. For a non-2xx status both the
// response and its classified *errors.AppError are returned.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	hreq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	hresp, err := c.http.Do(hreq)
	if err != nil {
		return nil, transportError(ctx, req, hreq.URL.Host, err)
	}
	defer hresp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(hresp.Body, c.cfg.MaxBodySize))
	if err != nil {
		return nil, errors.ConnectionFailed(hreq.URL.Host, fmt.Errorf("read body: %w", err))
	}
	resp := &Response{StatusCode: hresp.StatusCode, Headers: hresp.Header, Body: body}
	return resp, ClassifyResponse(resp.StatusCode, body)
}

func transportError(ctx context.Context, req Request, host string, err error) error {
	var ne net.Error
	if ctx.Err() != nil || (stderrors.As(err, &ne) && ne.Timeout()) {
		return errors.Timeout(req.Method+" "+req.Path, err)
	}
	return errors.ConnectionFailed(host, err)
}

func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	if ref.IsAbs() || c.base == nil {
		return ref, nil
	}
	ref.Path = strings.TrimLeft(ref.Path, "/")
	return c.base.ResolveReference(ref), nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u, err := c.resolve(req.Path)
	if err != nil {
		return nil, errors.Validation(fmt.Sprintf("invalid path %q: %v", req.Path, err))
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch v := req.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(v)
	case string:
		body, contentType = strings.NewReader(v), "text/plain; charset=utf-8"
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Validation(fmt.Sprintf("encode body: %v", err))
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, errors.Validation(fmt.Sprintf("build request: %v", err))
	}
	h := hreq.Header
	h.Set("Accept", "application/json")
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	if c.cfg.UserAgent != "" {
		h.Set("User-Agent", c.cfg.UserAgent)
	}
	for k, v := range c.cfg.Headers {
		h.Set(k, v)
	}
	for k, v := range req.Headers {
		h.Set(k, v)
	}
	return hreq, nil
}
