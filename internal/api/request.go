package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cbmooners/dashboard/internal/version"
)

var (
	// ErrProbeTimeout is returned by Probe when a candidate does not answer in time.
	ErrProbeTimeout = errors.New("health probe timed out")

	// ErrAllCandidatesExhausted is logged when no candidate confirms a retry.
	// Callers receive the original request error instead.
	ErrAllCandidatesExhausted = errors.New("all candidate hosts exhausted")
)

// NetworkError is a transport-level failure: refused, reset, DNS, timeout.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a response with a non-2xx status.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request %s: http %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// DecodeError is a 2xx response whose body is not valid JSON or does not
// match the requested shape.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode %s: invalid json", e.URL)
	}
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RequestOption customizes a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	method      string
	header      http.Header
	body        []byte
	contentType string
	encodeErr   error
}

// WithMethod sets the HTTP method. Default is GET.
func WithMethod(method string) RequestOption {
	return func(rc *requestConfig) {
		rc.method = method
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.header.Add(key, value)
	}
}

// WithBody sets the request body and its content type.
func WithBody(contentType string, body []byte) RequestOption {
	return func(rc *requestConfig) {
		rc.contentType = contentType
		rc.body = body
	}
}

// WithJSONBody marshals v as the request body.
// A marshal failure surfaces as a DecodeError from Fetch.
func WithJSONBody(v any) RequestOption {
	return func(rc *requestConfig) {
		b, err := json.Marshal(v)
		if err != nil {
			rc.encodeErr = err
			return
		}
		rc.contentType = "application/json"
		rc.body = b
	}
}

func newRequestConfig(opts []RequestOption) requestConfig {
	rc := requestConfig{method: http.MethodGet, header: make(http.Header)}
	for _, opt := range opts {
		opt(&rc)
	}
	return rc
}

// cacheable reports whether responses to this request may be served from
// the request cache. Only plain GETs are.
func (rc requestConfig) cacheable() bool {
	return rc.method == http.MethodGet && rc.body == nil
}

// Fetch returns the JSON body of endpointURL. A fresh cached body is
// returned without a network call. Network and HTTP failures start the
// fallback protocol; if no candidate confirms, the original error is
// returned. Decode failures are returned as is.
func (c *Client) Fetch(ctx context.Context, endpointURL string, opts ...RequestOption) (json.RawMessage, error) {
	rc := newRequestConfig(opts)
	if rc.encodeErr != nil {
		return nil, &DecodeError{URL: endpointURL, Err: rc.encodeErr}
	}

	now := c.now()
	if rc.cacheable() {
		if body, ok := c.cache.get(endpointURL, now); ok {
			c.logger.Debug("cache hit", "url", endpointURL)
			return body, nil
		}
	}

	body, err := c.do(ctx, endpointURL, rc)
	if err == nil {
		if rc.cacheable() {
			c.cache.put(endpointURL, body, now)
		}
		return body, nil
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, err
	}

	c.logger.Warn("request failed, probing candidates", "url", endpointURL, "error", err)

	body, fbErr := c.fallback(ctx, endpointURL, rc)
	if fbErr == nil {
		return body, nil
	}
	if errors.As(fbErr, &decodeErr) {
		return nil, fbErr
	}

	c.logger.Error("fallback failed", "url", endpointURL, "error", fbErr, "cause", err)
	return nil, err
}

// FetchInto fetches endpointURL and decodes the body into v.
func (c *Client) FetchInto(ctx context.Context, endpointURL string, v any, opts ...RequestOption) error {
	body, err := c.Fetch(ctx, endpointURL, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{URL: endpointURL, Err: err}
	}
	return nil
}

// do performs one bounded request. Relative URLs resolve against the page
// origin. Only 2xx with a valid JSON body succeeds.
func (c *Client) do(ctx context.Context, rawURL string, rc requestConfig) (json.RawMessage, error) {
	fullURL := c.resolve(rawURL)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if rc.body != nil {
		reqBody = bytes.NewReader(rc.body)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, fullURL, reqBody)
	if err != nil {
		return nil, &NetworkError{URL: fullURL, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if rc.contentType != "" {
		req.Header.Set("Content-Type", rc.contentType)
	}
	for k, vs := range rc.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: fullURL, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: fullURL, Body: body}
	}

	if !json.Valid(body) {
		return nil, &DecodeError{URL: fullURL}
	}

	return json.RawMessage(body), nil
}

func (c *Client) resolve(rawURL string) string {
	if strings.HasPrefix(rawURL, "/") {
		return c.pageOrigin + rawURL
	}
	return rawURL
}
