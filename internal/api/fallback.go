package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cbmooners/dashboard/internal/version"
)

// Probe checks that base answers {base}/api/server-info with a 2xx within
// the probe timeout. The probe request is abandoned at the deadline.
func (c *Client) Probe(ctx context.Context, base string) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	probeURL := strings.TrimRight(base, "/") + serverInfoPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("probe %s: %w", base, ErrProbeTimeout)
		}
		return &NetworkError{URL: probeURL, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, URL: probeURL}
	}
	return nil
}

// fallback walks the candidates in order, one at a time. The first
// candidate that passes the probe gets a single retry of the request; the
// base switches only once that retry succeeds.
func (c *Client) fallback(ctx context.Context, endpointURL string, rc requestConfig) (json.RawMessage, error) {
	oldBase := c.BaseURL()
	path := rebasePath(endpointURL, oldBase)

	for _, candidate := range c.alternates(oldBase, c.resolve(endpointURL)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := c.Probe(ctx, candidate); err != nil {
			c.logger.Debug("candidate probe failed", "candidate", candidate, "error", err)
			continue
		}

		retryURL := candidate + path
		body, err := c.do(ctx, retryURL, rc)
		if err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				return nil, err
			}
			c.logger.Debug("candidate retry failed", "candidate", candidate, "error", err)
			continue
		}

		c.SetBaseURL(candidate)
		if rc.cacheable() {
			c.cache.put(retryURL, body, c.now())
		}
		return body, nil
	}

	return nil, ErrAllCandidatesExhausted
}

// alternates returns the candidates minus the active base and the origin
// the failed request went to.
func (c *Client) alternates(activeBase, failedURL string) []string {
	skip := map[string]bool{}
	if activeBase != "" {
		skip[strings.TrimRight(activeBase, "/")] = true
	}
	if o := originOf(failedURL); o != "" {
		skip[o] = true
	}

	out := make([]string, 0, len(c.candidates))
	seen := map[string]bool{}
	for _, cand := range c.candidates {
		cand = strings.TrimRight(cand, "/")
		if cand == "" || skip[cand] || seen[cand] {
			continue
		}
		seen[cand] = true
		out = append(out, cand)
	}
	return out
}

// rebasePath strips oldBase from endpointURL. URLs not under oldBase are
// parsed and reduced to path and query.
func rebasePath(endpointURL, oldBase string) string {
	if oldBase != "" && strings.HasPrefix(endpointURL, oldBase) {
		return endpointURL[len(oldBase):]
	}
	if strings.HasPrefix(endpointURL, "/") {
		return endpointURL
	}

	u, err := url.Parse(endpointURL)
	if err != nil {
		return endpointURL
	}
	p := u.EscapedPath()
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
