package nussbaum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	xsrfCookie = "XSRF-TOKEN"
	xsrfHeader = "X-XSRF-TOKEN"

	// DefaultTimeout bounds every outbound request.
	DefaultTimeout = 30 * time.Second
)

var (
	ErrForbidden = errors.New("nussbaum: forbidden")
	ErrNoToken   = errors.New("nussbaum: no XSRF token in response")
)

// HTTPError is a non-2xx answer from a controller.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Is lets errors.Is(err, ErrForbidden) match a 403 answer.
func (e *HTTPError) Is(target error) bool {
	return target == ErrForbidden && e.StatusCode == http.StatusForbidden
}

// RetryPolicy decides whether a failed call is attempted again after the token is refreshed.
type RetryPolicy struct {
	MaxAttempts int
	On          error
}

// DefaultRetryPolicy refreshes the token and retries exactly once on 403.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 2, On: ErrForbidden}

func (p RetryPolicy) retry(attempt int, err error) bool {
	return attempt < p.MaxAttempts && p.On != nil && errors.Is(err, p.On)
}

// TokenSource fetches and caches the XSRF token of each controller.
type TokenSource struct {
	client *http.Client

	mu     sync.Mutex
	tokens map[string]string
}

func NewTokenSource(client *http.Client) *TokenSource {
	return &TokenSource{client: client, tokens: make(map[string]string)}
}

// Token returns the cached token for host, fetching it on first use.
func (s *TokenSource) Token(ctx context.Context, host string) (string, error) {
	s.mu.Lock()
	tok, ok := s.tokens[host]
	s.mu.Unlock()
	if ok {
		return tok, nil
	}
	return s.Refresh(ctx, host)
}

// Refresh loads the controller home page and stores the token from its cookie.
func (s *TokenSource) Refresh(ctx context.Context, host string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+host+"/", nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch token from %s: %w", host, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	for _, c := range resp.Cookies() {
		if c.Name != xsrfCookie {
			continue
		}
		tok, err := url.PathUnescape(c.Value)
		if err != nil {
			tok = c.Value
		}
		s.mu.Lock()
		s.tokens[host] = tok
		s.mu.Unlock()
		return tok, nil
	}
	return "", fmt.Errorf("%w from %s", ErrNoToken, host)
}

// Transport performs token-authenticated calls against the controllers.
type Transport struct {
	client *http.Client
	tokens *TokenSource
	retry  RetryPolicy
}

func NewTransport(timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}
	return &Transport{client: client, tokens: NewTokenSource(client), retry: DefaultRetryPolicy}
}

// Get returns the decoded JSON body of path.
func (t *Transport) Get(ctx context.Context, host, path string) (any, error) {
	return t.do(ctx, host, http.MethodGet, path, nil)
}

// Post sends form as application/x-www-form-urlencoded. An empty answer decodes to nil.
func (t *Transport) Post(ctx context.Context, host, path string, form url.Values) (any, error) {
	return t.do(ctx, host, http.MethodPost, path, form)
}

func (t *Transport) do(ctx context.Context, host, method, path string, form url.Values) (any, error) {
	token, err := t.tokens.Token(ctx, host)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		body, err := t.send(ctx, host, method, path, form, token)
		if err == nil {
			return decodeJSON(body)
		}
		if !t.retry.retry(attempt, err) {
			return nil, err
		}
		if token, err = t.tokens.Refresh(ctx, host); err != nil {
			return nil, err
		}
	}
}

func (t *Transport) send(ctx context.Context, host, method, path string, form url.Values, token string) ([]byte, error) {
	u := "http://" + host + path
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(xsrfHeader, token)
	req.Header.Set("Cookie", xsrfCookie+"="+url.QueryEscape(token))
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: u}
	}
	return data, nil
}

func decodeJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode controller response: %w", err)
	}
	return v, nil
}
