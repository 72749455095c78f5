// Package httpclient es el cliente JSON compartido por los adapters salientes
// (webhook de notificaciones y directorio de clínicas).
package httpclient

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
	"time"
)

const (
	DefaultTimeout = 10 * time.Second

	maxBody = 1 << 20
)

type Options struct {
	// BaseURL es opcional; con BaseURL se aceptan paths relativos.
	BaseURL string
	Timeout time.Duration

	// Headers se mandan en cada request (p.ej. api key).
	Headers map[string]string

	// Transport para tests; nil => http.DefaultTransport.
	Transport http.RoundTripper
}

type Client struct {
	http    *http.Client
	baseURL string
	headers map[string]string
}

func New(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tr := opts.Transport
	if tr == nil {
		tr = http.DefaultTransport
	}

	base := strings.TrimSpace(opts.BaseURL)
	if base != "" {
		if _, err := url.ParseRequestURI(base); err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		base = strings.TrimRight(base, "/")
	}

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		headers[k] = v
	}

	return &Client{
		http:    &http.Client{Timeout: timeout, Transport: tr},
		baseURL: base,
		headers: headers,
	}, nil
}

// HTTPError es una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// StatusCode devuelve el status de un *HTTPError envuelto en err (0 si no hay).
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// DoJSON manda in como JSON (si no es nil) y decodifica la respuesta en out (si no es nil).
// Cualquier status fuera de 2xx vuelve como *HTTPError.
func (c *Client) DoJSON(ctx context.Context, method, pathOrURL string, in, out any) error {
	if c == nil || c.http == nil {
		return errors.New("httpclient: nil client")
	}

	fullURL, err := c.resolveURL(pathOrURL)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: marshal json: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("httpclient: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}
	return nil
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	pathOrURL = strings.TrimSpace(pathOrURL)
	if pathOrURL == "" {
		return "", errors.New("httpclient: empty url")
	}
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL, nil
	}
	if c.baseURL == "" {
		return "", errors.New("httpclient: relative path requires BaseURL")
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.baseURL + pathOrURL, nil
}
