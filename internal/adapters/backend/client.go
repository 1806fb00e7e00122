package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
	"github.com/cargoconnect/gateway/internal/pkg/config"
	"github.com/cargoconnect/gateway/internal/pkg/metrics"
)

const maxErrorBody = 64 << 10

// Client talks to the Cargo Connect REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.Backend = (*Client)(nil)

// New creates a Client from configuration. Requests are traced through
// otelhttp.
func New(cfg config.BackendConfig) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed staging backends
	}
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}
}

// request describes one backend call.
type request struct {
	op            string
	method        string
	path          string
	authorization string
	json          any
	form          url.Values
}

// do sends r and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%s: %w: base url not configured", r.op, domain.ErrBackendUnavailable)
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.json != nil:
		buf, err := json.Marshal(r.json)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", r.op, err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.authorization != "" {
		req.Header.Set("Authorization", r.authorization)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackend(r.op, 0, start)
		return fmt.Errorf("%s: %w: %v", r.op, domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	metrics.ObserveBackend(r.op, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.BackendError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty response body", r.op)
		}
		return fmt.Errorf("%s: decode response: %w", r.op, err)
	}
	return nil
}

// errorBody covers the error shapes the backend produces: {"message": "..."}
// and FastAPI's {"detail": "..."} or {"detail": [{"loc": [...], "msg": "..."}]}.
type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Detail  json.RawMessage `json:"detail"`
}

type fieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func errorMessage(status int, raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if len(eb.Detail) > 0 {
			var s string
			if json.Unmarshal(eb.Detail, &s) == nil && s != "" {
				return s
			}
			var list []fieldError
			if json.Unmarshal(eb.Detail, &list) == nil && len(list) > 0 {
				parts := make([]string, 0, len(list))
				for _, fe := range list {
					loc := make([]string, 0, len(fe.Loc))
					for _, l := range fe.Loc {
						loc = append(loc, fmt.Sprint(l))
					}
					parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(loc, "/"), fe.Msg))
				}
				return strings.Join(parts, ", ")
			}
		}
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

// flexID accepts both string and numeric identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}
