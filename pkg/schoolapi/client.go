// Package schoolapi is a small resource-oriented JSON client for the school REST API.
package schoolapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-rollcall-api/pkg/config"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
	"github.com/noah-isme/sma-rollcall-api/pkg/middleware/requestid"
)

const maxErrorBody = 64 << 10

// Observer receives timing for every upstream call.
type Observer interface {
	ObserveUpstream(method, resource string, status int, duration time.Duration)
}

// Client issues JSON requests against the school API, forwarding the caller's bearer token.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// New builds a client from configuration.
func New(cfg config.SchoolAPIConfig, observer Observer, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewWithHTTPClient(cfg.BaseURL, &http.Client{Timeout: timeout}, observer, logger)
}

// NewWithHTTPClient allows injecting a preconfigured http.Client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, observer Observer, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		observer: observer,
		logger:   logger,
	}
}

type tokenKey struct{}

// WithToken attaches the caller's access token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token stored by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Get fetches resource into out.
func (c *Client) Get(ctx context.Context, resource string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, resource, query, nil, out)
}

// Post creates resource from body.
func (c *Client) Post(ctx context.Context, resource string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, resource, nil, body, out)
}

// Put replaces resource with body.
func (c *Client) Put(ctx context.Context, resource string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, resource, nil, body, out)
}

// Patch partially updates resource.
func (c *Client) Patch(ctx context.Context, resource string, body, out interface{}) error {
	return c.do(ctx, http.MethodPatch, resource, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, resource string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(resource, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, resource, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, resource, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set(requestid.HeaderKey, reqID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(method, resource, 0, duration)
		c.logger.Warn("school api unreachable", zap.String("method", method), zap.String("resource", resource), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "no se pudo contactar la API escolar")
	}
	defer resp.Body.Close()
	c.observe(method, resource, resp.StatusCode, duration)

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		appErr := appErrors.FromStatus(resp.StatusCode, errorMessage(raw))
		appErr.Err = fmt.Errorf("%s %s: status %d", method, resource, resp.StatusCode)
		c.logger.Debug("school api error", zap.String("method", method), zap.String("resource", resource), zap.Int("status", resp.StatusCode), zap.String("message", appErr.Message))
		return appErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "respuesta incompleta de la API escolar")
	}
	if err := decode(raw, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "respuesta inválida de la API escolar")
	}
	return nil
}

func (c *Client) observe(method, resource string, status int, duration time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(method, resourceLabel(resource), status, duration)
}

// decode accepts both bare payloads and {"data": ...} envelopes. Numbers are kept as
// json.Number so identifiers never lose precision.
func decode(raw []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if data, ok := envelope["data"]; ok {
				trimmed = data
			}
		}
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	return dec.Decode(out)
}

func errorMessage(raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	for _, key := range []string{"message", "mensaje", "error", "detail"} {
		switch v := body[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}:
			if msg, ok := v["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	return ""
}

// resourceLabel keeps metric cardinality bounded: "jornadas/15" becomes "jornadas/:id".
func resourceLabel(resource string) string {
	parts := strings.Split(strings.Trim(resource, "/"), "/")
	for i, part := range parts {
		if i > 0 && part != "" && strings.IndexFunc(part, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
