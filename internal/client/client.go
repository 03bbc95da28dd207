// Package client calls a remote action gateway over HTTP.
package client

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

	"github.com/danmuck/actionwire/internal/protocol/envelope"
	"github.com/danmuck/actionwire/internal/protocol/tlv"
	"github.com/danmuck/actionwire/internal/protocol/value"
	"github.com/google/uuid"
)

const (
	ContentType    = "application/x-actionwire"
	DefaultTimeout = 5 * time.Second

	actionsPath = "/v1/actions"
)

var (
	ErrEndpoint = errors.New("client: invalid endpoint")
	ErrStatus   = errors.New("client: unexpected http status")
)

// ActionInfo is one entry of the remote catalog. Schemas are JSON Schema
// documents kept raw.
type ActionInfo struct {
	ID          string          `json:"id"`
	Description string          `json:"description,omitempty"`
	Args        json.RawMessage `json:"args"`
	Result      json.RawMessage `json:"result"`
}

type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	limits tlv.Limits
}

type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLimits bounds response decoding.
func WithLimits(l tlv.Limits) Option {
	return func(c *Client) { c.limits = l }
}

func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(endpoint), "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrEndpoint, endpoint)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: DefaultTimeout},
		limits: tlv.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Call invokes action with args. A failure reported by the server is
// returned as *envelope.RemoteError.
func (c *Client) Call(ctx context.Context, action string, args value.Value) (value.Value, error) {
	raw, err := envelope.EncodeRequest(action, args)
	if err != nil {
		return value.Value{}, err
	}
	res, err := c.CallRaw(ctx, raw)
	if err != nil {
		return value.Value{}, err
	}
	if err := res.Err(); err != nil {
		return value.Value{}, err
	}
	return res.Value, nil
}

// CallRaw posts a pre-built request envelope and parses the response.
func (c *Client) CallRaw(ctx context.Context, raw []byte) (envelope.Result, error) {
	req, err := c.newRequest(ctx, http.MethodPost, actionsPath, bytes.NewReader(raw))
	if err != nil {
		return envelope.Result{}, err
	}
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("Accept", ContentType)

	body, err := c.do(req)
	if err != nil {
		return envelope.Result{}, err
	}
	return envelope.ParseResponse(body, c.limits)
}

// List fetches the remote catalog.
func (c *Client) List(ctx context.Context) ([]ActionInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, actionsPath, nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out struct {
		Actions []ActionInfo `json:"actions"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("client: decode catalog: %w", err)
	}
	return out.Actions, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := c.limits.MaxPayloadBytes
	if limit <= 0 {
		limit = tlv.DefaultLimits().MaxPayloadBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	return body, nil
}
