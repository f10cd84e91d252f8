package imgur

import (
	"context"
	"fmt"
	"strings"

	"github.com/samvad-hq/imgur-harvester/pkg/httpclient"
)

// DefaultBaseURL is the Imgur v3 API root.
const DefaultBaseURL = "https://api.imgur.com/3"

// Quota headers, logged for diagnostics only.
const (
	headerClientRemaining = "X-RateLimit-ClientRemaining"
	headerUserRemaining   = "X-RateLimit-UserRemaining"
)

// Client issues authenticated GET requests against the Imgur API.
type Client struct {
	transport httpclient.Client
	clientID  string
	baseURL   string
	log       Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for a stub server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.baseURL = u
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New builds a Client on a resty transport configured by cfg. It fails with
// KindConstruction when the credential is empty or the transport cannot be
// initialized.
func New(cfg httpclient.Config, clientID string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, newError(KindConstruction, "new", "", ErrMissingClientID)
	}

	transport, err := httpclient.NewRestyClient(cfg)
	if err != nil {
		return nil, newError(KindConstruction, "new", "", fmt.Errorf("init transport: %w", err))
	}
	return NewWithTransport(transport, clientID, opts...), nil
}

// NewWithTransport builds a Client on a transport the caller already owns.
func NewWithTransport(transport httpclient.Client, clientID string, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		clientID:  clientID,
		baseURL:   DefaultBaseURL,
		log:       noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Client-ID " + c.clientID,
		"Accept":        "application/json",
	}
}

// Fetch sends one GET to path (relative to the base URL) and decodes the
// envelope. The HTTP status code is recorded on errors but never decides
// the outcome; the shape of data does.
func Fetch[T any](ctx context.Context, c *Client, op, path string) (*Envelope[T], error) {
	if c == nil || c.transport == nil {
		return nil, newError(KindConstruction, op, "", fmt.Errorf("client is not initialized"))
	}

	url := c.baseURL + path
	resp, err := c.transport.Get(ctx, url, c.headers())
	if err != nil {
		c.log.DebugObj("imgur request failed", "imgur_transport_error", map[string]any{
			"op":    op,
			"url":   url,
			"error": err.Error(),
		})
		return nil, newError(KindTransport, op, url, err)
	}

	env, err := DecodeEnvelope[T](resp.Body())
	if err != nil {
		c.log.WarnObj("imgur response undecodable", "imgur_decode_error", map[string]any{
			"op":     op,
			"url":    url,
			"status": resp.StatusCode(),
			"error":  err.Error(),
		})
		e := newError(KindDecode, op, url, err)
		e.StatusCode = resp.StatusCode()
		return nil, e
	}
	env.op, env.url = op, url

	c.log.DebugObj("imgur request completed", "imgur_response", map[string]any{
		"op":                      op,
		"url":                     url,
		"status":                  resp.StatusCode(),
		"payload":                 env.Data.IsPayload(),
		"ratelimit_client_remain": resp.Header(headerClientRemaining),
		"ratelimit_user_remain":   resp.Header(headerUserRemaining),
	})
	return env, nil
}
