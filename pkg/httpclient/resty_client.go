package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBodyBytes = 8 << 20 // 8 MiB
)

// ErrBodyTooLarge is returned when a response body exceeds Config.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// Config controls how the resty transport is built.
type Config struct {
	Timeout      time.Duration
	UserAgent    string
	CAFile       string
	CertFile     string
	KeyFile      string
	MaxBodyBytes int64
}

func (c Config) normalize() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	c.UserAgent = strings.TrimSpace(c.UserAgent)
	c.CAFile = strings.TrimSpace(c.CAFile)
	c.CertFile = strings.TrimSpace(c.CertFile)
	c.KeyFile = strings.TrimSpace(c.KeyFile)
	return c
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client       *resty.Client
	maxBodyBytes int64
}

// NewRestyClient builds a RestyClient. It fails only when the TLS layer cannot be initialized.
func NewRestyClient(cfg Config) (*RestyClient, error) {
	cfg = cfg.normalize()

	c := newRestyBaseClient(cfg.Timeout)
	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}

	tlsCfg, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		c.SetTLSClientConfig(tlsCfg)
	}

	return &RestyClient{client: c, maxBodyBytes: cfg.MaxBodyBytes}, nil
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// buildTLSConfig returns nil when the platform defaults are sufficient.
func buildTLSConfig(cfg Config) (*tls.Config, error) {
	if cfg.CAFile == "" && cfg.CertFile == "" && cfg.KeyFile == "" {
		return nil, nil
	}

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ca file %s contains no usable certificates", cfg.CAFile)
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.CertFile != "" || cfg.KeyFile != "" {
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			return nil, errors.New("client certificate requires both cert and key files")
		}
		pair, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{pair}
	}

	return tlsCfg, nil
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
// The body is read in full, up to the configured ceiling.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx).SetDoNotParseResponse(true)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}

	out := &bufferedResponse{status: resp.StatusCode(), header: resp.Header().Clone()}
	raw := resp.RawBody()
	if raw == nil {
		return out, nil
	}
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, r.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > r.maxBodyBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, r.maxBodyBytes)
	}
	out.body = body
	return out, nil
}

// bufferedResponse holds a fully read response.
type bufferedResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r *bufferedResponse) StatusCode() int           { return r.status }
func (r *bufferedResponse) Header(name string) string { return r.header.Get(name) }
func (r *bufferedResponse) Body() []byte              { return r.body }
