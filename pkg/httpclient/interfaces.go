// Package httpclient is the HTTP transport behind the Imgur client and the
// webhook publisher.
package httpclient

import "context"

// Response is a fully buffered HTTP response.
type Response interface {
	StatusCode() int
	// Header returns the first value of the named response header, or "".
	Header(name string) string
	Body() []byte
}

// Client performs GET requests. Implementations must read the whole body
// before returning and report an oversize body as an error.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
