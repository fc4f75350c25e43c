package download

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-cropper/pkg/types"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Image-Cropper/1.0 (+https://github.com/menta2k/image-cropper)"
	// DefaultMaxBytes caps the response body read into memory
	DefaultMaxBytes = 64 << 20
)

// Client is the default network image download capability
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// Option customizes a Client
type Option func(*Client)

// WithTimeout bounds a whole fetch, including reading the body
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxBytes limits the accepted response size
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		c.maxBytes = n
	}
}

// NewClient creates a download client with a 30s timeout
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseURL validates an image URL without touching the network
func ParseURL(rawURL string) (*url.URL, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", types.ErrInvalidInput, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported URL scheme %q (only http and https are supported)", types.ErrInvalidInput, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: URL %q has no host", types.ErrInvalidInput, rawURL)
	}
	return parsedURL, nil
}

// Fetch downloads and decodes the image at rawURL. It makes exactly one
// request; every network or decoding error wraps types.ErrDownloadFailure.
func (c *Client) Fetch(ctx context.Context, rawURL string) (image.Image, error) {
	parsedURL, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", types.ErrDownloadFailure, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDownloadFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %s", types.ErrDownloadFailure, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "application/octet-stream") {
		return nil, fmt.Errorf("%w: URL does not point to an image (Content-Type: %s)", types.ErrDownloadFailure, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image data: %v", types.ErrDownloadFailure, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: image is larger than %d bytes", types.ErrDownloadFailure, c.maxBytes)
	}

	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDownloadFailure, err)
	}
	return img, nil
}

// Decode decodes image bytes with the registered decoders and falls back to
// libwebp for WebP variants the pure Go decoder rejects.
func Decode(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}
