// Package httpsource implements a line source fetched over HTTP(S).
package httpsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/discochess/partsplit/internal/codec"
	"github.com/discochess/partsplit/internal/codec/gzipcodec"
	"github.com/discochess/partsplit/internal/codec/noopcodec"
	"github.com/discochess/partsplit/internal/codec/zstdcodec"
	"github.com/discochess/partsplit/internal/source"
)

// DefaultResponseHeaderTimeout is the default timeout for receiving response headers.
const DefaultResponseHeaderTimeout = 30 * time.Second

// Compile-time check that Source implements source.Source.
var _ source.Source = (*Source)(nil)

// Source issues a fresh GET for every Open.
type Source struct {
	url    string
	client *http.Client
	codec  codec.Codec
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) { s.client = client }
}

// WithCodec forces the codec used to decode the body.
func WithCodec(c codec.Codec) Option {
	return func(s *Source) { s.codec = c }
}

// New creates a source for rawURL. Bodies of URLs whose path ends in ".gz"
// or ".zst" are decompressed.
func New(rawURL string, opts ...Option) (*Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	s := &Source{
		url: rawURL,
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		codec: codec.Match(u.Path, noopcodec.New(), gzipcodec.New(), zstdcodec.New()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the last path element of the URL without any codec extension.
func (s *Source) Name() string {
	u, err := url.Parse(s.url)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "download"
	}
	return codec.TrimExtension(path.Base(u.Path), s.codec)
}

// URL returns the requested URL.
func (s *Source) URL() string {
	return s.url
}

// Open requests the URL and returns the (decoded) response body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", s.url, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", source.ErrNotFound, s.url)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	decoder, err := s.codec.Reader(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	return source.Chain(decoder, decoder, resp.Body), nil
}
