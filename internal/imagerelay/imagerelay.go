// Package imagerelay fetches remote images server-side and returns them as
// base64 data URIs, so a renderer can embed a client logo that lives on
// another origin.
package imagerelay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"invoicer/internal/cache"
	"invoicer/internal/logger"
)

const (
	// DefaultContentType is used when the origin sends no Content-Type.
	DefaultContentType = "image/png"

	// DefaultMaxBytes caps the size of a relayed image.
	DefaultMaxBytes int64 = 5 << 20

	// DefaultCacheTTL is how long a fetched image is reused.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultCacheSize is how many fetched images are kept at once.
	DefaultCacheSize = 64
)

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid image url")

	// ErrFetchFailed is returned when the origin answers with a non-2xx status.
	ErrFetchFailed = errors.New("image fetch failed")

	// ErrImageTooLarge is returned when the body exceeds the size cap.
	ErrImageTooLarge = errors.New("image exceeds maximum size")

	// ErrInvalidDataURI is returned by DecodeDataURI for malformed input.
	ErrInvalidDataURI = errors.New("invalid data uri")
)

// Image is a relayed image. Only the base64 payload is stored; the data URL
// is built on demand.
type Image struct {
	Base64      string `json:"base64"`
	ContentType string `json:"contentType"`
}

// DataURL returns the image as a data URI.
func (img Image) DataURL() string {
	return "data:" + img.ContentType + ";base64," + img.Base64
}

// MarshalJSON adds the dataUrl field relay clients expect.
func (img Image) MarshalJSON() ([]byte, error) {
	type image Image
	return json.Marshal(struct {
		image
		DataURL string `json:"dataUrl"`
	}{image(img), img.DataURL()})
}

// Fetcher relays images over HTTP and caches the results.
type Fetcher struct {
	client   *http.Client
	cache    cache.Cache[string, Image]
	maxBytes int64
	log      zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithCache replaces the cache. A nil cache disables caching.
func WithCache(c cache.Cache[string, Image]) Option {
	return func(f *Fetcher) {
		if c == nil {
			c = cache.Noop[string, Image]{}
		}
		f.cache = c
	}
}

// WithMaxBytes changes the size cap.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

// NewFetcher returns a Fetcher with a 30s client, a cache of 64 images kept
// for 10 minutes and a 5 MiB cap.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		cache:    cache.NewExpiring[string, Image](DefaultCacheSize, DefaultCacheTTL),
		maxBytes: DefaultMaxBytes,
		log:      logger.WithComponent("imagerelay"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL and returns it base64 encoded.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	const op = "Fetch"

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Image{}, fmt.Errorf("%s: %q: %w", op, rawURL, ErrInvalidURL)
	}
	key := u.String()

	if img, ok := f.cache.Get(key); ok {
		f.log.Debug().Str("url", key).Msg("Image served from cache")
		return img, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return Image{}, fmt.Errorf("%s: failed to build request: %w", op, err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.log.Warn().Err(closeErr).Msg("Failed to close image response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Image{}, fmt.Errorf("%s: %s returned %d: %w", op, key, resp.StatusCode, ErrFetchFailed)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("%s: failed to read body: %w", op, err)
	}
	if int64(len(body)) > f.maxBytes {
		return Image{}, fmt.Errorf("%s: %s: %w", op, key, ErrImageTooLarge)
	}

	img := Image{
		Base64:      base64.StdEncoding.EncodeToString(body),
		ContentType: mediaType(resp.Header.Get("Content-Type")),
	}
	f.cache.Add(key, img)

	f.log.Info().
		Str("url", key).
		Str("content_type", img.ContentType).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Image relayed")

	return img, nil
}

// FetchDataURI downloads rawURL and returns it as a data URI.
func (f *Fetcher) FetchDataURI(ctx context.Context, rawURL string) (string, error) {
	img, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return img.DataURL(), nil
}

// DecodeDataURI splits a base64 data URI into its media type and bytes.
func DecodeDataURI(uri string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	meta, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return mediaType(meta), data, nil
}

func mediaType(header string) string {
	if header == "" {
		return DefaultContentType
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil || mt == "" {
		return DefaultContentType
	}
	return mt
}
