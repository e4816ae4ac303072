package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jo-hoe/logomigrator/internal/common"
	"github.com/jo-hoe/logomigrator/internal/imageprocessing"
)

const DefaultUserAgent = "Mozilla/5.0"

type Config struct {
	UserAgent      string `yaml:"userAgent"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" validate:"min=0"`
}

// Cache is the subset of the download cache used by the fetcher.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Store(ctx context.Context, key string, value []byte) error
}

// Source is a downloaded image whose content has been verified to be decodable.
type Source struct {
	URL      string
	Data     []byte
	MimeType string
	Format   string
	Width    int
	Height   int
}

type Fetcher struct {
	client    *http.Client
	userAgent string
	cache     Cache
}

// NewFetcher creates a fetcher. cache may be nil.
func NewFetcher(cfg Config, cache Cache) *Fetcher {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		userAgent: userAgent,
		cache:     cache,
	}
}

// Fetch downloads the image behind url. No retries are attempted.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Source, error) {
	if data, ok := f.fromCache(ctx, url); ok {
		slog.Debug("using cached download", "url", url, "bytes", len(data))
		return inspect(url, data)
	}

	data, err := f.download(ctx, url)
	if err != nil {
		return nil, err
	}

	source, err := inspect(url, data)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.Store(ctx, url, data); err != nil {
			slog.Warn("failed to cache download", "url", url, "error", err)
		}
	}
	return source, nil
}

func (f *Fetcher) fromCache(ctx context.Context, url string) ([]byte, bool) {
	if f.cache == nil {
		return nil, false
	}
	data, ok, err := f.cache.Get(ctx, url)
	if err != nil {
		slog.Warn("download cache lookup failed", "url", url, "error", err)
		return nil, false
	}
	return data, ok
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &common.NetworkError{Op: "fetch", URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &common.NetworkError{Op: "fetch", URL: url, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Debug("failed to close response body", "url", url, "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &common.NetworkError{Op: "fetch", URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.NetworkError{Op: "fetch", URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return data, nil
}

var errNotAnImage = errors.New("content is not an image")

// inspect verifies that data is an image the resize pipelines can decode.
func inspect(url string, data []byte) (*Source, error) {
	mtype := mimetype.Detect(data)
	source := &Source{URL: url, Data: data, MimeType: mtype.String()}

	if mtype.Is("image/svg+xml") || (isTextual(mtype) && imageprocessing.IsSVGData(data)) {
		source.MimeType = "image/svg+xml"
		source.Format = imageprocessing.FormatSVG
		return source, nil
	}

	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, &common.DecodeError{Source: url, Err: fmt.Errorf("%w: detected %s", errNotAnImage, mtype.String())}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &common.DecodeError{Source: url, Err: err}
	}
	source.Format = format
	source.Width = cfg.Width
	source.Height = cfg.Height
	return source, nil
}

// isTextual reports whether mimetype classified the data as plain text or XML,
// the only types an SVG document may be sniffed as. HTML pages are excluded.
func isTextual(mtype *mimetype.MIME) bool {
	if mtype.Is("text/html") {
		return false
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") || m.Is("text/xml") {
			return true
		}
	}
	return false
}
