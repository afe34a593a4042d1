package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/frbtool/frbtool/internal/branding"
	"github.com/frbtool/frbtool/internal/logging"
)

// ErrNotFound is wrapped by TransportError when the store answers 404.
var ErrNotFound = errors.New("template not found")

// Fetcher returns the raw text of a named template.
type Fetcher interface {
	Fetch(ctx context.Context, templateName string) (string, error)
}

// TransportError reports a failed template retrieval.
type TransportError struct {
	Template   string
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching template %s from %s: status %d: %v", e.Template, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching template %s from %s: %v", e.Template, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPFetcher fetches templates with GET <origin>/<name>.
type HTTPFetcher struct {
	origin     string
	httpClient *http.Client
	timeout    time.Duration
	log        *logging.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.httpClient = c
	}
}

// WithOrigin sets the base URL templates are fetched from.
func WithOrigin(origin string) Option {
	return func(f *HTTPFetcher) {
		f.origin = strings.TrimRight(origin, "/")
	}
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithLogger sets the progress logger.
func WithLogger(l *logging.Logger) Option {
	return func(f *HTTPFetcher) {
		f.log = l
	}
}

// New creates an HTTPFetcher for the branded default origin.
func New(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		origin:     strings.TrimRight(branding.TemplateOrigin(), "/"),
		httpClient: http.DefaultClient,
		log:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the address a template name resolves to.
func (f *HTTPFetcher) URL(templateName string) string {
	return f.origin + "/" + templateName
}

// Fetch downloads the named template.
func (f *HTTPFetcher) Fetch(ctx context.Context, templateName string) (string, error) {
	url := f.URL(templateName)
	fail := func(status int, err error) error {
		return &TransportError{Template: templateName, URL: url, StatusCode: status, Err: err}
	}

	if strings.TrimSpace(templateName) == "" {
		return "", fail(0, errors.New("empty template name"))
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fail(0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", branding.CLIName()+"-fetcher")

	f.log.Info("downloading template", "url", url)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fail(resp.StatusCode, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fail(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fail(resp.StatusCode, fmt.Errorf("reading response body: %w", err))
	}
	if !utf8.Valid(body) {
		return "", fail(resp.StatusCode, fmt.Errorf("response body is not valid UTF-8"))
	}

	f.log.Success("template loaded", "template", templateName)
	return string(body), nil
}
