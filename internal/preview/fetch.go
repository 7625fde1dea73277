package preview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/findsboard/internal/apperror"
)

// HTTPPreviewer implements Previewer with a plain HTTP GET.
type HTTPPreviewer struct {
	client *http.Client
	config Config
	logger *slog.Logger
}

// New creates an HTTPPreviewer. A nil client means a fresh client with the
// configured timeout.
func New(cfg Config, client *http.Client, logger *slog.Logger) *HTTPPreviewer {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPPreviewer{client: client, config: cfg, logger: logger}
}

var _ Previewer = (*HTTPPreviewer)(nil)

// Preview fetches rawURL and extracts its metadata.
//
// Only absolute http and https URLs are accepted; anything else is a
// validation error. A fetch failure or a non-2xx answer is an upstream error.
func (p *HTTPPreviewer) Preview(ctx context.Context, rawURL string) (*Preview, error) {
	target, err := ParseHTTPURL(rawURL)
	if err != nil {
		return nil, err
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, apperror.ValidationFailed("url", "Invalid URL")
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperror.Upstream("could not fetch the page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperror.Upstream("could not fetch the page", fmt.Errorf("GET %s: status %d", target, resp.StatusCode))
	}

	body := io.Reader(resp.Body)
	if p.config.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, p.config.MaxBytes)
	}

	meta, err := extract(body)
	if err != nil {
		return nil, apperror.Upstream("could not read the page", err)
	}

	// Redirects change the base for relative image paths.
	base := target
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	preview := meta.preview(target.String(), base)
	p.logger.Debug("built url preview",
		slog.String("url", preview.URL),
		slog.Bool("hasTitle", preview.Title != ""),
		slog.Bool("hasImage", preview.ImageURL != ""),
	)
	return preview, nil
}

// ParseHTTPURL parses rawURL and requires an absolute http or https URL with a
// host.
func ParseHTTPURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, apperror.ValidationFailed("url", "URL is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperror.ValidationFailed("url", "Invalid URL")
	}
	return u, nil
}
