// Package preview fetches a web page and extracts the metadata a link card
// needs: title, description, image and site name.
package preview

import (
	"context"
	"time"
)

// Preview is the metadata extracted from one page. Empty fields mean the page
// did not provide them.
type Preview struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	SiteName    string `json:"siteName"`
}

// Previewer builds a Preview for an absolute http(s) URL.
type Previewer interface {
	Preview(ctx context.Context, rawURL string) (*Preview, error)
}

// Config bounds the remote fetch.
type Config struct {
	// Timeout covers the whole request including reading the body.
	Timeout time.Duration
	// MaxBytes is how much of the body is parsed; metadata lives in <head>.
	MaxBytes int64
	// UserAgent is sent with the request. Some sites serve Open Graph tags
	// only to agents that look like link unfurlers.
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		Timeout:   10 * time.Second,
		MaxBytes:  1 << 20,
		UserAgent: "findsboard-preview/1.0 (+link unfurler)",
	}
}
