package preview

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// metadata is everything collected from one document before precedence is
// applied.
type metadata struct {
	title      string
	firstImage string
	tags       map[string]string
}

// extract walks the token stream once. It stops at </head> if a title and an
// image have already been seen, otherwise it keeps going for the first <img>.
func extract(r io.Reader) (*metadata, error) {
	m := &metadata{tags: make(map[string]string)}
	z := html.NewTokenizer(r)
	inTitle := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return m, nil
			}
			return m, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch atom.Lookup(name) {
			case atom.Title:
				inTitle = tt == html.StartTagToken
			case atom.Meta:
				if hasAttr {
					m.addMeta(attributes(z))
				}
			case atom.Img:
				if hasAttr && m.firstImage == "" {
					m.firstImage = attributes(z)["src"]
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Title:
				inTitle = false
			case atom.Head:
				if m.title != "" && m.image() != "" {
					return m, nil
				}
			}

		case html.TextToken:
			if inTitle && m.title == "" {
				m.title = strings.TrimSpace(string(z.Text()))
			}
		}
	}
}

func attributes(z *html.Tokenizer) map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		attrs[strings.ToLower(string(key))] = string(val)
		if !more {
			return attrs
		}
	}
}

// addMeta records <meta property=... content=...> and <meta name=...
// content=...>. The first occurrence of a key wins.
func (m *metadata) addMeta(attrs map[string]string) {
	content := strings.TrimSpace(attrs["content"])
	if content == "" {
		return
	}
	for _, key := range []string{attrs["property"], attrs["name"]} {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if _, seen := m.tags[key]; !seen {
			m.tags[key] = content
		}
	}
}

func (m *metadata) first(keys ...string) string {
	for _, k := range keys {
		if v := m.tags[k]; v != "" {
			return v
		}
	}
	return ""
}

func (m *metadata) image() string {
	if img := m.first("og:image", "og:image:url", "twitter:image", "twitter:image:src"); img != "" {
		return img
	}
	return m.firstImage
}

// preview applies precedence: Open Graph, then Twitter card, then plain HTML.
func (m *metadata) preview(pageURL string, base *url.URL) *Preview {
	title := m.first("og:title", "twitter:title")
	if title == "" {
		title = m.title
	}
	return &Preview{
		URL:         pageURL,
		Title:       title,
		Description: m.first("og:description", "twitter:description", "description"),
		ImageURL:    resolve(base, m.image()),
		SiteName:    m.first("og:site_name", "application-name"),
	}
}

// resolve makes ref absolute against base. Unparseable refs are dropped.
func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
