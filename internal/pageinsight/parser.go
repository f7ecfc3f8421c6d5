package pageinsight

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ParseResult holds everything extracted from a single-pass HTML parse.
type ParseResult struct {
	Title string
	// Resources are the absolute, deduplicated http(s) URLs of subresources
	// a browser would request while loading the page, in document order.
	Resources []string
}

// linkRels are <link rel> values that make a browser fetch the href.
var linkRels = map[string]bool{
	"stylesheet":       true,
	"icon":             true,
	"apple-touch-icon": true,
	"preload":          true,
	"modulepreload":    true,
	"manifest":         true,
}

// Parse performs a single-pass traversal of the HTML body, extracting the
// title and every subresource URL resolved against baseURL (or <base href>).
func Parse(body io.Reader, baseURL *url.URL) (*ParseResult, error) {
	result := &ParseResult{}
	seen := make(map[string]bool)

	z := html.NewTokenizer(body)
	var inTitle bool

	add := func(ref string) {
		if u, ok := resolve(ref, baseURL); ok && !seen[u] {
			seen[u] = true
			result.Resources = append(result.Resources, u)
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return result, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := z.TagName()
			tag := string(tn)
			if tag == "title" {
				inTitle = true
				continue
			}
			if !hasAttr {
				continue
			}

			attrs := readAttrs(z)
			switch tag {
			case "base":
				if u, err := url.Parse(attrs["href"]); err == nil && attrs["href"] != "" {
					baseURL = baseURL.ResolveReference(u)
				}
			case "script", "img", "iframe", "embed", "source", "audio", "track":
				add(attrs["src"])
			case "video":
				add(attrs["src"])
				add(attrs["poster"])
			case "link":
				for rel := range strings.FieldsSeq(strings.ToLower(attrs["rel"])) {
					if linkRels[rel] {
						add(attrs["href"])
						break
					}
				}
			}

		case html.TextToken:
			if inTitle {
				result.Title = strings.TrimSpace(string(z.Text()))
				inTitle = false
			}

		case html.EndTagToken:
			tn, _ := z.TagName()
			if string(tn) == "title" {
				inTitle = false
			}
		}
	}
}

func readAttrs(z *html.Tokenizer) map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		k := string(key)
		if _, dup := attrs[k]; !dup {
			attrs[k] = string(val)
		}
		if !more {
			return attrs
		}
	}
}

func resolve(ref string, baseURL *url.URL) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return "", false
	}

	resolved := baseURL.ResolveReference(parsed)

	// data:, blob:, javascript: and friends never hit the network.
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}

	resolved.Fragment = ""
	return resolved.String(), true
}
