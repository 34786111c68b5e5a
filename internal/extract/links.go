package extract

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// hrefs returns every anchor href in document order.
func hrefs(page []byte) []string {
	var out []string
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if tok.DataAtom != atom.A {
			continue
		}
		for _, a := range tok.Attr {
			if a.Key == "href" {
				if v := strings.TrimSpace(a.Val); v != "" {
					out = append(out, v)
				}
				break
			}
		}
	}
}

// Resolve turns href into an absolute URL against base. Protocol-relative
// links ("//host/path") get https.
func Resolve(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	if ref.IsAbs() {
		return ref, true
	}
	if base == nil {
		return nil, false
	}
	return base.ResolveReference(ref), true
}

// PDFLink returns the first link to a .pdf file in page, preferring one
// that mentions "calendar".
func PDFLink(page []byte, base *url.URL) (*url.URL, bool) {
	var first string
	for _, h := range hrefs(page) {
		u, err := url.Parse(h)
		if err != nil || !strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
			continue
		}
		if strings.Contains(strings.ToLower(h), "calendar") {
			return Resolve(base, h)
		}
		if first == "" {
			first = h
		}
	}
	if first == "" {
		return nil, false
	}
	return Resolve(base, first)
}

// NewsLinks returns the distinct post links in page whose path lies under
// /news/, skipping alert posts and the /news index itself, in document
// order.
func NewsLinks(page []byte, base *url.URL) []*url.URL {
	var out []*url.URL
	seen := make(map[string]bool)
	for _, h := range hrefs(page) {
		u, ok := Resolve(base, h)
		if !ok {
			continue
		}
		path := strings.ToLower(u.Path)
		if !strings.Contains(path, "/news/") || strings.Contains(path, "alert") {
			continue
		}
		if strings.TrimSuffix(path, "/") == "/news" {
			continue
		}
		u.Fragment, u.RawFragment = "", ""
		if key := u.String(); !seen[key] {
			seen[key] = true
			out = append(out, u)
		}
	}
	return out
}
