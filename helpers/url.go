package helpers

import (
	"net/url"
	"strings"
)

// ResolveURL resolves href against base the way a browser resolves a link's href.
// An empty href stays empty; an unusable base leaves href untouched.
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil || base.Scheme == "" || base.Host == "" {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// ParseBaseURL parses target as an absolute http(s) URL, returning nil for anything else
func ParseBaseURL(target string) *url.URL {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil || u.Host == "" {
		return nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}
	return u
}
