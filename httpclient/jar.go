package httpclient

import (
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// NewJar creates a cookie jar that respects public suffix boundaries, so a
// cookie set for api.example.com is never sent to another registrable
// domain.
func NewJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}
