package util

import (
	"net/http"
	"net/url"
	"regexp"
)

func GetClientIPAddress(r *http.Request) string {
	if forwardedIP := r.Header.Get("X-Forwarded-For"); forwardedIP != "" {
		return forwardedIP
	}
	return r.RemoteAddr
}

var webURLPattern = regexp.MustCompile(`^(https?://)?([a-zA-Z0-9.-]+)(:[0-9]+)?(/.*)?$`)

// IsWebURL reports whether input looks like an http(s) URL or a bare
// hostname that can become one. Scheme defaulting happens at the caller.
func IsWebURL(input string) bool {
	if input == "" {
		return false
	}

	if !webURLPattern.MatchString(input) {
		return false
	}

	u, err := url.Parse(input)
	if err != nil {
		return false
	}

	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return true
}
