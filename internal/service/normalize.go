package service

import (
	"errors"
	"fmt"
	"net/url"
	"siteauditor/internal/util"
	"strings"
)

// Sentinel errors the API layer maps to HTTP statuses with errors.Is.
var (
	ErrInvalidOrigin   = errors.New("invalid origin")
	ErrEmptyBatch      = errors.New("no valid origins in request")
	ErrHomeUnreachable = errors.New("home page unreachable")
)

// maxBatchSize bounds one request's audit fan-out.
const maxBatchSize = 10

// NormalizeOrigin reduces one user-supplied string to the origin under
// audit: scheme defaulted to https, path and query dropped.
func NormalizeOrigin(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidOrigin)
	}
	if !util.IsWebURL(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrigin, raw)
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrigin, raw)
	}

	origin := url.URL{Scheme: u.Scheme, Host: u.Host}
	return origin.String(), nil
}

type batchEntry struct {
	target string
	origin string
	err    error
}

// normalizeBatch validates every input, deduplicates valid origins by exact
// string equality keeping first-seen order, and truncates to maxBatchSize
// entries. Invalid inputs keep their slot so the caller can report them.
func normalizeBatch(inputs []string) []batchEntry {
	entries := make([]batchEntry, 0, len(inputs))
	seen := make(map[string]bool)

	for _, raw := range inputs {
		if len(entries) == maxBatchSize {
			break
		}
		origin, err := NormalizeOrigin(raw)
		if err != nil {
			entries = append(entries, batchEntry{target: raw, err: err})
			continue
		}
		if seen[origin] {
			continue
		}
		seen[origin] = true
		entries = append(entries, batchEntry{target: origin, origin: origin})
	}

	return entries
}
