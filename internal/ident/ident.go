package ident

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Fallback is the identity used when no participant parameter is present.
const Fallback = "anon"

// Candidate query parameters, checked in order. Survey platforms differ in
// how they name the respondent id.
var paramNames = []string{"pid", "response_id", "ResponseID", "id"}

var unsafeRuns = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Resolve picks the participant identifier out of inbound query parameters.
// It returns the first non-empty candidate value, or Fallback when the
// parameter source is nil or carries none of them.
func Resolve(params url.Values) string {
	if params == nil {
		return Fallback
	}
	for _, name := range paramNames {
		if v := params.Get(name); v != "" {
			return v
		}
	}
	return Fallback
}

// Slug normalizes a pid into a filesystem-safe file name component:
// trimmed, lowercased, with runs outside [A-Za-z0-9._-] collapsed to "_".
// An input that normalizes to nothing gets a fresh anonymous identity.
// Slug is idempotent: applying it to its own output is a no-op.
func Slug(pid string) string {
	s := strings.ToLower(strings.TrimSpace(pid))
	s = unsafeRuns.ReplaceAllString(s, "_")
	if s == "" {
		return Fallback + "_" + uuid.New().String()[:8]
	}
	return s
}
