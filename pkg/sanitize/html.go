// Package sanitize cleans user supplied HTML before it is displayed.
package sanitize

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	PolicyUGC    = "ugc"
	PolicyStrict = "strict"
)

// Sanitizer trims and sanitizes HTML with a fixed policy. It is safe for
// concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

var defaultSanitizer = &Sanitizer{policy: bluemonday.UGCPolicy()}

// New returns a sanitizer for the named policy: "ugc" keeps common
// formatting and links, "strict" strips every tag. An empty name means "ugc".
func New(policy string) (*Sanitizer, error) {
	switch strings.ToLower(policy) {
	case "", PolicyUGC:
		return &Sanitizer{policy: bluemonday.UGCPolicy()}, nil
	case PolicyStrict:
		return &Sanitizer{policy: bluemonday.StrictPolicy()}, nil
	default:
		return nil, fmt.Errorf("unknown sanitizer policy %q", policy)
	}
}

// HTML trims surrounding whitespace from html and removes unsafe markup and
// script content.
func (s *Sanitizer) HTML(html string) string {
	return s.policy.Sanitize(strings.TrimSpace(html))
}

// SanitizeHTML is HTML with the default user-content policy.
func SanitizeHTML(html string) string {
	return defaultSanitizer.HTML(html)
}
