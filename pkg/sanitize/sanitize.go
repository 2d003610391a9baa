// Package sanitize cleans user supplied text before it is stored.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// UGC keeps safe formatting markup (links, emphasis, lists) and drops the rest.
func UGC(s string) string {
	return strings.TrimSpace(ugc.Sanitize(s))
}

// Plain strips every tag.
func Plain(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
