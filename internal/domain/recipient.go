package domain

import (
	"strconv"
	"strings"
)

// Recipient is one entry in the prepared send list. The list arrives already
// cleaned by the caller; this package only distinguishes usable numbers from
// placeholder ones.
type Recipient struct {
	Name            string
	Number          string
	MessageTemplate string
	Balance         *int
}

// HasNumber reports whether the recipient carries a usable number. Empty and
// all-zero values are placeholders written by the upstream list tooling.
func (r Recipient) HasNumber() bool {
	n := strings.TrimSpace(r.Number)
	if n == "" {
		return false
	}
	for _, c := range strings.TrimPrefix(n, "+") {
		if c != '0' {
			return true
		}
	}
	return false
}

// RenderTemplate substitutes the {name} and {balance} placeholders. Anything
// else in the template passes through untouched.
func RenderTemplate(tmpl, name string, balance *int) string {
	out := strings.ReplaceAll(tmpl, "{name}", name)
	if balance != nil {
		out = strings.ReplaceAll(out, "{balance}", strconv.Itoa(*balance))
	}
	return out
}

// ContentManifest holds the resolved absolute paths of the files attached to
// every recipient in a run. Shared read-only across the whole run.
type ContentManifest struct {
	MediaPaths    []string
	DocumentPaths []string
}

// Batch is one contiguous slice of the recipient list.
type Batch struct {
	Index      int
	Recipients []Recipient
}

// Size returns the number of recipients in the batch.
func (b Batch) Size() int { return len(b.Recipients) }
