package domain

import (
	"errors"
	"strings"
)

// ContentKind is one of the send actions attempted for a recipient.
type ContentKind string

const (
	KindMedia   ContentKind = "media"
	KindPDF     ContentKind = "pdf"
	KindMessage ContentKind = "message"
)

// SendOutcome records whether one content kind was attempted and whether the
// driver confirmed it.
type SendOutcome struct {
	Kind      ContentKind
	Attempted bool
	Succeeded bool
}

// CompositeStatus is the aggregated per-recipient result across all attempted
// content kinds.
type CompositeStatus string

const (
	StatusSuccess CompositeStatus = "success"
	StatusPartial CompositeStatus = "partial"
	StatusError   CompositeStatus = "error"
	StatusSkipped CompositeStatus = "skipped"
	StatusStopped CompositeStatus = "stopped"
)

// SkipReason narrows a skipped status. The reason is part of the event status
// string so stream consumers can tell the skip causes apart.
type SkipReason string

const (
	SkipNoNumber            SkipReason = "no number"
	SkipInvalidNumber       SkipReason = "invalid number"
	SkipInsufficientBalance SkipReason = "insufficient balance"
	SkipDuplicate           SkipReason = "duplicate"
)

// Status renders the reason-qualified status string, e.g. "skipped (duplicate)".
func (r SkipReason) Status() string {
	return string(StatusSkipped) + " (" + string(r) + ")"
}

// Aggregate folds per-kind outcomes into a composite status and a
// human-readable summary. Kinds that were never attempted do not count.
func Aggregate(outcomes []SendOutcome) (CompositeStatus, string) {
	var succeeded, failed []string
	for _, o := range outcomes {
		if !o.Attempted {
			continue
		}
		if o.Succeeded {
			succeeded = append(succeeded, string(o.Kind))
		} else {
			failed = append(failed, string(o.Kind))
		}
	}

	switch {
	case len(succeeded) == 0 && len(failed) == 0:
		return StatusSkipped, "nothing to send"
	case len(failed) == 0:
		return StatusSuccess, "all sends completed successfully"
	case len(succeeded) == 0:
		return StatusError, "all sends failed"
	default:
		return StatusPartial,
			strings.Join(succeeded, " and ") + " sent, but " + strings.Join(failed, " and ") + " failed"
	}
}

// Domain errors
var (
	ErrDriverUnavailable   = errors.New("channel driver unavailable")
	ErrRunActive           = errors.New("another run is already active")
	ErrAdminNumberRequired = errors.New("admin number is required")
	ErrNoRecipients        = errors.New("recipient list is empty")
	ErrContactListNotFound = errors.New("contact list not found")
)
