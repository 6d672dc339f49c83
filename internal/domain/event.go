package domain

import "time"

// EventTimeFormat is the wire timestamp layout used on the progress stream.
const EventTimeFormat = "02-01-2006 15:04:05"

// Marker statuses emitted alongside per-recipient outcomes.
const (
	StatusBatchComplete = "batch_complete"
	StatusRunComplete   = "run_complete"
	StatusRunFailed     = "run_failed"
)

// ProgressEvent is one line on the run's ordered progress stream. Per-kind
// sent flags are tri-state: omitted when the kind was never attempted.
type ProgressEvent struct {
	Name        string `json:"name,omitempty"`
	Number      string `json:"number,omitempty"`
	Balance     *int   `json:"balance,omitempty"`
	Status      string `json:"status"`
	MessageSent *bool  `json:"message_sent,omitempty"`
	MediaSent   *bool  `json:"media_sent,omitempty"`
	PDFSent     *bool  `json:"pdf_sent,omitempty"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
}

// NewEvent stamps a progress event at the given time.
func NewEvent(status, message string, at time.Time) ProgressEvent {
	return ProgressEvent{
		Status:    status,
		Message:   message,
		Timestamp: at.Format(EventTimeFormat),
	}
}
