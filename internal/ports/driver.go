package ports

import "context"

// OpenStatus is the driver's verdict on opening a conversation.
type OpenStatus int

const (
	// OpenReady means the conversation is open and ready for sends.
	OpenReady OpenStatus = iota
	// OpenInvalidNumber means the channel rejected the number. Terminal for
	// the recipient, not retryable.
	OpenInvalidNumber
)

// ChannelDriver abstracts the single exclusive messaging session the
// orchestrator drives. Only one conversation can be open at a time, so all
// calls for a run must be serialized by the caller.
//
// An error from OpenConversation means the driver itself is unreachable and
// aborts the whole run. Errors from SendText and SendFiles are recipient-local
// failures. Any UI-specific quirks (element discovery, transient retries) are
// the driver's responsibility.
type ChannelDriver interface {
	// OpenConversation opens (or switches to) the chat for the given number.
	OpenConversation(ctx context.Context, number string) (OpenStatus, error)

	// SendText delivers text into the open conversation and reports whether
	// the channel confirmed it.
	SendText(ctx context.Context, text string) (bool, error)

	// SendFiles attaches one or more files as a single action and reports
	// aggregate success.
	SendFiles(ctx context.Context, paths []string) (bool, error)

	// Reset releases the current channel session. Idempotent; must never
	// fail the caller.
	Reset(ctx context.Context)
}
