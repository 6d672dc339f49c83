package ports

import (
	"context"

	"chatblast/internal/domain"
)

// EventSink receives the ordered progress events of one run. Emit is called
// sequentially; an error tells the orchestrator the consumer is gone and the
// run cannot usefully continue.
type EventSink interface {
	Emit(ctx context.Context, ev domain.ProgressEvent) error
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(ctx context.Context, ev domain.ProgressEvent) error

func (f EventSinkFunc) Emit(ctx context.Context, ev domain.ProgressEvent) error {
	return f(ctx, ev)
}
