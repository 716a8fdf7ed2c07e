package buildevent

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Handler receives build callbacks in the order the build tool raised them.
// Implementations may assume no two callbacks run concurrently.
type Handler interface {
	BuildStarted(ctx context.Context, ev BuildStarted) error
	BuildFinished(ctx context.Context, ev BuildFinished) error
	ProjectStarted(ctx context.Context, ev ProjectStarted) error
	ProjectFinished(ctx context.Context, ev ProjectFinished) error
	TargetStarted(ctx context.Context, ev TargetStarted) error
	TargetFinished(ctx context.Context, ev TargetFinished) error
	TaskStarted(ctx context.Context, ev TaskStarted) error
	TaskFinished(ctx context.Context, ev TaskFinished) error
	ErrorRaised(ctx context.Context, ev ErrorRaised) error
	WarningRaised(ctx context.Context, ev WarningRaised) error
	MessageRaised(ctx context.Context, ev MessageRaised) error
	CustomRaised(ctx context.Context, ev CustomRaised) error
}

// Dispatch routes a single event to the matching Handler method.
func Dispatch(ctx context.Context, h Handler, ev Event) error {
	switch e := ev.(type) {
	case BuildStarted:
		return h.BuildStarted(ctx, e)
	case BuildFinished:
		return h.BuildFinished(ctx, e)
	case ProjectStarted:
		return h.ProjectStarted(ctx, e)
	case ProjectFinished:
		return h.ProjectFinished(ctx, e)
	case TargetStarted:
		return h.TargetStarted(ctx, e)
	case TargetFinished:
		return h.TargetFinished(ctx, e)
	case TaskStarted:
		return h.TaskStarted(ctx, e)
	case TaskFinished:
		return h.TaskFinished(ctx, e)
	case ErrorRaised:
		return h.ErrorRaised(ctx, e)
	case WarningRaised:
		return h.WarningRaised(ctx, e)
	case MessageRaised:
		return h.MessageRaised(ctx, e)
	case CustomRaised:
		return h.CustomRaised(ctx, e)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}

// Run drains src into h one event at a time. It stops at the first handler
// error, decode error or context cancellation and reports how many events
// were delivered.
func Run(ctx context.Context, src Source, h Handler) (int, error) {
	delivered := 0
	for {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			return delivered, nil
		}
		if err != nil {
			return delivered, err
		}
		if err := Dispatch(ctx, h, ev); err != nil {
			return delivered, fmt.Errorf("%s: %w", ev.EventType(), err)
		}
		delivered++
	}
}
