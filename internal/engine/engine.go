package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"buildlog/internal/buildevent"
	"buildlog/internal/correlation"
	"buildlog/internal/logging"
)

// Emitter delivers one record. It is a synchronous hand-off: the engine
// calls it exactly once per log-worthy event, in order.
type Emitter interface {
	Emit(ctx context.Context, level slog.Level, template string, args []any, tags []logging.Attr)
}

// Summary is a snapshot of the build-wide counters.
type Summary struct {
	State     State
	BuildID   string
	Started   time.Time
	Elapsed   time.Duration
	Succeeded bool
	Depth     int
	Projects  int
	Targets   int
	Tasks     int
	Warnings  int
	Errors    int
	Messages  int
	Err       error
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for the engine's own diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "engine")
	}
}

// WithClock replaces time.Now for events that arrive without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine correlates one build. It is not safe for concurrent use.
type Engine struct {
	emitter Emitter
	logger  *slog.Logger
	now     func() time.Time

	state   State
	failure error

	stack   *correlation.Stack
	pending correlation.Pending[deferred]
	rooted  bool
	build   buildContext

	started   time.Time
	elapsed   time.Duration
	succeeded bool
	projects  int
	targets   int
	tasks     int
	warnings  int
	errors    int
	messages  int
}

var _ buildevent.Handler = (*Engine)(nil)

// New returns an Engine in the NotStarted state.
func New(emitter Emitter, opts ...Option) *Engine {
	e := &Engine{
		emitter: emitter,
		logger:  logging.NewComponentLogger(nil, "engine"),
		now:     time.Now,
		stack:   correlation.NewStack(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Depth is the number of open scopes.
func (e *Engine) Depth() int { return e.stack.Depth() }

// Err returns the violation that failed the engine, if any.
func (e *Engine) Err() error { return e.failure }

// Summary returns the current counters.
func (e *Engine) Summary() Summary {
	return Summary{
		State:     e.state,
		BuildID:   e.build.buildID,
		Started:   e.started,
		Elapsed:   e.elapsed,
		Succeeded: e.succeeded,
		Depth:     e.stack.Depth(),
		Projects:  e.projects,
		Targets:   e.targets,
		Tasks:     e.tasks,
		Warnings:  e.warnings,
		Errors:    e.errors,
		Messages:  e.messages,
		Err:       e.failure,
	}
}

// check admits an event only while the build is running.
func (e *Engine) check(ev buildevent.Event) error {
	switch e.state {
	case StateRunning:
		return nil
	case StateFailed:
		return fmt.Errorf("%w: %w", ErrEngineFailed, e.failure)
	default:
		return e.fail(errOutOfOrder(ev, e.state))
	}
}

func errOutOfOrder(ev buildevent.Event, state State) error {
	return fmt.Errorf("%w: %s while %s", ErrOutOfOrder, ev.EventType(), state)
}

func (e *Engine) fail(err error) error {
	e.state = StateFailed
	e.failure = err
	e.logger.Error("correlation lost; engine stopped",
		logging.Error(err),
		logging.Int("depth", e.stack.Depth()),
		logging.Any("open", e.stack.Names()),
	)
	return err
}

func (e *Engine) emit(ctx context.Context, rec record) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(ctx, rec.level, rec.template, rec.args, rec.tags)
}

func (e *Engine) timestamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return e.now()
	}
	return ts
}

// pairs interprets a property collection, logging and dropping it when it is
// malformed.
func (e *Engine) pairs(key string, v any) []logging.Attr {
	pairs, err := stringPairs(v)
	if err != nil {
		e.logger.Debug("skipping malformed property collection", logging.String("tag", key), logging.Error(err))
		return nil
	}
	return pairsAttr(key, pairs)
}

// deferRecord queues a record raised before the root project is known. A
// closed buffer means the record can go out directly.
func (e *Engine) deferRecord(ctx context.Context, d deferred) {
	if err := e.pending.Add(d); err != nil {
		e.emit(ctx, renderDeferred(d, e.build))
	}
}

// flush renders every deferred record in insertion order with the current
// build context.
func (e *Engine) flush(ctx context.Context) {
	for _, d := range e.pending.Drain() {
		e.emit(ctx, renderDeferred(d, e.build))
	}
}
