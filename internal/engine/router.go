package engine

import (
	"context"

	"buildlog/internal/buildevent"
	"buildlog/internal/correlation"
	"buildlog/internal/logging"
)

// BuildStarted opens the build. Its record waits in the pending buffer until
// the root project supplies the BuildID.
func (e *Engine) BuildStarted(ctx context.Context, ev buildevent.BuildStarted) error {
	if e.state != StateNotStarted {
		if e.state == StateFailed {
			return e.check(ev)
		}
		return e.fail(errOutOfOrder(ev, e.state))
	}
	e.state = StateRunning
	ev.Timestamp = e.timestamp(ev.Timestamp)
	e.started = ev.Timestamp
	e.deferRecord(ctx, deferred{event: ev, extra: e.pairs(logging.FieldEnvironment, ev.Environment)})
	return nil
}

// BuildFinished emits the closing record with the counters. Open scopes at
// this point are reported after the record goes out.
func (e *Engine) BuildFinished(ctx context.Context, ev buildevent.BuildFinished) error {
	if err := e.check(ev); err != nil {
		return err
	}
	ev.Timestamp = e.timestamp(ev.Timestamp)
	e.elapsed = ev.Timestamp.Sub(e.started)
	e.succeeded = ev.Succeeded
	if !e.rooted {
		e.flush(ctx)
	}
	e.emit(ctx, renderBuildFinished(ev, e.build, e.warnings, e.errors, e.elapsed))
	e.state = StateFinished
	if e.stack.Depth() > 0 {
		return e.fail(&correlation.UnclosedError{Open: e.stack.Names()})
	}
	return nil
}

// ProjectStarted pushes a project. The first one is the root: it fixes the
// BuildID and releases the pending buffer ahead of its own record.
func (e *Engine) ProjectStarted(ctx context.Context, ev buildevent.ProjectStarted) error {
	if err := e.check(ev); err != nil {
		return err
	}
	var caller string
	if f, ok := e.stack.FindNearest(correlation.KindProject); ok {
		caller = f.Name()
	}
	e.stack.Push(correlation.KindProject, ev.ProjectFile)
	e.projects++

	if !e.rooted {
		e.rooted = true
		e.build = newBuildContext(ev.ProjectFile, e.started)
		e.flush(ctx)
	}
	props := e.pairs(logging.FieldProperties, ev.Properties)
	e.emit(ctx, renderProjectStarted(ev, e.build, caller, correlation.Resolve(e.stack), props))
	return nil
}

func (e *Engine) ProjectFinished(ctx context.Context, ev buildevent.ProjectFinished) error {
	if err := e.check(ev); err != nil {
		return err
	}
	tags := correlation.Resolve(e.stack)
	if _, err := e.stack.PopKind(correlation.KindProject); err != nil {
		return e.fail(err)
	}
	e.emit(ctx, renderProjectFinished(ev, e.build, tags))
	return nil
}

func (e *Engine) TargetStarted(ctx context.Context, ev buildevent.TargetStarted) error {
	if err := e.check(ev); err != nil {
		return err
	}
	e.stack.Push(correlation.KindTarget, ev.TargetName)
	e.targets++
	e.emit(ctx, renderTargetStarted(ev, e.build, correlation.Resolve(e.stack)))
	return nil
}

func (e *Engine) TargetFinished(ctx context.Context, ev buildevent.TargetFinished) error {
	if err := e.check(ev); err != nil {
		return err
	}
	tags := correlation.Resolve(e.stack)
	if _, err := e.stack.PopKind(correlation.KindTarget); err != nil {
		return e.fail(err)
	}
	e.emit(ctx, renderTargetFinished(ev, e.build, tags))
	return nil
}

func (e *Engine) TaskStarted(ctx context.Context, ev buildevent.TaskStarted) error {
	if err := e.check(ev); err != nil {
		return err
	}
	e.stack.Push(correlation.KindTask, ev.TaskName)
	e.tasks++
	e.emit(ctx, renderTaskStarted(ev, e.build, correlation.Resolve(e.stack)))
	return nil
}

func (e *Engine) TaskFinished(ctx context.Context, ev buildevent.TaskFinished) error {
	if err := e.check(ev); err != nil {
		return err
	}
	tags := correlation.Resolve(e.stack)
	if _, err := e.stack.PopKind(correlation.KindTask); err != nil {
		return e.fail(err)
	}
	e.emit(ctx, renderTaskFinished(ev, e.build, tags))
	return nil
}

func (e *Engine) ErrorRaised(ctx context.Context, ev buildevent.ErrorRaised) error {
	if err := e.check(ev); err != nil {
		return err
	}
	e.errors++
	e.raise(ctx, ev)
	return nil
}

func (e *Engine) WarningRaised(ctx context.Context, ev buildevent.WarningRaised) error {
	if err := e.check(ev); err != nil {
		return err
	}
	e.warnings++
	e.raise(ctx, ev)
	return nil
}

func (e *Engine) MessageRaised(ctx context.Context, ev buildevent.MessageRaised) error {
	if err := e.check(ev); err != nil {
		return err
	}
	e.messages++
	e.raise(ctx, ev)
	return nil
}

func (e *Engine) CustomRaised(ctx context.Context, ev buildevent.CustomRaised) error {
	if err := e.check(ev); err != nil {
		return err
	}
	e.messages++
	e.raise(ctx, ev)
	return nil
}

// raise emits a stack-neutral record, or defers it while the root project is
// still unknown.
func (e *Engine) raise(ctx context.Context, ev buildevent.Event) {
	tags := correlation.Resolve(e.stack)
	if !e.rooted {
		e.deferRecord(ctx, deferred{event: ev, tags: tags})
		return
	}
	e.emit(ctx, renderRaised(ev, e.build, tags))
}
