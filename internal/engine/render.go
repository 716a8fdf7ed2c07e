package engine

import (
	"log/slog"
	"time"

	"buildlog/internal/buildevent"
	"buildlog/internal/correlation"
	"buildlog/internal/logging"
)

const (
	tmplBuildStarted    = "Build started {BuildStartedTime}"
	tmplBuildFinished   = "Build Finished: {BuildFinishedMessage}"
	tmplProjectStarted  = "Project {ProjectFile} started ({ProjectTargets})"
	tmplProjectInvoked  = "{CallerProject} is building {ProjectFile} ({ProjectTargets})"
	tmplProjectFinished = "Project finished: {ProjectFinishedMessage}"
	tmplTargetStarted   = "Target {TargetName} started in {TargetFile}"
	tmplTargetFinished  = "Target finished: {TargetFinishedMessage}"
	tmplTaskStarted     = "Task {TaskName} started"
	tmplTaskFinished    = "Task finished: {TaskFinishedMessage}"
	tmplError           = "{ErrorMessage}"
	tmplWarning         = "{WarningMessage}"
	tmplMessage         = "{BuildMessage}"
	tmplCustom          = "{CustomMessage}"
)

const (
	levelBuild   = slog.LevelInfo
	levelProject = slog.LevelInfo
	levelTarget  = logging.LevelNormal
	levelTask    = slog.LevelDebug
)

// record is one emission: everything the Emitter needs, nothing it has to
// look up.
type record struct {
	level    slog.Level
	template string
	args     []any
	tags     []logging.Attr
}

// deferred is a record-producing event held until the root project is known,
// together with the ancestry it was raised under.
type deferred struct {
	event buildevent.Event
	tags  correlation.Tags
	extra []logging.Attr
}

func withContext(bc buildContext, tags correlation.Tags, extra ...logging.Attr) []logging.Attr {
	out := bc.attrs()
	out = append(out, tagAttrs(tags)...)
	return append(out, extra...)
}

// tagAttrs returns only the filled ancestor slots.
func tagAttrs(t correlation.Tags) []logging.Attr {
	var out []logging.Attr
	if t.ProjectPath != "" {
		out = append(out, logging.String(logging.FieldProjectPath, t.ProjectPath))
	}
	if t.TargetName != "" {
		out = append(out, logging.String(logging.FieldTargetName, t.TargetName))
	}
	if t.TaskName != "" {
		out = append(out, logging.String(logging.FieldTaskName, t.TaskName))
	}
	return out
}

func pairsAttr(key string, pairs map[string]string) []logging.Attr {
	if len(pairs) == 0 {
		return nil
	}
	return []logging.Attr{logging.Any(key, pairs)}
}

func diagnosticAttrs(d buildevent.Diagnostic) []logging.Attr {
	var out []logging.Attr
	if d.Code != "" {
		out = append(out, logging.String(logging.FieldCode, d.Code))
	}
	if d.File != "" {
		out = append(out, logging.String(logging.FieldFile, d.File))
	}
	if d.Line > 0 {
		out = append(out, logging.Int(logging.FieldLineNumber, d.Line))
	}
	if d.Column > 0 {
		out = append(out, logging.Int(logging.FieldColumnNumber, d.Column))
	}
	return out
}

func targetsArg(names []string) any {
	if len(names) == 0 {
		return "default targets"
	}
	return append([]string(nil), names...)
}

func importanceLevel(i buildevent.Importance) slog.Level {
	switch i {
	case buildevent.ImportanceHigh:
		return slog.LevelInfo
	case buildevent.ImportanceLow:
		return slog.LevelDebug
	default:
		return logging.LevelNormal
	}
}

func renderBuildStarted(ev buildevent.BuildStarted, bc buildContext, env []logging.Attr) record {
	return record{
		level:    levelBuild,
		template: tmplBuildStarted,
		args:     []any{ev.Timestamp},
		tags:     withContext(bc, correlation.Tags{}, env...),
	}
}

func renderBuildFinished(ev buildevent.BuildFinished, bc buildContext, warnings, errs int, elapsed time.Duration) record {
	return record{
		level:    levelBuild,
		template: tmplBuildFinished,
		args:     []any{ev.Message},
		tags: withContext(bc, correlation.Tags{},
			logging.Int(logging.FieldWarnings, warnings),
			logging.Int(logging.FieldErrors, errs),
			logging.Duration(logging.FieldTimeElapsed, elapsed),
		),
	}
}

func renderProjectStarted(ev buildevent.ProjectStarted, bc buildContext, caller string, tags correlation.Tags, props []logging.Attr) record {
	rec := record{
		level:    levelProject,
		template: tmplProjectStarted,
		args:     []any{ev.ProjectFile, targetsArg(ev.TargetNames)},
		tags:     withContext(bc, tags, props...),
	}
	if caller != "" {
		rec.template = tmplProjectInvoked
		rec.args = append([]any{caller}, rec.args...)
	}
	return rec
}

func renderProjectFinished(ev buildevent.ProjectFinished, bc buildContext, tags correlation.Tags) record {
	return record{level: levelProject, template: tmplProjectFinished, args: []any{ev.Message}, tags: withContext(bc, tags)}
}

func renderTargetStarted(ev buildevent.TargetStarted, bc buildContext, tags correlation.Tags) record {
	return record{level: levelTarget, template: tmplTargetStarted, args: []any{ev.TargetName, ev.TargetFile}, tags: withContext(bc, tags)}
}

func renderTargetFinished(ev buildevent.TargetFinished, bc buildContext, tags correlation.Tags) record {
	var extra []logging.Attr
	if len(ev.Outputs) > 0 {
		extra = append(extra, logging.Any(logging.FieldTargetOutputItems, append([]string(nil), ev.Outputs...)))
	}
	return record{level: levelTarget, template: tmplTargetFinished, args: []any{ev.Message}, tags: withContext(bc, tags, extra...)}
}

func renderTaskStarted(ev buildevent.TaskStarted, bc buildContext, tags correlation.Tags) record {
	return record{level: levelTask, template: tmplTaskStarted, args: []any{ev.TaskName}, tags: withContext(bc, tags)}
}

func renderTaskFinished(ev buildevent.TaskFinished, bc buildContext, tags correlation.Tags) record {
	return record{level: levelTask, template: tmplTaskFinished, args: []any{ev.Message}, tags: withContext(bc, tags)}
}

// renderRaised covers the four events that never touch the stack.
func renderRaised(ev buildevent.Event, bc buildContext, tags correlation.Tags) record {
	switch e := ev.(type) {
	case buildevent.ErrorRaised:
		return record{level: slog.LevelError, template: tmplError, args: []any{e.Message}, tags: withContext(bc, tags, diagnosticAttrs(e.Diagnostic)...)}
	case buildevent.WarningRaised:
		return record{level: slog.LevelWarn, template: tmplWarning, args: []any{e.Message}, tags: withContext(bc, tags, diagnosticAttrs(e.Diagnostic)...)}
	case buildevent.MessageRaised:
		return record{level: importanceLevel(e.Importance), template: tmplMessage, args: []any{e.Message}, tags: withContext(bc, tags)}
	case buildevent.CustomRaised:
		return record{level: slog.LevelInfo, template: tmplCustom, args: []any{e.Message}, tags: withContext(bc, tags)}
	default:
		return record{level: slog.LevelInfo, template: tmplCustom, args: []any{string(ev.EventType())}, tags: withContext(bc, tags)}
	}
}

// renderDeferred renders a buffered event once the build context is known.
func renderDeferred(d deferred, bc buildContext) record {
	if ev, ok := d.event.(buildevent.BuildStarted); ok {
		return renderBuildStarted(ev, bc, d.extra)
	}
	return renderRaised(d.event, bc, d.tags)
}
