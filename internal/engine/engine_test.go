package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"buildlog/internal/buildevent"
	"buildlog/internal/correlation"
	"buildlog/internal/engine"
	"buildlog/internal/logging"
)

var buildStart = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type emitted struct {
	Level    slog.Level
	Template string
	Args     []any
	Tags     map[string]any
}

type recordingEmitter struct {
	records []emitted
}

func (r *recordingEmitter) Emit(_ context.Context, level slog.Level, template string, args []any, tags []logging.Attr) {
	m := make(map[string]any, len(tags))
	for _, tag := range tags {
		m[tag.Key] = tag.Value.Any()
	}
	r.records = append(r.records, emitted{Level: level, Template: template, Args: args, Tags: m})
}

func (r *recordingEmitter) last() emitted {
	return r.records[len(r.records)-1]
}

func at(offset time.Duration) buildevent.Header {
	return buildevent.Header{Timestamp: buildStart.Add(offset)}
}

func newEngine() (*engine.Engine, *recordingEmitter) {
	rec := &recordingEmitter{}
	return engine.New(rec), rec
}

// mustRun feeds events in order and fails the test on the first error.
func mustRun(t *testing.T, e *engine.Engine, events ...buildevent.Event) {
	t.Helper()
	ctx := context.Background()
	for _, ev := range events {
		if err := buildevent.Dispatch(ctx, e, ev); err != nil {
			t.Fatalf("%s: unexpected error: %v", ev.EventType(), err)
		}
	}
}

// ancestry drops BuildID so tests can compare only the resolver tags.
func ancestry(tags map[string]any) map[string]any {
	out := map[string]any{}
	for _, key := range []string{logging.FieldProjectPath, logging.FieldTargetName, logging.FieldTaskName} {
		if v, ok := tags[key]; ok {
			out[key] = v
		}
	}
	return out
}

func TestEndToEndScenario(t *testing.T) {
	e, rec := newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0)},
		buildevent.ProjectStarted{Header: at(time.Second), ProjectFile: "root.proj", TargetNames: []string{"Build"}, Properties: map[string]string{}},
		buildevent.TargetStarted{Header: at(2 * time.Second), TargetName: "Compile", TargetFile: "root.proj"},
		buildevent.ErrorRaised{Header: at(3 * time.Second), Message: "bad syntax"},
		buildevent.TargetFinished{Header: at(4 * time.Second), Message: "ok"},
		buildevent.ProjectFinished{Header: at(5 * time.Second), Message: "done"},
		buildevent.BuildFinished{Header: at(6 * time.Second), Message: "done"},
	)

	buildID := engine.BuildID("root.proj", buildStart)
	root := map[string]any{logging.FieldProjectPath: "root.proj"}
	compile := map[string]any{logging.FieldProjectPath: "root.proj", logging.FieldTargetName: "Compile"}

	type row struct {
		Template string
		Level    slog.Level
		Ancestry map[string]any
	}
	var got []row
	for _, r := range rec.records {
		if r.Tags[logging.FieldBuildID] != buildID {
			t.Fatalf("record %q missing BuildID %s: %v", r.Template, buildID, r.Tags)
		}
		got = append(got, row{Template: r.Template, Level: r.Level, Ancestry: ancestry(r.Tags)})
	}
	want := []row{
		{"Build started {BuildStartedTime}", slog.LevelInfo, map[string]any{}},
		{"Project {ProjectFile} started ({ProjectTargets})", slog.LevelInfo, root},
		{"Target {TargetName} started in {TargetFile}", logging.LevelNormal, compile},
		{"{ErrorMessage}", slog.LevelError, compile},
		{"Target finished: {TargetFinishedMessage}", logging.LevelNormal, compile},
		{"Project finished: {ProjectFinishedMessage}", slog.LevelInfo, root},
		{"Build Finished: {BuildFinishedMessage}", slog.LevelInfo, map[string]any{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	finish := rec.last()
	if finish.Tags[logging.FieldWarnings] != int64(0) || finish.Tags[logging.FieldErrors] != int64(1) {
		t.Fatalf("unexpected counters on build finish: %v", finish.Tags)
	}
	if finish.Tags[logging.FieldTimeElapsed] != 6*time.Second {
		t.Fatalf("unexpected elapsed: %v", finish.Tags[logging.FieldTimeElapsed])
	}
	if _, ok := rec.records[1].Tags[logging.FieldProperties]; ok {
		t.Fatal("empty properties must not be tagged")
	}
	if _, ok := rec.records[4].Tags[logging.FieldTargetOutputItems]; ok {
		t.Fatal("empty outputs must not be tagged")
	}

	sum := e.Summary()
	if sum.State != engine.StateFinished || sum.Depth != 0 || sum.Errors != 1 || sum.Projects != 1 || sum.Targets != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestResolverTagsAtEachDepth(t *testing.T) {
	e, rec := newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0)},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "A"},
		buildevent.TargetStarted{Header: at(0), TargetName: "T"},
		buildevent.TaskStarted{Header: at(0), TaskName: "X"},
		buildevent.MessageRaised{Header: at(0), Message: "inside task", Importance: buildevent.ImportanceHigh},
	)
	want := map[string]any{logging.FieldProjectPath: "A", logging.FieldTargetName: "T", logging.FieldTaskName: "X"}
	if diff := cmp.Diff(want, ancestry(rec.last().Tags)); diff != "" {
		t.Fatalf("task-level tags mismatch (-want +got):\n%s", diff)
	}

	mustRun(t, e,
		buildevent.TaskFinished{Header: at(0), Message: "ok"},
		buildevent.MessageRaised{Header: at(0), Message: "after task"},
	)
	want = map[string]any{logging.FieldProjectPath: "A", logging.FieldTargetName: "T"}
	if diff := cmp.Diff(want, ancestry(rec.last().Tags)); diff != "" {
		t.Fatalf("stale task tag (-want +got):\n%s", diff)
	}

	mustRun(t, e,
		buildevent.TargetFinished{Header: at(0)},
		buildevent.WarningRaised{Header: at(0), Message: "directly under project"},
	)
	want = map[string]any{logging.FieldProjectPath: "A"}
	if diff := cmp.Diff(want, ancestry(rec.last().Tags)); diff != "" {
		t.Fatalf("stale target tag (-want +got):\n%s", diff)
	}
}

func TestNestedProjectStopsResolverAtInnerProject(t *testing.T) {
	e, rec := newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0)},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "A", TargetNames: []string{"Build"}},
		buildevent.TargetStarted{Header: at(0), TargetName: "Build"},
		buildevent.TaskStarted{Header: at(0), TaskName: "MSBuild"},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "B"},
	)
	invoked := rec.last()
	if invoked.Template != "{CallerProject} is building {ProjectFile} ({ProjectTargets})" {
		t.Fatalf("unexpected nested project template %q", invoked.Template)
	}
	if diff := cmp.Diff([]any{"A", "B", "default targets"}, invoked.Args); diff != "" {
		t.Fatalf("nested project args mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{logging.FieldProjectPath: "B"}, ancestry(invoked.Tags)); diff != "" {
		t.Fatalf("nested project tags mismatch (-want +got):\n%s", diff)
	}
}

func TestCallerProjectIsDirectCallerAtEveryDepth(t *testing.T) {
	e, rec := newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0)},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "A"},
		buildevent.TargetStarted{Header: at(0), TargetName: "Build"},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "B"},
		buildevent.TargetStarted{Header: at(0), TargetName: "Restore"},
		buildevent.TaskStarted{Header: at(0), TaskName: "MSBuild"},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "C", TargetNames: []string{"Pack"}},
	)
	if diff := cmp.Diff([]any{"B", "C", []string{"Pack"}}, rec.last().Args); diff != "" {
		t.Fatalf("third-level caller mismatch (-want +got):\n%s", diff)
	}

	mustRun(t, e,
		buildevent.MessageRaised{Header: at(0), Message: "inside C", Importance: buildevent.ImportanceHigh},
	)
	if diff := cmp.Diff(map[string]any{logging.FieldProjectPath: "C"}, ancestry(rec.last().Tags)); diff != "" {
		t.Fatalf("record inside C tags mismatch (-want +got):\n%s", diff)
	}

	mustRun(t, e,
		buildevent.ProjectFinished{Header: at(0)},
		buildevent.TaskFinished{Header: at(0)},
		buildevent.TargetFinished{Header: at(0)},
		buildevent.ProjectFinished{Header: at(0)},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "D"},
	)
	if diff := cmp.Diff([]any{"A", "D", "default targets"}, rec.last().Args); diff != "" {
		t.Fatalf("sibling caller mismatch (-want +got):\n%s", diff)
	}
}

func TestRootProjectLatchFiresOnce(t *testing.T) {
	e, rec := newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0), Environment: map[string]string{"PATH": "/usr/bin"}},
		buildevent.WarningRaised{Header: at(0), Message: "early warning"},
	)
	if len(rec.records) != 0 {
		t.Fatalf("expected records to be held before the root project, got %d", len(rec.records))
	}

	mustRun(t, e,
		buildevent.ProjectStarted{Header: at(time.Second), ProjectFile: "A"},
		buildevent.ProjectStarted{Header: at(2 * time.Second), ProjectFile: "B"},
	)

	var templates []string
	for _, r := range rec.records {
		templates = append(templates, r.Template)
	}
	want := []string{
		"Build started {BuildStartedTime}",
		"{WarningMessage}",
		"Project {ProjectFile} started ({ProjectTargets})",
		"{CallerProject} is building {ProjectFile} ({ProjectTargets})",
	}
	if diff := cmp.Diff(want, templates); diff != "" {
		t.Fatalf("emission order mismatch (-want +got):\n%s", diff)
	}

	buildID := engine.BuildID("A", buildStart)
	for _, r := range rec.records {
		if r.Tags[logging.FieldBuildID] != buildID {
			t.Fatalf("record %q tagged with %v, want BuildID from root A", r.Template, r.Tags[logging.FieldBuildID])
		}
	}
	if diff := cmp.Diff(map[string]string{"PATH": "/usr/bin"}, rec.records[0].Tags[logging.FieldEnvironment]); diff != "" {
		t.Fatalf("environment tag mismatch (-want +got):\n%s", diff)
	}
	if e.Summary().Warnings != 1 {
		t.Fatalf("expected early warning to be counted, got %d", e.Summary().Warnings)
	}
}

func TestBuildIDIsDeterministic(t *testing.T) {
	a := engine.BuildID("root.proj", buildStart)
	if a != engine.BuildID("root.proj", buildStart.In(time.FixedZone("x", 3600))) {
		t.Fatal("expected the same instant to produce the same BuildID")
	}
	if a == engine.BuildID("root.proj", buildStart.Add(time.Nanosecond)) {
		t.Fatal("expected different start times to produce different BuildIDs")
	}
	if a == engine.BuildID("other.proj", buildStart) {
		t.Fatal("expected different root projects to produce different BuildIDs")
	}
}

func TestProjectFinishedOnEmptyStackFailsEngine(t *testing.T) {
	e, rec := newEngine()
	ctx := context.Background()
	mustRun(t, e, buildevent.BuildStarted{Header: at(0)})

	err := e.ProjectFinished(ctx, buildevent.ProjectFinished{Header: at(0)})
	if !errors.Is(err, correlation.ErrEmptyStack) || !errors.Is(err, correlation.ErrCorrelationViolation) {
		t.Fatalf("expected empty-stack violation, got %v", err)
	}
	if e.State() != engine.StateFailed {
		t.Fatalf("expected failed state, got %s", e.State())
	}

	err = e.ProjectStarted(ctx, buildevent.ProjectStarted{Header: at(0), ProjectFile: "A"})
	if !errors.Is(err, engine.ErrEngineFailed) || !errors.Is(err, correlation.ErrEmptyStack) {
		t.Fatalf("expected later calls to report the original failure, got %v", err)
	}
	if len(rec.records) != 0 {
		t.Fatalf("expected nothing emitted after failure, got %d records", len(rec.records))
	}
}

func TestFinishKindMismatch(t *testing.T) {
	e, _ := newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0)},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "A"},
		buildevent.TargetStarted{Header: at(0), TargetName: "T"},
	)

	err := e.TaskFinished(context.Background(), buildevent.TaskFinished{Header: at(0)})
	var violation *correlation.ViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected ViolationError, got %v", err)
	}
	if violation.Want != correlation.KindTask || violation.Got != correlation.KindTarget || violation.Frame != "T" {
		t.Fatalf("unexpected violation: %+v", violation)
	}
	if !errors.Is(e.Err(), correlation.ErrCorrelationViolation) {
		t.Fatalf("expected Err to report the violation, got %v", e.Err())
	}
}

func TestBuildFinishedWithOpenScopes(t *testing.T) {
	e, rec := newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0)},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "A"},
		buildevent.TargetStarted{Header: at(0), TargetName: "T"},
	)

	err := e.BuildFinished(context.Background(), buildevent.BuildFinished{Header: at(time.Minute), Message: "aborted"})
	var unclosed *correlation.UnclosedError
	if !errors.As(err, &unclosed) {
		t.Fatalf("expected UnclosedError, got %v", err)
	}
	if diff := cmp.Diff([]string{"project:A", "target:T"}, unclosed.Open); diff != "" {
		t.Fatalf("open scopes mismatch (-want +got):\n%s", diff)
	}
	if rec.last().Template != "Build Finished: {BuildFinishedMessage}" {
		t.Fatalf("expected the finish record before the violation, got %q", rec.last().Template)
	}
}

func TestEventsOutsideRunningBuild(t *testing.T) {
	e, _ := newEngine()
	err := e.MessageRaised(context.Background(), buildevent.MessageRaised{Header: at(0), Message: "too early"})
	if !errors.Is(err, engine.ErrOutOfOrder) || !errors.Is(err, correlation.ErrCorrelationViolation) {
		t.Fatalf("expected out-of-order violation, got %v", err)
	}

	e, _ = newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0)},
		buildevent.BuildFinished{Header: at(time.Second)},
	)
	if err := e.BuildStarted(context.Background(), buildevent.BuildStarted{Header: at(0)}); !errors.Is(err, engine.ErrOutOfOrder) {
		t.Fatalf("expected second BuildStarted to be rejected, got %v", err)
	}
}

func TestBuildFinishedWithoutProjectsFlushesBuffer(t *testing.T) {
	e, rec := newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0)},
		buildevent.ErrorRaised{Header: at(0), Message: "MSB1009: project file does not exist"},
		buildevent.BuildFinished{Header: at(time.Second), Message: "failed"},
	)

	if len(rec.records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(rec.records))
	}
	for _, r := range rec.records {
		if _, ok := r.Tags[logging.FieldBuildID]; ok {
			t.Fatalf("expected no BuildID without a root project, got %v", r.Tags)
		}
	}
	if rec.last().Tags[logging.FieldErrors] != int64(1) {
		t.Fatalf("expected error count on finish, got %v", rec.last().Tags)
	}
}

func TestMalformedPropertiesAreSkipped(t *testing.T) {
	e, rec := newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0), Environment: []string{"PATH=/usr/bin"}},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "A", Properties: map[string]any{
			"Configuration": "Release",
			"Nested":        map[string]any{"x": 1},
		}},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "B", Properties: map[string]any{
			"Configuration": "Debug",
			"Optimize":      false,
			"WarningLevel":  4,
		}},
	)

	if _, ok := rec.records[0].Tags[logging.FieldEnvironment]; ok {
		t.Fatal("expected malformed environment to be skipped")
	}
	if _, ok := rec.records[1].Tags[logging.FieldProperties]; ok {
		t.Fatal("expected nested property values to be skipped")
	}
	want := map[string]string{"Configuration": "Debug", "Optimize": "false", "WarningLevel": "4"}
	if diff := cmp.Diff(want, rec.records[2].Tags[logging.FieldProperties]); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
}

func TestLevelsAndDiagnosticTags(t *testing.T) {
	e, rec := newEngine()
	mustRun(t, e,
		buildevent.BuildStarted{Header: at(0)},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "A"},
		buildevent.TaskStarted{Header: at(0), TaskName: "Csc"},
	)
	if rec.last().Level != slog.LevelDebug {
		t.Fatalf("expected task records at debug, got %v", rec.last().Level)
	}

	mustRun(t, e, buildevent.WarningRaised{
		Header:     at(0),
		Diagnostic: buildevent.Diagnostic{Code: "CS0618", File: "Program.cs", Line: 12, Column: 5},
		Message:    "obsolete",
	})
	warning := rec.last()
	if warning.Level != slog.LevelWarn {
		t.Fatalf("expected warning level, got %v", warning.Level)
	}
	wantDiag := map[string]any{
		logging.FieldCode:         "CS0618",
		logging.FieldFile:         "Program.cs",
		logging.FieldLineNumber:   int64(12),
		logging.FieldColumnNumber: int64(5),
	}
	for key, want := range wantDiag {
		if warning.Tags[key] != want {
			t.Fatalf("tag %s = %#v, want %#v", key, warning.Tags[key], want)
		}
	}

	levels := map[buildevent.Importance]slog.Level{
		buildevent.ImportanceHigh:   slog.LevelInfo,
		buildevent.ImportanceNormal: logging.LevelNormal,
		buildevent.ImportanceLow:    slog.LevelDebug,
	}
	for importance, want := range levels {
		mustRun(t, e, buildevent.MessageRaised{Header: at(0), Message: "m", Importance: importance})
		if got := rec.last().Level; got != want {
			t.Fatalf("importance %s: level %v, want %v", importance, got, want)
		}
	}

	mustRun(t, e, buildevent.TaskFinished{Header: at(0)}, buildevent.TargetStarted{Header: at(0), TargetName: "Pack"})
	mustRun(t, e, buildevent.TargetFinished{Header: at(0), Outputs: []string{"bin/app.nupkg"}})
	if diff := cmp.Diff([]string{"bin/app.nupkg"}, rec.last().Tags[logging.FieldTargetOutputItems]); diff != "" {
		t.Fatalf("output items mismatch (-want +got):\n%s", diff)
	}
}

func TestStackReturnsToZeroAtBuildFinished(t *testing.T) {
	e, _ := newEngine()
	events := []buildevent.Event{
		buildevent.BuildStarted{Header: at(0)},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "A"},
		buildevent.TargetStarted{Header: at(0), TargetName: "Build"},
		buildevent.TaskStarted{Header: at(0), TaskName: "MSBuild"},
		buildevent.ProjectStarted{Header: at(0), ProjectFile: "B"},
		buildevent.TargetStarted{Header: at(0), TargetName: "Compile"},
		buildevent.TargetFinished{Header: at(0)},
		buildevent.ProjectFinished{Header: at(0)},
		buildevent.TaskFinished{Header: at(0)},
		buildevent.TargetFinished{Header: at(0)},
		buildevent.ProjectFinished{Header: at(0)},
	}
	mustRun(t, e, events...)
	if e.Depth() != 0 {
		t.Fatalf("expected empty stack before BuildFinished, got depth %d", e.Depth())
	}
	mustRun(t, e, buildevent.BuildFinished{Header: at(time.Second), Succeeded: true})
	if sum := e.Summary(); !sum.Succeeded || sum.Projects != 2 || sum.Tasks != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}
