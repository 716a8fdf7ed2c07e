// Package engine correlates build callbacks into tagged log records.
//
// An Engine consumes one build, from BuildStarted to BuildFinished, through
// the buildevent.Handler methods. It keeps a correlation.Stack of open
// projects, targets and tasks, resolves the ancestor tags for every record,
// and defers records raised before the root project is known until the
// BuildID can be derived. Records leave through an Emitter; the engine itself
// performs no I/O and takes no locks, so callers must deliver events from a
// single goroutine and use one Engine per build.
package engine
