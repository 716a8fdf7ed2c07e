// Package correlation reconstructs build scope nesting from a flat stream of
// start/finish callbacks.
//
// A Stack holds the chain of currently open project, target and task frames.
// Resolve walks that chain once to find the ancestor identifiers a log record
// should carry, and Pending queues records produced before the root project
// is known. Nothing in this package performs I/O or locking; callers own one
// Stack and one Pending per build.
//
// Start/finish mismatches are reported as errors matching
// ErrCorrelationViolation. Once one is returned the state is no longer
// trustworthy and the owning engine should stop using it.
package correlation
