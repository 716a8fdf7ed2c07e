// Package preflight provides readiness checks for the sinks and paths buildlog
// writes to.
//
// The CLI "buildlog check" command runs RunAll and prints one row per check.
// Each check is gated by its config setting; unconfigured sinks are skipped.
package preflight
