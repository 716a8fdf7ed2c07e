// Package sink delivers build records to their destinations.
//
// Seq reads a logging.StreamHub in the background and posts batches of
// CLEF (compact log event format) lines to a Seq-compatible server. File
// appends the same lines to a local file under an advisory lock so several
// buildlog processes can share it. Delivery failures are reported to the
// sink's own logger, which must not itself publish into the hub it drains.
package sink
