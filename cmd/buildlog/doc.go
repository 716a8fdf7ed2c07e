// Package main hosts the buildlog CLI entrypoint and command graph.
//
// replay feeds a recorded build event stream through a fresh correlation
// engine; listen accepts live streams on a socket with one engine per
// connection. Both share the same pipeline: slog logger, stream hub, and the
// configured Seq and CLEF file sinks. check runs the preflight checks against
// the same configuration. Keep command code thin and push logic into the
// internal packages.
package main
