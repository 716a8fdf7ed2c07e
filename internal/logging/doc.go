// Package logging assembles the slog pipeline that carries build records to
// the console and to log sinks.
//
// New wires a console or JSON handler to local outputs and, when a StreamHub
// is supplied, tees every record at or above the sink verbosity into the hub
// as a LogEvent. Sinks consume the hub: synchronously through AddSink or in
// batches through Fetch. Emitter renders message templates with positional
// arguments so build records keep both the rendered text and the template.
//
// The Field constants name the contextual tags attached to build records.
// Keep new tags here so the console handler and the sinks agree on keys.
package logging
