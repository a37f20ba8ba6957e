// Package log records protocol traffic of ISE sessions.
//
// A session reports every state change, channel line, raw transfer, plugin
// control command, frame negotiation and error as an Event to its Logger.
// This trace is kept apart from diagnostics (package diag): it is complete,
// machine readable and meant to be replayed with the iselog tool.
//
// Sinks:
//
//	fl, err := log.NewFileLogger("/var/log/iseio/ise0.ilog")
//	...
//	ise.WithProtocolLogger(log.NewMultiLogger(fl, log.NewSlogAdapter(logger)))
//
// FileLogger appends one CBOR record per event (.ilog files). Each record is
// written with a single append so a host and its plugin helper can share a
// file. Reader decodes such a file, optionally through a Filter.
package log
