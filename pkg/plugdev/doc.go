// Package plugdev is the device side of a software stand-in board. A plugin
// helper executable calls Main with its application; the host library
// launches the helper and drives it over the control connection described
// in pkg/plugproto.
//
// The Process multiplexes the control connection and up to 256 channel
// connections. Each connection is read by its own goroutine; the bytes
// arrive as events in a single loop that executes control commands and
// appends channel data to per-channel buffers, waking readers. Channel 254
// is answered by a built-in console so the host can identify the plugin.
//
// The application runs once, in its own goroutine, when the host sends RUN.
// It talks to the host with ReadLine and WriteLine and shares memory with it
// through frames (LockFrame).
package plugdev
