// Package ise provides sessions with an ISE coprocessor board or its software
// stand-in.
//
// A Session is bound to one device identity. The identity selects a Backend
// (hardware "ise<N>" or plugin "plug:<name>") through the registered Drivers,
// tried in order; the first match owns the session for its lifetime.
//
// # Lifecycle
//
//	Unbound -> Bound -> Identified -> Closed
//
// Bind connects to the device without touching it. Open additionally quiesces
// the board, reads its version string through the monitor channel (254) and
// quiesces it again, leaving it idle for the caller's firmware. Only an
// opened (Identified) session restarts the board on Close.
//
// # Channels
//
// Channels are numbered, line-oriented duplex streams. WriteLine appends the
// terminator and flushes; ReadLine returns one line with the terminator
// stripped, honoring the channel's Timeout:
//
//	TimeoutOff    block until a line arrives (initial setting)
//	0             poll: return ErrChannelTimeout at once if no line is ready
//	> 0           wait at most that many milliseconds
//	TimeoutForce  make a blocked ReadLine time out now
//
// # Frames
//
// Frames are shared-memory regions numbered 0-15, created on first request.
// Requesting an existing frame returns the existing mapping regardless of
// the size asked for.
//
// # Concurrency
//
// Session management (Open, Channel, CloseChannel, MakeFrame, DeleteFrame,
// Restart, Close) must be serialized by the caller. ReadLine and WriteLine on
// distinct open channels may run concurrently.
package ise
