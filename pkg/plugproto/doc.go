// Package plugproto implements the control protocol spoken between a host
// session and a plugin helper process.
//
// Every message is one newline-terminated ASCII line of whitespace-separated
// tokens.
//
// Host to device:
//
//	OPEN <channel> <address>     connect channel to a rendezvous socket
//	CLOSE <channel>              drop the channel's connection
//	FRAME <frame> <size> <path>  map a backing file as a frame
//	RUN                          start the application (once)
//
// Device to host:
//
//	HELLO                        sent once at startup
//	FRAME <frame>, <size>        frame acknowledgement
//
// Concatenated arrivals are re-split on newline boundaries by Reader.
package plugproto
