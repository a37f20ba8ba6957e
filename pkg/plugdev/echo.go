package plugdev

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// EchoChannel is the channel served by Echo.
const EchoChannel = 6

// Echo returns the demonstration application: every line received on
// EchoChannel is appended to the NUL-terminated text in frame 0 (when the
// host made it) and sent back. Progress goes to out.
func Echo(out io.Writer) App {
	return func(ctx context.Context, p *Process) {
		fmt.Fprintln(out, "START STUB")
		for {
			line, err := p.ReadLine(EchoChannel, Forever)
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return
			}
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "GOT: %s\n", line)

			fr, err := p.LockFrame(0)
			if err == nil {
				if len(fr.Mem) >= 4 {
					fmt.Fprintf(out, "FRAME[0].size = %d\n", len(fr.Mem))
					fmt.Fprintf(out, "FRAME[0] = 0x%02x 0x%02x 0x%02x 0x%02x...\n",
						fr.Mem[0], fr.Mem[1], fr.Mem[2], fr.Mem[3])
					appendText(fr.Mem, line)
				}
				fr.Unlock()
			}

			if err := p.WriteLine(EchoChannel, line); err != nil {
				fmt.Fprintf(out, "write: %v\n", err)
			}
		}
	}
}

// appendText copies s after the first NUL in mem, keeping the result
// NUL-terminated when it fits.
func appendText(mem []byte, s string) {
	end := bytes.IndexByte(mem, 0)
	if end < 0 {
		return
	}
	n := copy(mem[end:], s)
	if end+n < len(mem) {
		mem[end+n] = 0
	}
}
