package plugdev

import (
	"context"

	"github.com/iseio/iseio-go/pkg/plugproto"
)

// execute runs one control line. Bad lines are logged and ignored.
func (p *Process) execute(ctx context.Context, line string) {
	cmd, err := plugproto.Parse(line)
	if err != nil {
		p.logger.Debug("ignoring control line", "line", line, "error", err)
		return
	}
	p.logger.Debug("command", "verb", string(cmd.Verb), "args", cmd.Args())

	switch cmd.Verb {
	case plugproto.VerbOpen:
		p.open(ctx, cmd.ID, cmd.Addr)
	case plugproto.VerbClose:
		p.close(cmd.ID)
	case plugproto.VerbFrame:
		p.frame(cmd.ID, cmd.Size, cmd.Path)
	case plugproto.VerbRun:
		p.run(ctx)
	default:
		p.logger.Debug("ignoring command", "verb", string(cmd.Verb))
	}
}

// open connects to the host's rendezvous socket and attaches the connection
// to channel ch, replacing any previous one.
func (p *Process) open(ctx context.Context, ch int, addr string) {
	conn, err := p.dial(ctx, addr)
	if err != nil {
		p.logger.Debug("open failed", "ch", ch, "addr", addr, "error", err)
		return
	}

	c := &p.channels[ch]
	c.mu.Lock()
	c.resetLocked(conn)
	gen := c.gen
	c.mu.Unlock()

	p.group.Go(func() error { return p.pump(ctx, ch, gen, conn) })
	p.logger.Debug("open complete", "ch", ch)
}

func (p *Process) close(ch int) {
	c := &p.channels[ch]
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}
	c.conn.Close()
	c.conn = nil
	c.gen++
	p.logger.Debug("close", "ch", ch)
}

// frame maps the host's backing file and acknowledges with the mapped size,
// zero when the mapping failed.
func (p *Process) frame(id, size int, path string) {
	if err := p.frames[id].replace(path, size); err != nil {
		p.logger.Debug("frame map failed", "frame", id, "path", path, "error", err)
		size = 0
	}
	ack := plugproto.FrameAck{ID: id, Size: size}
	if err := p.w.WriteLine(ack.String()); err != nil {
		p.logger.Debug("frame ack failed", "frame", id, "error", err)
	}
}

// run starts the application the first time it is called.
func (p *Process) run(ctx context.Context) {
	started := false
	p.runOnce.Do(func() {
		started = true
		if p.app == nil {
			return
		}
		go p.app(ctx, p)
	})
	if started {
		p.logger.Debug("application started")
	} else {
		p.logger.Debug("application already running")
	}
}
