package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chzyer/readline"

	"github.com/iseio/iseio-go/pkg/ise"
)

// EscapeLine ends a console session.
const EscapeLine = "~."

// ReaderGrace bounds the wait for the reader after input ended.
const ReaderGrace = time.Second

// lineDevice is the part of a session the console drives.
type lineDevice interface {
	WriteLine(id uint8, text string) error
	ReadLine(id uint8) (string, error)
	SetTimeout(id uint8, t ise.Timeout) error
}

// lineSource yields typed lines. *readline.Instance is one.
type lineSource interface {
	Readline() (string, error)
}

// Console joins a terminal to one channel: typed lines go to the board,
// lines from the board are printed as they arrive.
type Console struct {
	dev lineDevice
	ch  uint8
	out io.Writer
}

// NewConsole returns a console for channel ch of dev printing to out.
func NewConsole(dev lineDevice, ch uint8, out io.Writer) *Console {
	return &Console{dev: dev, ch: ch, out: out}
}

// Run copies lines both ways until in ends, EscapeLine is typed, ctx is
// cancelled or the channel fails.
func (c *Console) Run(ctx context.Context, in lineSource) error {
	if err := c.dev.SetTimeout(c.ch, ise.TimeoutOff); err != nil {
		return err
	}

	readErr := make(chan error, 1)
	go func() { readErr <- c.receive(ctx) }()

	err := c.send(ctx, in)

	// A forced timeout ends the blocked read without closing the channel.
	// Closing the session ends a reader the force did not reach.
	c.dev.SetTimeout(c.ch, ise.TimeoutForce)
	select {
	case rerr := <-readErr:
		if err == nil {
			err = rerr
		}
	case <-time.After(ReaderGrace):
	}
	return err
}

func (c *Console) send(ctx context.Context, in lineSource) error {
	for ctx.Err() == nil {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == EscapeLine {
			return nil
		}
		if err := c.dev.WriteLine(c.ch, line); err != nil {
			return err
		}
	}
	return nil
}

// receive prints board lines until the read is forced to time out.
func (c *Console) receive(ctx context.Context) error {
	for {
		line, err := c.dev.ReadLine(c.ch)
		if errors.Is(err, ise.ErrChannelTimeout) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}
