// Command isectl drives ISE devices from the shell.
//
// Usage:
//
//	isectl <command> [flags] <device> [args]
//
// Commands:
//
//	version  Print the monitor version of each device
//	restart  Load and run a firmware image
//	console  Connect the terminal to a channel
//	package  Send update packages
//
// Devices are "ise<N>" for hardware boards and "plug:<name>" for plugin
// helpers in the plugin directory. Configuration comes from ISEIO_CONFIG and
// the other variables described in package iseio.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/iseio/iseio-go/pkg/ise"
	"github.com/iseio/iseio-go/pkg/iseio"
	"github.com/iseio/iseio-go/pkg/log"
)

const usage = `isectl - ISE device control

Usage:
  isectl <command> [flags] <device> [args]

Commands:
  version  Print the monitor version of each device
  restart  Load and run a firmware image
  console  Connect the terminal to a channel
  package  Send update packages

Use "isectl <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "version":
		err = runVersion(ctx, args)
	case "restart":
		err = runRestart(ctx, args)
	case "console":
		err = runConsole(ctx, args)
	case "package":
		err = runPackage(ctx, args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (%s)\n", err, ise.CodeOf(err))
		os.Exit(1)
	}
}

// commonFlags are accepted by every command.
type commonFlags struct {
	protocolLog string
}

func newFlagSet(name, synopsis string, cf *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "isectl %s\n\nUsage:\n  isectl %s\n\nFlags:\n", name, synopsis)
		fs.PrintDefaults()
	}
	fs.StringVar(&cf.protocolLog, "protocol-log", "", "Write protocol events to this file")
	return fs
}

// options turns the common flags into session options. The returned
// function releases what they opened.
func (cf *commonFlags) options() ([]ise.Option, func(), error) {
	if cf.protocolLog == "" {
		return nil, func() {}, nil
	}
	fl, err := log.NewFileLogger(cf.protocolLog)
	if err != nil {
		return nil, nil, fmt.Errorf("protocol log: %w", err)
	}
	return []ise.Option{ise.WithProtocolLogger(fl)}, func() { fl.Close() }, nil
}

func parse(fs *flag.FlagSet, args []string, min int) {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < min {
		fs.Usage()
		os.Exit(1)
	}
}

func runVersion(ctx context.Context, args []string) error {
	var cf commonFlags
	fs := newFlagSet("version", "version <device>...", &cf)
	parse(fs, args, 1)

	opts, release, err := cf.options()
	if err != nil {
		return err
	}
	defer release()

	var failed error
	for _, dev := range fs.Args() {
		version, err := iseio.Version(ctx, dev, opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", dev, err)
			failed = err
			continue
		}
		fmt.Printf("%s: %s\n", dev, version)
	}
	return failed
}

func runRestart(ctx context.Context, args []string) error {
	var cf commonFlags
	fs := newFlagSet("restart", "restart <device> <firmware>", &cf)
	parse(fs, args, 2)

	opts, release, err := cf.options()
	if err != nil {
		return err
	}
	defer release()

	s, err := iseio.Open(ctx, fs.Arg(0), opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Restart(ctx, fs.Arg(1)); err != nil {
		return err
	}
	fmt.Printf("%s: running %s\n", fs.Arg(0), fs.Arg(1))
	return nil
}

func runConsole(ctx context.Context, args []string) error {
	var cf commonFlags
	fs := newFlagSet("console", "console [-fw name] [-ch N] <device>", &cf)
	firmware := fs.String("fw", "", "Firmware to load before connecting")
	ch := fs.Uint("ch", 2, "Channel to connect to")
	parse(fs, args, 1)
	if *ch > 255 {
		return fmt.Errorf("channel %d out of range", *ch)
	}
	id := uint8(*ch)

	opts, release, err := cf.options()
	if err != nil {
		return err
	}
	defer release()

	s, err := iseio.Open(ctx, fs.Arg(0), opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	if *firmware != "" {
		if err := s.Restart(ctx, *firmware); err != nil {
			return err
		}
	}
	if err := s.Channel(ctx, id); err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s:%d> ", fs.Arg(0), id),
		InterruptPrompt: "^C",
		EOFPrompt:       EscapeLine,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "Connected to %s (%s), channel %d. Type %s to quit.\n",
		fs.Arg(0), s.Version(), id, EscapeLine)
	return NewConsole(s, id, rl.Stdout()).Run(ctx, rl)
}

func runPackage(ctx context.Context, args []string) error {
	var cf commonFlags
	fs := newFlagSet("package", "package <device> <file>...", &cf)
	parse(fs, args, 2)

	opts, release, err := cf.options()
	if err != nil {
		return err
	}
	defer release()

	s, err := iseio.Open(ctx, fs.Arg(0), opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, path := range fs.Args()[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		fmt.Printf("%s: sending %s (%d bytes)\n", fs.Arg(0), name, len(data))
		err = s.SendPackage(ctx, name, data, func(line string) {
			fmt.Printf("  %s\n", line)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
