// Command iselog views and analyzes ISE protocol log files.
//
// Log files are written when a session runs with protocol_log set in the
// configuration (or isectl -protocol-log).
//
//	iselog view [-layer L] [-direction D] [-category C] [-channel N] <file.ilog>
//	iselog export [-format jsonl|csv] [-o out] <file.ilog>
//	iselog filter -o out.ilog [selection flags] <file.ilog>
//	iselog stats <file.ilog>
//
// The selection flags of filter are those of view plus -session, -device,
// -time-start and -time-end.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iseio/iseio-go/cmd/iselog/commands"
)

type command struct {
	name     string
	synopsis string
	run      func(fs *flag.FlagSet, args []string) error
}

var commandList = []command{
	{"view", "View log file in human-readable format", runView},
	{"export", "Export log file to JSON lines or CSV", runExport},
	{"filter", "Write the selected events to a new log file", runFilter},
	{"stats", "Show statistics about the log file", runStats},
}

func usage() {
	fmt.Fprintln(os.Stderr, "iselog - ISE protocol log analyzer\n\nUsage:\n  iselog <command> [flags] <file.ilog>\n\nCommands:")
	for _, c := range commandList {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.synopsis)
	}
	fmt.Fprintln(os.Stderr, "\nUse \"iselog <command> -help\" for the flags of a command.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	name := os.Args[1]
	if name == "-h" || name == "-help" || name == "--help" || name == "help" {
		usage()
		return
	}

	for _, c := range commandList {
		if c.name != name {
			continue
		}
		fs := flag.NewFlagSet(c.name, flag.ExitOnError)
		fs.Usage = func() {
			fmt.Fprintf(os.Stderr, "iselog %s - %s\n\nUsage:\n  iselog %s [flags] <file.ilog>\n\nFlags:\n", c.name, c.synopsis, c.name)
			fs.PrintDefaults()
		}
		if err := c.run(fs, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n", name)
	usage()
	os.Exit(1)
}

// selectionFlags registers the event selection flags on fs. full adds the
// session, device and time flags.
func selectionFlags(fs *flag.FlagSet, full bool) *commands.Selection {
	var sel commands.Selection
	fs.StringVar(&sel.Layer, "layer", "", "Filter by layer (session, channel, control, backend)")
	fs.StringVar(&sel.Direction, "direction", "", "Filter by direction (in, out, local)")
	fs.StringVar(&sel.Category, "category", "", "Filter by category (line, data, control, state, frame, error)")
	fs.StringVar(&sel.Channel, "channel", "", "Filter by channel id")
	if full {
		fs.StringVar(&sel.SessionID, "session", "", "Filter by session ID")
		fs.StringVar(&sel.Identity, "device", "", "Filter by device identity")
		fs.StringVar(&sel.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
		fs.StringVar(&sel.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	}
	return &sel
}

// parse parses args and returns the log file operand.
func parse(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return "", fmt.Errorf("log file path required")
	}
	return fs.Arg(0), nil
}

func runView(fs *flag.FlagSet, args []string) error {
	sel := selectionFlags(fs, false)
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	return commands.RunView(path, *sel, os.Stdout)
}

func runExport(fs *flag.FlagSet, args []string) error {
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	return commands.RunExport(path, *format, *output)
}

func runFilter(fs *flag.FlagSet, args []string) error {
	sel := selectionFlags(fs, true)
	output := fs.String("o", "", "Output file (required)")
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("output file (-o) required")
	}
	n, err := commands.RunFilter(path, *sel, *output)
	if err != nil {
		return err
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
	return nil
}

func runStats(fs *flag.FlagSet, args []string) error {
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	return commands.RunStats(path, os.Stdout)
}
