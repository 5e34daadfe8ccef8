// Command icalrecur reads an iCalendar stream from stdin (or a file named
// as its first argument) and prints every occurrence it expands to, one per
// line, sorted by start time.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	ics "github.com/arran4/icalrecur"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	r, err := input()
	if err != nil {
		return err
	}

	cfg, err := ics.NewConfig(ics.WithLogger(ics.NewZerologLogger()))
	if err != nil {
		return fmt.Errorf("building config: %w", err)
	}

	events, err := ics.Parse(r, cfg)
	if err != nil {
		return fmt.Errorf("parsing calendar: %w", err)
	}

	for _, e := range events {
		start := time.Unix(e.StartEpoch, 0).UTC().Format(time.RFC3339)
		fmt.Printf("%s\t%s\t%s\n", start, e.UID, e.Summary)
	}
	return nil
}

func input() (io.Reader, error) {
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", os.Args[1], err)
		}
		return f, nil
	}
	return os.Stdin, nil
}
