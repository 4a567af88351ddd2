package cli

// This file contains the decode command for inspecting stored history
// fields.

import (
	"fmt"
	"io"

	"github.com/perfgo/teststability/ringbuffer"
	"github.com/urfave/cli/v2"
)

func (a *App) decode(ctx *cli.Context) error {
	args := ctx.Args().Slice()
	if len(args) != 4 {
		return fmt.Errorf("expected HEAD TAIL SIZE DATA, got %d arguments", len(args))
	}

	codec := ringbuffer.Codec{Strict: ctx.Bool("strict")}
	buf, err := codec.DeserializeFields(args[0], args[1], args[2], args[3])
	if err != nil {
		return fmt.Errorf("failed to decode history: %w", err)
	}

	w := ctx.App.Writer
	fmt.Fprintf(w, "Capacity: %d\n", buf.Capacity())
	fmt.Fprintf(w, "Results: %d\n", buf.Len())
	printResults(w, buf.Snapshot())
	return nil
}

// printResults prints one line per result, oldest first.
func printResults(w io.Writer, results []ringbuffer.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results recorded")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s  #%d\n", statusMark(r.Passed), r.BuildNumber)
	}
}
