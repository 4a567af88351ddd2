package cli

// This file contains the show command for displaying the history of a
// single test case.

import (
	"fmt"

	"github.com/perfgo/teststability/ringbuffer"
	"github.com/urfave/cli/v2"
)

func (a *App) show(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one test case key, got %d arguments", ctx.NArg())
	}

	store, err := a.openExistingStore(ctx)
	if err != nil || store == nil {
		return err
	}
	defer a.closeStore(store)

	key, err := findKey(store.Keys(), ctx.Args().First())
	if err != nil {
		return err
	}
	buf, _ := store.HistoryFor(key)

	w := ctx.App.Writer
	if ctx.Bool("raw") {
		enc := ringbuffer.Serialize(buf)
		fmt.Fprintf(w, "head: %d\n", enc.Head)
		fmt.Fprintf(w, "tail: %d\n", enc.Tail)
		fmt.Fprintf(w, "size: %d\n", enc.Size)
		fmt.Fprintf(w, "data: %s\n", enc.Data)
		return nil
	}

	fmt.Fprintf(w, "=== %s (%d/%d) ===\n", key, buf.Len(), buf.Capacity())
	printResults(w, buf.Snapshot())
	return nil
}
