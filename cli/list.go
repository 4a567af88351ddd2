package cli

// This file contains the list command for displaying test cases with
// their recent results.

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

func (a *App) list(ctx *cli.Context) error {
	filter := ctx.String("filter")
	failing := ctx.Bool("failing")
	limit := ctx.Int("limit")

	store, err := a.openExistingStore(ctx)
	if err != nil || store == nil {
		return err
	}
	defer a.closeStore(store)

	w := ctx.App.Writer

	var keys []string
	for _, key := range store.Keys() {
		if filter != "" && !strings.Contains(key, filter) {
			continue
		}
		if failing {
			buf, _ := store.HistoryFor(key)
			if latest, ok := buf.Latest(); !ok || latest.Passed {
				continue
			}
		}
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		if filter != "" {
			fmt.Fprintf(w, "No test cases found matching: %s\n", filter)
		} else {
			fmt.Fprintln(w, "No test cases found")
		}
		return nil
	}

	// Apply limit
	display := keys
	if limit > 0 && limit < len(display) {
		display = display[:limit]
	}

	fmt.Fprintf(w, "\n=== Test Cases (%d total, last %d builds) ===\n\n", len(keys), store.Capacity())

	for _, key := range display {
		buf, _ := store.HistoryFor(key)
		results := buf.Snapshot()

		status := " "
		build := ""
		if latest, ok := buf.Latest(); ok {
			status = statusMark(latest.Passed)
			build = fmt.Sprintf("#%d", latest.BuildNumber)
		}

		fmt.Fprintf(w, "%s  %-8s %s  %s\n", status, build, renderWindow(results), key)
	}

	if len(display) < len(keys) {
		fmt.Fprintf(w, "\n... %d more (use --limit 0 to show all)\n", len(keys)-len(display))
	}
	fmt.Fprintf(w, "\nView a test case: %s show <KEY>\n", AppName)

	return nil
}
