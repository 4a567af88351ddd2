package cli

// This file contains the builds command for listing recorded builds.

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func (a *App) builds(ctx *cli.Context) error {
	limit := ctx.Int("limit")

	store, err := a.openExistingStore(ctx)
	if err != nil || store == nil {
		return err
	}
	defer a.closeStore(store)

	w := ctx.App.Writer

	builds := store.Builds()
	if len(builds) == 0 {
		fmt.Fprintln(w, "No builds recorded")
		return nil
	}

	fmt.Fprintf(w, "\n=== Builds (%d total) ===\n\n", len(builds))

	// Newest first
	shown := 0
	for i := len(builds) - 1; i >= 0; i-- {
		if limit > 0 && shown >= limit {
			break
		}
		shown++

		b := builds[i]
		timestamp := b.Timestamp.Format("2006-01-02 15:04:05")
		duration := b.Duration.Round(time.Millisecond)

		fmt.Fprintf(w, "%s  #%d  %s  [%s]  passed=%d  failed=%d  id=%s\n",
			statusMark(b.Failed == 0 && b.ExitCode == 0), b.Number, timestamp, duration, b.Passed, b.Failed, shortID(b.ID))
		if len(b.Command) > 0 {
			fmt.Fprintf(w, "   Command: %s  exit=%d\n", strings.Join(b.Command, " "), b.ExitCode)
		}
		for _, r := range b.Reports {
			fmt.Fprintf(w, "   Report: %s\n", r)
		}
		if b.Target != nil && b.Target.OS != "" && b.Target.Arch != "" {
			fmt.Fprintf(w, "   Local: %s/%s\n", b.Target.OS, b.Target.Arch)
		}
		if b.Git != nil && b.Git.Commit != "" {
			fmt.Fprintf(w, "   Commit: %s", shortID(b.Git.Commit))
			if b.Git.Branch != "" {
				fmt.Fprintf(w, " (%s)", b.Git.Branch)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	return nil
}
