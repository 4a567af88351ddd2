package cli

// This file contains build recording functionality for adding test
// report outcomes to the history.

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/perfgo/teststability/history"
	"github.com/perfgo/teststability/model"
	"github.com/perfgo/teststability/testreport"
	"github.com/urfave/cli/v2"
)

func (a *App) record(ctx *cli.Context) error {
	files := ctx.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("no report files specified")
	}
	format := testreport.Format(ctx.String("format"))

	report := &testreport.Report{Cases: map[string]testreport.Outcome{}}
	for _, file := range files {
		r, err := testreport.ParseFile(file, format)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}
		a.logger.Debug().
			Str("file", file).
			Int("cases", len(r.Cases)).
			Msg("Parsed report")
		report.Merge(r)
	}

	build := model.Build{
		Number:  ctx.Int("build"),
		Reports: make([]string, 0, len(files)),
	}
	for _, file := range files {
		if abs, err := filepath.Abs(file); err == nil {
			file = abs
		}
		build.Reports = append(build.Reports, file)
	}

	// Capture git info (non-fatal if it fails)
	if git, err := a.getGitInfo(); err == nil {
		build.Git = git
	} else {
		a.logger.Debug().Err(err).Msg("No git information")
	}

	_, err := a.recordBuild(ctx, build, report)
	return err
}

// recordBuild stores the outcomes of report as build and prints a summary.
func (a *App) recordBuild(ctx *cli.Context, build model.Build, report *testreport.Report) (model.Build, error) {
	outcomes := report.Outcomes()
	if len(outcomes) == 0 {
		return model.Build{}, errors.New("no test results found")
	}
	a.logger.Debug().
		Int("passed", report.Passed()).
		Int("failed", report.Failed()).
		Int("skipped", report.Skipped()).
		Msg("Collected test outcomes")

	root, err := a.historyRoot(ctx)
	if err != nil {
		return model.Build{}, err
	}
	store, err := a.openStore(ctx, root)
	if err != nil {
		return model.Build{}, err
	}
	defer a.closeStore(store)

	recorded, err := store.Record(build, outcomes)
	if err != nil {
		return model.Build{}, err
	}
	if err := store.Save(); err != nil {
		return model.Build{}, err
	}

	a.logger.Debug().
		Str("id", recorded.ID).
		Str("path", store.Path()).
		Msg("Recorded build")

	fmt.Fprintf(ctx.App.Writer, "Recorded build #%d: %d passed, %d failed", recorded.Number, recorded.Passed, recorded.Failed)
	if skipped := report.Skipped(); skipped > 0 {
		fmt.Fprintf(ctx.App.Writer, ", %d skipped", skipped)
	}
	fmt.Fprintln(ctx.App.Writer)

	return recorded, nil
}

// checkBuildNumber fails when number is already part of the history, so
// that run can refuse it before executing any test.
func (a *App) checkBuildNumber(ctx *cli.Context, number int) error {
	root, err := a.historyRoot(ctx)
	if err != nil {
		return err
	}
	if !history.Exists(root) {
		return nil
	}

	store, err := a.openStore(ctx, root)
	if err != nil {
		return err
	}
	defer a.closeStore(store)

	if store.HasBuild(number) {
		return fmt.Errorf("build %d: %w", number, history.ErrBuildRecorded)
	}
	return nil
}
