package cli

// This file contains local test execution functionality for running
// go test -json and recording its outcomes.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	gocmd "github.com/perfgo/teststability/cli/go"
	"github.com/perfgo/teststability/model"
	"github.com/perfgo/teststability/testreport"
	"github.com/urfave/cli/v2"
)

func (a *App) run(ctx *cli.Context) error {
	startTime := time.Now()

	packages, flags := splitTestArgs(ctx.Args().Slice())
	if hasJSONFlag(flags) {
		return fmt.Errorf("-json is always passed to go test, remove it from the flags")
	}

	// Refuse a reused build number before spending time on the tests
	if number := ctx.Int("build"); number != 0 {
		if err := a.checkBuildNumber(ctx, number); err != nil {
			return err
		}
	}

	// Validate package patterns before running anything
	for _, pkg := range packages {
		if _, err := gocmd.List(pkg); err != nil {
			return err
		}
	}

	args := gocmd.TestJSONArgs(packages, flags)
	build := model.Build{
		Number:    ctx.Int("build"),
		Timestamp: startTime,
		Command:   append([]string{"go"}, args...),
		Target: &model.Target{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	// Capture git info (non-fatal if it fails)
	if git, err := a.getGitInfo(); err == nil {
		build.Git = git
	} else {
		a.logger.Debug().Err(err).Msg("No git information")
	}

	var stdout io.Writer
	if ctx.Bool("echo") {
		stdout = ctx.App.Writer
	}
	output, exitCode, err := a.executeTests(args, stdout)
	if err != nil {
		return err
	}
	build.ExitCode = exitCode
	build.Duration = time.Since(startTime)

	report, err := testreport.ParseGoTestJSON(bytes.NewReader(output))
	if err != nil {
		return fmt.Errorf("failed to parse test output: %w", err)
	}
	if len(report.Outcomes()) == 0 && exitCode != 0 {
		return fmt.Errorf("go test failed with exit code %d before running any test", exitCode)
	}

	if _, err := a.recordBuild(ctx, build, report); err != nil {
		return err
	}

	if exitCode != 0 {
		return cli.Exit(fmt.Sprintf("tests failed with exit code %d", exitCode), exitCode)
	}
	return nil
}

// executeTests runs go with args and returns the captured stdout and the
// exit code. Test failures are not an error: go test exits non-zero and
// the outcomes are in the stream.
func (a *App) executeTests(args []string, echo io.Writer) ([]byte, int, error) {
	a.logger.Info().
		Str("command", gocmd.String(args)).
		Msg("Running tests")

	cmd := gocmd.Command(args...)

	// Capture stdout for parsing, pass stderr through (build errors)
	var stdoutBuf bytes.Buffer
	if echo != nil {
		cmd.Stdout = io.MultiWriter(echo, &stdoutBuf)
	} else {
		cmd.Stdout = &stdoutBuf
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			a.logger.Info().
				Int("exit_code", exitErr.ExitCode()).
				Msg("Tests completed with failures")
			return stdoutBuf.Bytes(), exitErr.ExitCode(), nil
		}
		return nil, 0, fmt.Errorf("failed to execute go test: %w", err)
	}

	a.logger.Info().Msg("Tests completed successfully")
	return stdoutBuf.Bytes(), 0, nil
}
