package gocmd

// go.go provides utilities for executing Go commands.

import (
	"fmt"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// List runs 'go list' on a package path and returns the list of packages.
// Returns the packages found (one per line from stdout) and any error.
// If an error occurs, it includes a user-friendly error message.
func List(path string) ([]string, error) {
	cmd := exec.Command("go", "list", path)

	// Capture stdout and stderr separately
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if err != nil {
		// Extract the error message from stderr
		errMsg := strings.TrimSpace(stderr.String())

		// Simplify common error messages
		if strings.Contains(errMsg, "no Go files in") {
			return nil, fmt.Errorf("invalid package path %q: directory contains no Go files", path)
		}
		if strings.Contains(errMsg, "is not in std") || strings.Contains(errMsg, "is not in GOROOT") {
			return nil, fmt.Errorf("invalid package path %q: package not found", path)
		}
		if strings.Contains(errMsg, "cannot find package") {
			return nil, fmt.Errorf("invalid package path %q: package not found", path)
		}

		// For other errors, show the first line of the error
		lines := strings.Split(errMsg, "\n")
		if len(lines) > 0 && lines[0] != "" {
			return nil, fmt.Errorf("invalid package path %q: %s", path, lines[0])
		}

		return nil, fmt.Errorf("invalid package path %q: %s", path, err.Error())
	}

	// Parse packages from stdout (one per line)
	output := strings.TrimSpace(stdout.String())
	if output == "" {
		return []string{}, nil
	}

	packages := strings.Split(output, "\n")
	return packages, nil
}

// Command creates an exec.Cmd for running a Go command.
// The first argument is the Go subcommand (e.g., "build", "test"), followed by its arguments.
func Command(args ...string) *exec.Cmd {
	return exec.Command("go", args...)
}

// TestJSONArgs returns the arguments for 'go test -json' over packages
// with the given test flags. Without packages, ./... is tested.
func TestJSONArgs(packages, flags []string) []string {
	if len(packages) == 0 {
		packages = []string{"./..."}
	}
	args := make([]string, 0, 2+len(flags)+len(packages))
	args = append(args, "test", "-json")
	args = append(args, flags...)
	args = append(args, packages...)
	return args
}

// String renders a go invocation as a shell command line.
func String(args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, "go")
	for _, arg := range args {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}
