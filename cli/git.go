package cli

// This file contains Git integration utilities for retrieving
// repository information.

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/perfgo/teststability/model"
)

func (a *App) getGitInfo() (*model.Git, error) {
	// Get current commit hash
	cmd := exec.Command("git", "rev-parse", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get git commit: %w", err)
	}
	commit := strings.TrimSpace(string(output))

	// Get current branch
	cmd = exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	output, err = cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get git branch: %w", err)
	}
	branch := strings.TrimSpace(string(output))

	cmd = exec.Command("git", "rev-parse", "--show-toplevel")
	output, err = cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get repository root: %w", err)
	}
	repo := filepath.Base(strings.TrimSpace(string(output)))

	return &model.Git{
		Commit: commit,
		Branch: branch,
		Repo:   repo,
	}, nil
}
