package model

import "time"

// Build represents one recorded build: a single test execution whose
// per-case outcomes were added to the histories.
type Build struct {
	// Unique ID for this build (UUID)
	ID string `json:"id"`
	// Build number stored with every case result
	Number int `json:"number"`
	// Timestamp when the build started
	Timestamp time.Time `json:"timestamp"`
	// Duration of the test execution
	Duration time.Duration `json:"duration,omitempty"`
	// Exit code of the test command (0 when recorded from report files)
	ExitCode int `json:"exit_code"`
	// Command-line that produced the results, if executed by us
	Command []string `json:"command,omitempty"`
	// Report files the results were read from
	Reports []string `json:"reports,omitempty"`
	// Number of cases recorded as passed
	Passed int `json:"passed"`
	// Number of cases recorded as failed
	Failed int `json:"failed"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// Execution environment
	Target *Target `json:"target,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
	// Repository name
	Repo string `json:"repo,omitempty"`
}

// Target contains information about the execution environment
type Target struct {
	// Operating system of the execution environment
	OS string `json:"os,omitempty"`
	// CPU architecture of the execution environment
	Arch string `json:"arch,omitempty"`
}
