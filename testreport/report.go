// Package testreport derives per test case outcomes from test tool output.
package testreport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Outcome is the final state of a test case in one execution.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeSkip Outcome = "skip"
)

// Format selects the parser for a report file.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatGoTest Format = "gotest"
	FormatJUnit  Format = "junit"
)

// Report maps test case keys to their outcome.
type Report struct {
	Cases map[string]Outcome
}

func newReport() *Report {
	return &Report{Cases: make(map[string]Outcome)}
}

// Outcomes returns pass/fail per case. Skipped cases are left out: they
// say nothing about stability.
func (r *Report) Outcomes() map[string]bool {
	out := make(map[string]bool, len(r.Cases))
	for key, outcome := range r.Cases {
		switch outcome {
		case OutcomePass:
			out[key] = true
		case OutcomeFail:
			out[key] = false
		}
	}
	return out
}

// Passed returns the number of passed cases.
func (r *Report) Passed() int {
	return r.count(OutcomePass)
}

// Failed returns the number of failed cases.
func (r *Report) Failed() int {
	return r.count(OutcomeFail)
}

// Skipped returns the number of skipped cases.
func (r *Report) Skipped() int {
	return r.count(OutcomeSkip)
}

func (r *Report) count(o Outcome) int {
	n := 0
	for _, outcome := range r.Cases {
		if outcome == o {
			n++
		}
	}
	return n
}

// Merge adds the cases of other. A failure in either report wins and a
// skip never replaces a recorded outcome.
func (r *Report) Merge(other *Report) {
	for key, outcome := range other.Cases {
		if prev, ok := r.Cases[key]; ok && (prev == OutcomeFail || outcome == OutcomeSkip) {
			continue
		}
		r.Cases[key] = outcome
	}
}

// ParseFile parses the report at path. FormatAuto picks JUnit for .xml
// files and go test -json otherwise.
func ParseFile(path string, format Format) (*Report, error) {
	if format == FormatAuto || format == "" {
		format = FormatGoTest
		if strings.EqualFold(filepath.Ext(path), ".xml") {
			format = FormatJUnit
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatGoTest:
		return ParseGoTestJSON(f)
	case FormatJUnit:
		return ParseJUnit(f)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
