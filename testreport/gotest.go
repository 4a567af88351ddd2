package testreport

// gotest.go parses the event stream written by go test -json.

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const maxLineSize = 4 * 1024 * 1024

// testEvent is one line of go test -json output (see go doc test2json).
type testEvent struct {
	Action  string
	Package string
	Test    string
}

// ParseGoTestJSON reads a go test -json stream. A case key is
// "<package>.<test>"; the last terminal action of a test decides its
// outcome. Lines that are not JSON events are ignored.
func ParseGoTestJSON(reader io.Reader) (*Report, error) {
	report := newReport()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}

		var ev testEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		if ev.Test == "" {
			// Package level event
			continue
		}

		key := ev.Package + "." + ev.Test
		switch ev.Action {
		case "pass":
			report.Cases[key] = OutcomePass
		case "fail":
			report.Cases[key] = OutcomeFail
		case "skip":
			report.Cases[key] = OutcomeSkip
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	return report, nil
}
