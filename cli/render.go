package cli

// This file contains helpers shared by the commands that print histories.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/perfgo/teststability/ringbuffer"
)

func statusMark(passed bool) string {
	if passed {
		return "✓"
	}
	return "✗"
}

// renderWindow renders results oldest to newest, one mark per build.
func renderWindow(results []ringbuffer.Result) string {
	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(statusMark(r.Passed))
	}
	return sb.String()
}

// findKey resolves query to a test case key: an exact match wins,
// otherwise the query must be contained in exactly one key.
func findKey(keys []string, query string) (string, error) {
	var matches []string
	for _, key := range keys {
		if key == query {
			return key, nil
		}
		if strings.Contains(key, query) {
			matches = append(matches, key)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no test case found matching: %s", query)
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		shown := matches
		if len(shown) > 5 {
			shown = shown[:5]
		}
		return "", fmt.Errorf("%d test cases match %q: %s", len(matches), query, strings.Join(shown, ", "))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
