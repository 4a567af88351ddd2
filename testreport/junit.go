package testreport

// junit.go parses JUnit XML reports as written by most CI tools.

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

type junitSuites struct {
	Suites []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name   string       `xml:"name,attr"`
	Cases  []junitCase  `xml:"testcase"`
	Suites []junitSuite `xml:"testsuite"`
}

type junitCase struct {
	Name      string    `xml:"name,attr"`
	Classname string    `xml:"classname,attr"`
	Failure   *struct{} `xml:"failure"`
	Error     *struct{} `xml:"error"`
	Skipped   *struct{} `xml:"skipped"`
}

// ParseJUnit reads a JUnit XML report rooted at <testsuites> or
// <testsuite>. A case key is "<classname>.<name>", falling back to the
// suite name when classname is missing.
func ParseJUnit(reader io.Reader) (*Report, error) {
	dec := xml.NewDecoder(reader)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("no testsuite element found")
		}
		if err != nil {
			return nil, fmt.Errorf("invalid junit report: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		report := newReport()
		switch start.Name.Local {
		case "testsuites":
			var suites junitSuites
			if err := dec.DecodeElement(&suites, &start); err != nil {
				return nil, fmt.Errorf("invalid junit report: %w", err)
			}
			for _, s := range suites.Suites {
				report.addSuite(s)
			}
		case "testsuite":
			var suite junitSuite
			if err := dec.DecodeElement(&suite, &start); err != nil {
				return nil, fmt.Errorf("invalid junit report: %w", err)
			}
			report.addSuite(suite)
		default:
			return nil, fmt.Errorf("unexpected root element <%s>", start.Name.Local)
		}
		return report, nil
	}
}

func (r *Report) addSuite(s junitSuite) {
	for _, c := range s.Cases {
		class := c.Classname
		if class == "" {
			class = s.Name
		}
		key := c.Name
		if class != "" {
			key = class + "." + c.Name
		}

		outcome := OutcomePass
		switch {
		case c.Failure != nil || c.Error != nil:
			outcome = OutcomeFail
		case c.Skipped != nil:
			outcome = OutcomeSkip
		}

		// The same case may appear in several suites (reruns); a failure
		// anywhere wins.
		if prev, ok := r.Cases[key]; ok && prev == OutcomeFail {
			continue
		}
		r.Cases[key] = outcome
	}
	for _, nested := range s.Suites {
		r.addSuite(nested)
	}
}
