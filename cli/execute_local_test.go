package cli

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/perfgo/teststability/history"
	"github.com/perfgo/teststability/ringbuffer"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const flakyTests = `package flaky

import "testing"

func TestPass(t *testing.T) {}

func TestFail(t *testing.T) {
	t.Fatal("broken")
}
`

// newGoModule writes a module with the given test file and changes into it.
func newGoModule(t *testing.T, testFile string) {
	t.Helper()
	if testing.Short() {
		t.Skip("runs go test")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go not in PATH")
	}
	t.Setenv("GOFLAGS", "")
	t.Setenv("GOWORK", "off")

	dir := t.TempDir()
	files := map[string]string{
		"go.mod":        "module example.com/flaky\n\ngo 1.21\n",
		"flaky.go":      "package flaky\n",
		"flaky_test.go": testFile,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// keepExitErrors stops cli.Exit errors from terminating the test binary.
func (ta *testApp) keepExitErrors() {
	ta.app.cli.ExitErrHandler = func(*cli.Context, error) {}
}

func openHistory(t *testing.T, root string) *history.Store {
	t.Helper()
	s, err := history.Open(context.Background(), zerolog.Nop(), root, history.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRun_RecordsOutcomes(t *testing.T) {
	newGoModule(t, flakyTests)
	ta := newTestApp(t)
	ta.keepExitErrors()

	out, err := ta.run("run", "--echo", "./...")

	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
	require.Equal(t, 1, exitErr.ExitCode())

	require.Contains(t, out, `"Action":"fail"`)
	require.Contains(t, out, "Recorded build #1: 1 passed, 1 failed\n")

	s := openHistory(t, ta.root)
	builds := s.Builds()
	require.Len(t, builds, 1)
	require.Equal(t, 1, builds[0].ExitCode)
	require.Equal(t, []string{"go", "test", "-json", "./..."}, builds[0].Command)
	require.NotNil(t, builds[0].Target)

	require.Equal(t, []string{"example.com/flaky.TestFail", "example.com/flaky.TestPass"}, s.Keys())
	buf, _ := s.HistoryFor("example.com/flaky.TestFail")
	require.Equal(t, []ringbuffer.Result{{BuildNumber: 1, Passed: false}}, buf.Snapshot())
	buf, _ = s.HistoryFor("example.com/flaky.TestPass")
	require.Equal(t, []ringbuffer.Result{{BuildNumber: 1, Passed: true}}, buf.Snapshot())
}

func TestRun_PassingBuild(t *testing.T) {
	newGoModule(t, flakyTests)
	ta := newTestApp(t)
	ta.keepExitErrors()

	out, err := ta.run("run", "--build", "7", "--", "-run", "TestPass")
	require.NoError(t, err)
	require.Equal(t, "Recorded build #7: 1 passed, 0 failed\n", out)

	s := openHistory(t, ta.root)
	require.Equal(t, 0, s.Builds()[0].ExitCode)
	require.Equal(t, []string{"example.com/flaky.TestPass"}, s.Keys())
}

func TestRun_BuildFailure(t *testing.T) {
	newGoModule(t, `package flaky

import "testing"

func TestPass(t *testing.T) { undefined() }
`)
	ta := newTestApp(t)
	ta.keepExitErrors()

	_, err := ta.run("run")
	require.ErrorContains(t, err, "before running any test")
	require.False(t, history.Exists(ta.root))
}

func TestRun_RejectsRecordedBuild(t *testing.T) {
	newGoModule(t, flakyTests)
	ta := newTestApp(t)
	ta.keepExitErrors()

	_, err := ta.run("record", "--build", "5", writeReport(t, "b1.json", build1))
	require.NoError(t, err)

	out, err := ta.run("run", "--build", "5", "--echo")
	require.ErrorIs(t, err, history.ErrBuildRecorded)
	require.Empty(t, out, "no test may run for a recorded build number")
}
