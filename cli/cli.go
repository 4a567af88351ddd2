package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/perfgo/teststability/history"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "teststability"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
			NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Track pass/fail history of test cases across builds",
			Authors: []*cli.Author{
				{Name: "Christian Simon", Email: fmt.Sprintf("simon+%s@swine.de", AppName)},
			},
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:    "root",
					Usage:   "History directory (default: <git root>/" + history.DirName + ")",
					EnvVars: []string{"TESTSTABILITY_ROOT"},
				},
				&cli.IntFlag{
					Name:    "capacity",
					Usage:   fmt.Sprintf("Number of builds kept per test case (default: stored value, %d for a new history)", history.DefaultCapacity),
					EnvVars: []string{"TESTSTABILITY_CAPACITY"},
				},
				&cli.BoolFlag{
					Name:  "strict",
					Usage: "Fail on unreadable or inconsistent stored histories instead of dropping them",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run go test and record the outcome of every test case",
		ArgsUsage: "[packages] [-- go test flags]",
		Action:    app.run,
		Flags: []cli.Flag{
			buildFlag(),
			&cli.BoolFlag{
				Name:  "echo",
				Usage: "Copy the go test -json stream to stdout",
			},
		},
		Description: `Run go test -json, record a build with one result per test case.

Examples:
  teststability run                         # go test -json ./...
  teststability run ./pkg/...               # only ./pkg/...
  teststability run ./... -- -run TestA     # pass flags to go test
  teststability run --build 42 ./...        # use build number 42`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "record",
		Usage:     "Record a build from test report files",
		ArgsUsage: "REPORT...",
		Action:    app.record,
		Flags: []cli.Flag{
			buildFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: auto, gotest or junit (auto: junit for *.xml)",
				Value:   "auto",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "show",
		Usage:     "Show the history of a test case",
		ArgsUsage: "KEY",
		Action:    app.show,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print the stored head, tail, size and data fields",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List test cases with their recent results",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"p"},
				Usage:   "Only show test cases containing this string",
			},
			&cli.BoolFlag{
				Name:  "failing",
				Usage: "Only show test cases whose latest result failed",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (0 for all)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "builds",
		Usage:  "List recorded builds",
		Action: app.builds,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (0 for all)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "decode",
		Usage:     "Decode stored history fields and print the results",
		ArgsUsage: "HEAD TAIL SIZE DATA",
		Action:    app.decode,
		Description: `Decode the four fields of a stored history, e.g. copied from history.json.

Example:
  teststability decode 1 1 2 '3;1,2;0'`,
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		short := commit
		if len(short) > 8 {
			short = short[:8]
		}
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, short, date)
	}
}

func buildFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "build",
		Aliases: []string{"b"},
		Usage:   "Build number to record (default: one past the highest recorded)",
		EnvVars: []string{"BUILD_NUMBER"},
	}
}

// historyRoot returns the store directory from --root or the git repository.
func (a *App) historyRoot(ctx *cli.Context) (string, error) {
	if root := ctx.String("root"); root != "" {
		return root, nil
	}
	return history.GetRoot()
}

func (a *App) openStore(ctx *cli.Context, root string) (*history.Store, error) {
	store, err := history.Open(ctx.Context, a.logger, root, history.Options{
		Capacity: ctx.Int("capacity"),
		Strict:   ctx.Bool("strict"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

// openExistingStore opens the store for reading. It returns a nil store
// when nothing was recorded yet.
func (a *App) openExistingStore(ctx *cli.Context) (*history.Store, error) {
	root, err := a.historyRoot(ctx)
	if err != nil {
		return nil, err
	}
	if !history.Exists(root) {
		fmt.Fprintln(ctx.App.Writer, "No history found")
		fmt.Fprintf(ctx.App.Writer, "Builds are recorded to %s with '%s run' or '%s record'\n", root, AppName, AppName)
		return nil, nil
	}
	return a.openStore(ctx, root)
}

func (a *App) closeStore(store *history.Store) {
	if err := store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to release history lock")
	}
}
