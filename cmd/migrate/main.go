// Package main provides a CLI tool for the service's schema migrations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/config"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/database"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/observability"
)

var errNoAction = errors.New("no action specified")

type actionKind int

const (
	actionUp actionKind = iota + 1
	actionDown
	actionSteps
	actionVersion
	actionForce
)

// action is one parsed command line.
type action struct {
	kind  actionKind
	steps int
	force int
	path  string
}

// schemaMigrator is the part of database.Migrator the CLI drives.
type schemaMigrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	act, err := parseAction(args, os.Stderr)
	if err != nil {
		return err
	}

	// Load configuration (database settings from env/config file).
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Console output for the CLI tool.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	})
	logger = logger.With().Str("component", "migrate").Logger()

	migrationDir := cfg.Database.MigrationPath
	if act.path != "" {
		migrationDir = act.path
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, migrationDir, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	return apply(act, migrator, logger)
}

// parseAction reads the flags. Exactly one of -up, -down, -steps, -version
// and -force must be given.
func parseAction(args []string, usage io.Writer) (action, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(usage)
	up := fs.Bool("up", false, "Run all pending migrations")
	down := fs.Bool("down", false, "Roll back all migrations")
	steps := fs.Int("steps", 0, "Run N migration steps (positive=up, negative=down)")
	version := fs.Bool("version", false, "Print the current migration version")
	force := fs.Int("force", -1, "Force set migration version (use to recover from failed migrations)")
	path := fs.String("path", "", "Override the migrations directory path")
	if err := fs.Parse(args); err != nil {
		return action{}, err
	}

	var chosen []actionKind
	if *up {
		chosen = append(chosen, actionUp)
	}
	if *down {
		chosen = append(chosen, actionDown)
	}
	if *steps != 0 {
		chosen = append(chosen, actionSteps)
	}
	if *version {
		chosen = append(chosen, actionVersion)
	}
	if *force >= 0 {
		chosen = append(chosen, actionForce)
	}

	switch len(chosen) {
	case 0:
		fs.Usage()
		fmt.Fprintln(usage, "\nPlease specify one of: -up, -down, -steps N, -version, -force V")
		return action{}, errNoAction
	case 1:
		return action{kind: chosen[0], steps: *steps, force: *force, path: *path}, nil
	default:
		return action{}, errors.New("specify only one action at a time")
	}
}

// apply runs the action and logs the resulting version.
func apply(act action, m schemaMigrator, logger zerolog.Logger) error {
	switch act.kind {
	case actionUp:
		logger.Info().Msg("running all pending migrations")
		if err := m.Up(); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case actionDown:
		if err := m.Down(); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	case actionSteps:
		logger.Info().Int("steps", act.steps).Msg("running migration steps")
		if err := m.Steps(act.steps); err != nil {
			return fmt.Errorf("migrate steps: %w", err)
		}
	case actionForce:
		if err := m.Force(act.force); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
	case actionVersion:
	default:
		return errNoAction
	}
	logVersion(m, logger)
	return nil
}

func logVersion(m schemaMigrator, logger zerolog.Logger) {
	v, dirty, err := m.Version()
	if err != nil {
		logger.Warn().Err(err).Msg("could not determine migration version")
		return
	}
	logger.Info().
		Uint("version", v).
		Bool("dirty", dirty).
		Msg("current migration version")
}
