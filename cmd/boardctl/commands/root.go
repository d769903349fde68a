// Package commands implements boardctl, the operator CLI for the job board:
// catalog seeding, catalog search and draft store maintenance.
package commands

import (
	"fmt"

	"jobboard-portal/config"
	"jobboard-portal/internal/database"
	"jobboard-portal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var versionString = "dev"

// SetVersionInfo sets the version shown by --version.
func SetVersionInfo(version, commit string) {
	versionString = fmt.Sprintf("%s (commit: %s)", version, commit)
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// env is what every subcommand works against. It is built lazily so that
// --help never touches the database.
type env struct {
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
}

func (e *env) load() error {
	if e.cfg != nil {
		return nil
	}
	if err := config.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	e.cfg = config.Cfg

	e.logger = zap.NewNop()
	if e.verbose {
		l, err := logger.Build(e.cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		e.logger = l
	}
	return nil
}

func (e *env) database() (*gorm.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	db, err := database.Connect(e.cfg, e.logger)
	if err != nil {
		return nil, err
	}
	e.db = db
	return db, nil
}

func (e *env) close() {
	if e.db != nil {
		database.Close(e.db)
		e.db = nil
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "boardctl",
		Short: "Operate the job board: seed the catalog, search it, maintain drafts",
		Long: `boardctl works directly against the database and key-value store
configured for the job board API (the same .env file and environment
variables).

It seeds the job catalog, runs the landing page search from the terminal,
and finds or removes application drafts that can no longer be decoded.`,
		Version:       versionString,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Log database and store activity")

	root.AddCommand(newSeedCommand(e))
	root.AddCommand(newSearchCommand(e))
	root.AddCommand(newDraftsCommand(e))
	return root
}
