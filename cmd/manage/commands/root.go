// Package commands implements the administration CLI: reference data
// loading and account management outside the read-only users API.
package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/migrations"
)

// Env is what a command needs to talk to the application database.
type Env struct {
	Config *config.Config
	DB     *gorm.DB
	Log    logrus.FieldLogger
}

// Opener builds an Env. Tests substitute an in-memory database.
type Opener func(ctx context.Context) (*Env, error)

// OpenFromConfig loads the runtime configuration, connects and migrates.
func OpenFromConfig(ctx context.Context) (*Env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel, config.IsProduction())

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, db, migrations.FS, log); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Env{Config: cfg, DB: db, Log: log}, nil
}

// NewRootCommand assembles the manage command tree.
func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "manage",
		Short:         "Foodgram administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(
		newLoadIngredientsCommand(open),
		newLoadTagsCommand(open),
		newCreateUserCommand(open),
		newDeleteUserCommand(open),
		newSetupBucketCommand(),
	)
	return root
}
