// Command hearthctl administers a hearth deployment: households, API keys,
// schema migrations and offline schedule previews.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rezkam/hearth/internal/application/auth"
	"github.com/rezkam/hearth/internal/config"
	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/infrastructure/persistence/postgres"
	"github.com/spf13/cobra"
)

// adminStore is the storage surface the commands need.
type adminStore interface {
	auth.Repository
	CreateHousehold(ctx context.Context, h *domain.Household) error
	ListHouseholds(ctx context.Context) ([]domain.Household, error)
	DeleteHousehold(ctx context.Context, householdID string) error
	Close() error
}

// app carries what commands share. Tests swap the store opener and clock.
type app struct {
	openStore func(ctx context.Context) (adminStore, *config.CLIConfig, error)
	migrate   func(ctx context.Context) error
	now       func() time.Time
}

func defaultApp() *app {
	return &app{
		openStore: openPostgres,
		migrate:   migratePostgres,
		now:       time.Now,
	}
}

func openPostgres(ctx context.Context) (adminStore, *config.CLIConfig, error) {
	cfg, err := config.LoadCLIConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, nil, err
	}

	store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		SkipMigrations:  true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return store, cfg, nil
}

func migratePostgres(ctx context.Context) error {
	cfg, err := config.LoadCLIConfig()
	if err != nil {
		return err
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}
	return postgres.Migrate(ctx, cfg.Database.DSN)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "hearthctl",
		Short: "Administer a hearth reminder deployment",
		Long: `hearthctl manages households and API keys, applies database migrations
and previews schedules without touching the database.

Database commands read HEARTH_DB_DSN from the environment.

Examples:
  hearthctl migrate
  hearthctl household create --name "Home" --timezone Europe/Helsinki
  hearthctl apikey create --household <id> --name laptop --days 90
  hearthctl preview --frequency weekly --time 08:00 --start 2025-12-01 --days mon,thu`,
		SilenceUsage: true,
	}

	root.AddCommand(newHouseholdCmd(a))
	root.AddCommand(newAPIKeyCmd(a))
	root.AddCommand(newPreviewCmd(a))
	root.AddCommand(newMigrateCmd(a))
	return root
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

// withStore opens the store for one command and closes it afterwards.
func (a *app) withStore(ctx context.Context, fn func(adminStore, *config.CLIConfig) error) error {
	store, cfg, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store, cfg)
}

func run(args []string, out, errOut io.Writer) error {
	root := newRootCmd(defaultApp())
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(context.Background())
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
