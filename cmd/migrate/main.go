// Command migrate manages the database schema and bootstraps the first
// administrator account.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	identityapp "github.com/tiller/backend/internal/application/identity"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/infrastructure/config"
	"github.com/tiller/backend/internal/infrastructure/logger"
	"github.com/tiller/backend/internal/infrastructure/migration"
	"github.com/tiller/backend/internal/infrastructure/persistence"
	"github.com/tiller/backend/migrations"
	"go.uber.org/zap"
)

type cli struct {
	logLevel string
	dir      string
	log      *zap.Logger
	cfg      *config.Config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Tiller database schema tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(logger.Config{Level: c.logLevel, Format: "console", Output: "stdout"})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.dir, "dir", "migrations/postgres", "migrations directory used by create and list")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return c.withMigrator((*migration.Migrator).Up)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return c.withMigrator((*migration.Migrator).Down)
			},
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations, or roll back when N is negative",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return c.withMigrator(func(m *migration.Migrator) error { return m.Steps(n) })
			},
		},
		&cobra.Command{
			Use:   "goto VERSION",
			Short: "Migrate up or down to VERSION",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return c.withMigrator(func(m *migration.Migrator) error { return m.GoTo(uint(v)) })
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied and clear the dirty flag",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return c.withMigrator(func(m *migration.Migrator) error { return m.Force(v) })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return c.withMigrator(func(m *migration.Migrator) error {
					st, err := m.Status()
					if err != nil {
						return err
					}
					if !st.Applied {
						c.log.Info("No migrations applied")
						return nil
					}
					c.log.Info("Current schema version", zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create an empty up/down migration pair in --dir",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				mf, err := migration.CreateMigration(c.dir, args[0], time.Now())
				if err != nil {
					return err
				}
				c.log.Info("Migration created",
					zap.String("version", mf.Version),
					zap.String("up_file", mf.UpPath),
					zap.String("down_file", mf.DownPath))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the migrations in --dir",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				names, err := migration.ListMigrations(c.dir)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
		c.createAdminCommand(),
	)
	return root
}

func (c *cli) loadConfig() error {
	if c.cfg != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *cli) withMigrator(fn func(*migration.Migrator) error) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	source, err := migrations.For(c.cfg.Database.Driver)
	if err != nil {
		return err
	}
	db, err := migration.OpenDB(&c.cfg.Database)
	if err != nil {
		return err
	}
	m, err := migration.New(db, c.cfg.Database.Driver, source, c.log)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			c.log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return fn(m)
}

func (c *cli) createAdminCommand() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a SUPERADMIN account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("TILLER_ADMIN_PASSWORD")
			}
			if err := c.loadConfig(); err != nil {
				return err
			}
			db, err := persistence.NewDatabase(&c.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			users := identityapp.NewUserService(persistence.NewGormUserRepository(db.DB), nil, nil, c.log)
			user, err := users.Create(ctx, identityapp.CreateUserRequest{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     string(identity.RoleSuperAdmin),
			})
			if err != nil {
				return fmt.Errorf("failed to create administrator: %w", err)
			}
			c.log.Info("Administrator created", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password (defaults to $TILLER_ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
