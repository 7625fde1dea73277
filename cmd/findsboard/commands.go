package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sakif/findsboard/internal/activity"
	"github.com/sakif/findsboard/internal/config"
	"github.com/sakif/findsboard/internal/handler"
	"github.com/sakif/findsboard/internal/repository/sqlstore"
	"github.com/sakif/findsboard/internal/server"
	"github.com/sakif/findsboard/internal/service"
)

// Set at build time with -ldflags "-X main.GitCommit=...".
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "findsboard",
		Short: "Community board for sharing and reviewing finds",
		Long: `findsboard serves a JSON API where members of a Discord server post finds,
tag them, review them, collect them into lists and follow each other's activity.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment (default .env)")

	root.AddCommand(
		newServeCmd(&envFile),
		newMigrateCmd(&envFile),
		newGrantAdminCmd(&envFile),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			logger := cfg.NewLogger(os.Stdout)

			srv, err := server.New(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			// Start blocks until SIGINT or SIGTERM.
			return srv.Start(cmd.Context())
		},
	}
}

// openDatabase loads configuration for the database-only commands.
func openDatabase(ctx context.Context, envFile string) (*sqlstore.DB, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, nil, err
	}
	logger := cfg.NewLogger(os.Stderr)

	db, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return db, logger, nil
}

func newMigrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long:  "Create every missing table and index. Safe to run repeatedly.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, logger, err := openDatabase(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			logger.Info("schema is up to date", slog.String("dialect", string(db.Dialect())))
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newGrantAdminCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "grant-admin <userId>",
		Short: "Give a user the admin role",
		Long:  "Give a user the admin role. This is how the first administrator is created.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			db, logger, err := openDatabase(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			defer db.Close()

			recorder := activity.New(db.Logs(), logger)
			defer recorder.Close()

			users := service.NewUserService(db.Users(), db.Stats(), recorder, logger)
			user, err := users.Promote(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("granting admin to user %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d) is now an admin\n", user.Username, user.ID)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "findsboard version %s\n", handler.Version)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
