package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svcadmin/auth"
	"svcadmin/config"
	"svcadmin/customer"
	"svcadmin/database"
	"svcadmin/incentive"
	"svcadmin/logging"
	"svcadmin/report"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "svcadmin",
		Short:        "Back office for a device service shop",
		Long:         "svcadmin serves the employee, customer, device, coupon and incentive API\nand runs maintenance tasks against the same database.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "path to the JSON config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newImportCmd(&configPath),
		newTokenCmd(&configPath),
	)
	return root
}

// bootstrap loads the config, installs the logger and opens the database.
func bootstrap(ctx context.Context, configPath string) (config.Config, *sqlx.DB, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return cfg, nil, nil, err
	}
	logger, err := logging.New(cfg.Env.LogLevel)
	if err != nil {
		return cfg, nil, nil, err
	}

	zap.S().Infof("Connecting to %s database...", cfg.DatabaseDriver)
	db, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Sync()
		return cfg, nil, nil, err
	}
	cleanup := func() {
		db.Close()
		logger.Sync()
	}
	return cfg, db, cleanup, nil
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, db, cleanup, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := database.InitDatabase(db); err != nil {
				return fmt.Errorf("database initialization failed: %w", err)
			}
			zap.S().Info("Database initialization complete.")

			verifier, err := auth.NewVerifier(cfg.Env.JWTSecret, cfg.Env.JWTIssuer, cfg.Env.JWTAudience)
			if err != nil {
				return err
			}

			milestones := incentive.NewMilestones(incentive.DefaultMilestones)
			if err := milestones.Reload(cfg.MilestonesFile); err != nil {
				zap.S().Warnf("Failed to load milestones: %v. Using defaults.", err)
			}
			config.Watch(func(c config.Config) {
				if err := milestones.Reload(c.MilestonesFile); err != nil {
					zap.S().Warnf("Failed to reload milestones: %v", err)
				}
			})

			s := &server{db: db, verifier: verifier, milestones: milestones, pdf: report.BrowserPDF{Bin: cfg.Env.BrowserBin}}
			mux := http.NewServeMux()
			SetupRoutes(mux, s)

			srv := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           requestLogger(mux),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				zap.S().Infof("Starting server on %s", cfg.ListenAddr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server start error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			zap.S().Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			zap.S().Info("Server stopped.")
			return nil
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, cleanup, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := database.InitDatabase(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date.")
			return nil
		},
	}
}

func newImportCmd(configPath *string) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-load data from files",
	}
	importCmd.AddCommand(&cobra.Command{
		Use:   "customers <file.csv>",
		Short: "Import customers from a CSV file (UTF-8 or Shift-JIS)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, cleanup, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := database.InitDatabase(db); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := customer.Import(db, f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %d, updated %d, skipped %d\n", res.Created, res.Updated, res.Skipped)
			for _, m := range res.Messages {
				fmt.Fprintln(out, "  "+m)
			}
			return nil
		},
	})
	return importCmd
}

func newTokenCmd(configPath *string) *cobra.Command {
	var (
		employeeID int64
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an employee (local use)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if employeeID <= 0 {
				return errors.New("--employee is required")
			}
			cfg, db, cleanup, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			verifier, err := auth.NewVerifier(cfg.Env.JWTSecret, cfg.Env.JWTIssuer, cfg.Env.JWTAudience)
			if err != nil {
				return err
			}
			e, err := database.GetEmployee(db, employeeID)
			if err != nil {
				return fmt.Errorf("employee %d: %w", employeeID, err)
			}
			if !e.Active {
				return fmt.Errorf("employee %s is deactivated", e.Code)
			}
			token, err := verifier.Mint(*e, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&employeeID, "employee", 0, "employee id the token is for")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
