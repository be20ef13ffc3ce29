package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitrine/storefront/config"
	"github.com/vitrine/storefront/internal/adminapi"
	"github.com/vitrine/storefront/internal/app"
	"github.com/vitrine/storefront/internal/webserver"
)

var (
	version   = "dev"
	buildTime = "unknown"

	configFile string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront catalog admin service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "storefront.yml", "config file")
	root.AddCommand(serveCmd(), initdbCmd(), tokenCmd(), versionCmd())
	return root
}

func loadApp() (*app.Application, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		return nil, err
	}
	return application, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the admin api server",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Release()

			adminapi.Init()
			server := webserver.NewAdminServer(application)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				zap.L().Info("shutting down admin api server")
				return server.Shutdown(context.Background())
			}
		},
	}
}

func initdbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Drop and recreate the catalog tables (gorm backend only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if cfg.Backend.Mode != app.BackendGorm {
				return fmt.Errorf("initdb needs backend.mode %q, got %q", app.BackendGorm, cfg.Backend.Mode)
			}
			cfg.System.Seed = false
			application := app.NewApplication(cfg)
			if err := application.Init(cfg); err != nil {
				return err
			}
			defer application.Release()
			application.InitDb()
			zap.L().Info("database initialized")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin bearer token signed with web.jwt_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if cfg.Web.JwtSecret == "" {
				return fmt.Errorf("web.jwt_secret is not set")
			}
			token, err := webserver.IssueAdminToken(cfg.Web.JwtSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "storefront %s (built %s)\n", version, buildTime)
		},
	}
}
