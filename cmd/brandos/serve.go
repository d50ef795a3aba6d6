package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/config"
	"github.com/jonathan/brandos/internal/server"
	"github.com/jonathan/brandos/internal/server/ratelimit"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server and dashboard",
	Long: `Start an HTTP server that exposes the analysis, AEO and content studio
endpoints plus the HTML dashboard. Mutating routes require a bearer token
when JWT_SECRET is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: $PORT or 8080)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{needLLM: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if a.db != nil && serveMigrate {
		if err := a.db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	cfg := server.Config{
		Port:   a.env.Port,
		Deps:   a.deps,
		Logger: a.logger,
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	if a.db != nil {
		cfg.Store = a.db
	}
	if cfg.RateLimit, err = ratelimit.LoadConfig(); err != nil {
		return err
	}
	if os.Getenv("JWT_SECRET") != "" {
		if cfg.JWT, err = config.NewJWTConfig(); err != nil {
			return err
		}
	} else {
		a.logger.Warn("JWT_SECRET not set; write endpoints are unauthenticated")
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	a.logger.Info("brandos ready", zap.Int("port", cfg.Port), zap.Bool("database", a.db != nil))
	return srv.Start(ctx)
}

// commandContext returns the command's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
