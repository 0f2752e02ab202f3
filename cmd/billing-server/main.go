package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/config"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/authorization"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/claims"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/denial"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/eligibility"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/payerrules"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/scrubbing"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/submission"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/platform/auth"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/platform/db"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "billing-server",
		Short: "Claim validation and billing API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the billing API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	apiV1 := e.Group("/api/v1")

	// -- Register Domain Handlers --

	runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.RunInTx(ctx, pool, fn)
	}

	// Claims domain
	claimRepo := claims.NewRepoPG(pool)
	claimSvc := claims.NewService(claimRepo, runTx)
	claimHandler := claims.NewHandler(claimSvc)
	claimHandler.RegisterRoutes(apiV1)

	// Payers and rules domain
	payerRepo := payerrules.NewPayerRepoPG(pool)
	ruleRepo := payerrules.NewRuleRepoPG(pool)
	payerSvc := payerrules.NewService(payerRepo, ruleRepo)
	payerHandler := payerrules.NewHandler(payerSvc)
	payerHandler.RegisterRoutes(apiV1)

	// Eligibility domain
	eligRepo := eligibility.NewRepoPG(pool)
	eligSvc := eligibility.NewService(eligRepo)
	eligHandler := eligibility.NewHandler(eligSvc)
	eligHandler.RegisterRoutes(apiV1)

	// Authorization domain
	authRepo := authorization.NewRepoPG(pool)
	authSvc := authorization.NewService(authRepo)
	authHandler := authorization.NewHandler(authSvc)
	authHandler.RegisterRoutes(apiV1)

	// Scrubbing pipeline, fed by the other domains
	scrubber := scrubbing.NewScrubber(authSvc, eligSvc, claimRepo, payerSvc)

	// Submission orchestrator
	submitSvc := submission.NewService(claimRepo, scrubber, runTx, cfg.ClaimPrefix, time.Duration(cfg.ScrubTimeoutMS)*time.Millisecond)
	submitHandler := submission.NewHandler(submitSvc)
	submitHandler.RegisterRoutes(apiV1)

	// Denial records and risk estimator
	denialRepo := denial.NewRepoPG(pool)
	denialSvc := denial.NewService(denialRepo, claimRepo, payerSvc)
	denialHandler := denial.NewHandler(denialSvc)
	denialHandler.RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped cleanly")
	return nil
}
