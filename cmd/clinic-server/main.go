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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinichq/clinic/internal/config"
	"github.com/clinichq/clinic/internal/domain/directory"
	"github.com/clinichq/clinic/internal/domain/prescription"
	"github.com/clinichq/clinic/internal/domain/scheduling"
	"github.com/clinichq/clinic/internal/platform/auth"
	"github.com/clinichq/clinic/internal/platform/blobstore"
	"github.com/clinichq/clinic/internal/platform/db"
	"github.com/clinichq/clinic/internal/platform/middleware"
	"github.com/clinichq/clinic/internal/platform/reporting"
	"github.com/clinichq/clinic/pkg/apperror"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
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

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := directory.RegisterAdminInput{}
			in.Username, _ = cmd.Flags().GetString("username")
			in.Password, _ = cmd.Flags().GetString("password")
			in.Email, _ = cmd.Flags().GetString("email")
			in.FirstName, _ = cmd.Flags().GetString("first-name")
			in.LastName, _ = cmd.Flags().GetString("last-name")
			in.Phone, _ = cmd.Flags().GetString("phone")

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

			svc := newDirectoryService(pool, nil)
			admin, identity, err := svc.RegisterAdmin(ctx, in)
			if err != nil {
				return err
			}

			fmt.Printf("Admin %s created (id %s).\n", identity.Username, admin.ID)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Login username")
	createCmd.Flags().String("password", "", "Login password")
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("first-name", "", "First name")
	createCmd.Flags().String("last-name", "", "Last name")
	createCmd.Flags().String("phone", "", "Phone number")
	cmd.AddCommand(createCmd)
	return cmd
}

func newDirectoryService(pool *pgxpool.Pool, provisioner directory.SettingsProvisioner) *directory.Service {
	opts := []directory.ServiceOption{
		directory.WithTxRunner(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		}),
	}
	if provisioner != nil {
		opts = append(opts, directory.WithSettingsProvisioner(provisioner))
	}
	return directory.NewService(
		directory.NewIdentityRepoPG(pool),
		directory.NewAddressRepoPG(pool),
		directory.NewPatientRepoPG(pool),
		directory.NewDoctorRepoPG(pool),
		directory.NewAdminRepoPG(pool),
		opts...,
	)
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	tokens := auth.NewTokenIssuer([]byte(cfg.AuthSigningKey), "clinic",
		time.Duration(cfg.AuthTokenTTL)*time.Minute)

	// Services
	schedulingSvc := scheduling.NewService(
		scheduling.NewAppointmentRepoPG(pool),
		scheduling.NewScheduleRepoPG(pool),
		scheduling.NewTimeOffRepoPG(pool),
		scheduling.NewSettingsRepoPG(pool),
	)
	directorySvc := newDirectoryService(pool, schedulingSvc)
	prescriptionSvc := prescription.NewService(prescription.NewRepoPG(pool))

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(e, logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Public routes: registration and login, closed during maintenance.
	public := e.Group("/api/v1")
	public.Use(middleware.RateLimit(rateLimitCfg))
	public.Use(middleware.Maintenance(cfg.MaintenanceMode, cfg.MaintenanceMessage))

	// Authenticated API.
	api := e.Group("/api/v1")
	api.Use(auth.Middleware(tokens))
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.Audit(logger))

	directory.NewHandler(directorySvc, tokens).RegisterRoutes(public, api)
	scheduling.NewHandler(schedulingSvc, directorySvc).RegisterRoutes(api)
	prescription.NewHandler(prescriptionSvc, directorySvc).RegisterRoutes(api)
	reporting.NewHandler(pool, cfg.AppointmentFee).RegisterRoutes(api)
	blobstore.NewHandler(blobstore.NewInMemoryStore()).RegisterRoutes(api)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// errorHandler maps typed application errors to HTTP statuses before falling
// back to echo's default handling.
func errorHandler(e *echo.Echo, logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if _, ok := err.(*echo.HTTPError); !ok {
			var appErr *apperror.Error
			if errors.As(err, &appErr) {
				err = echo.NewHTTPError(apperror.HTTPStatus(err), appErr.Error())
			} else {
				logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
			}
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
