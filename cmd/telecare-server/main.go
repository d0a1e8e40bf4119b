package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/telecare/telecare/internal/config"
	"github.com/telecare/telecare/internal/domain/dashboard"
	"github.com/telecare/telecare/internal/domain/diary"
	"github.com/telecare/telecare/internal/domain/identity"
	"github.com/telecare/telecare/internal/domain/materials"
	"github.com/telecare/telecare/internal/domain/notification"
	"github.com/telecare/telecare/internal/domain/questionnaire"
	"github.com/telecare/telecare/internal/domain/safetyplan"
	"github.com/telecare/telecare/internal/domain/scheduling"
	"github.com/telecare/telecare/internal/platform/auth"
	"github.com/telecare/telecare/internal/platform/db"
	"github.com/telecare/telecare/internal/platform/middleware"
	"github.com/telecare/telecare/internal/platform/websocket"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "telecare-server",
		Short: "Telecare therapy platform API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(therapistCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the telecare API server",
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
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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

func therapistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "therapist",
		Short: "Manage the therapist account",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create the therapist account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if name == "" || email == "" || password == "" {
				return fmt.Errorf("--name, --email and --password are required")
			}

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

			svc := identity.NewService(identity.NewUserRepoPG(pool), cfg.TherapistEmail)
			user, err := svc.CreateTherapist(ctx, name, email, password)
			if err != nil {
				return err
			}

			fmt.Printf("Therapist created: %s <%s> (%s)\n", user.Name, user.Email, user.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Therapist display name")
	createCmd.Flags().String("email", "", "Therapist login email")
	createCmd.Flags().String("password", "", "Initial password")

	cmd.AddCommand(createCmd)
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
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Token issuer
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, "telecare", time.Duration(cfg.JWTTTLHours)*time.Hour)

	// WebSocket hub
	hub := websocket.NewHub()

	// Repositories
	userRepo := identity.NewUserRepoPG(pool)
	apptRepo := scheduling.NewAppointmentRepoPG(pool)
	notifRepo := notification.NewNotificationRepoPG(pool)
	diaryRepo := diary.NewEntryRepoPG(pool)
	questRepo := questionnaire.NewQuestionnaireRepoPG(pool)
	questAssignRepo := questionnaire.NewAssignmentRepoPG(pool)
	questResponseRepo := questionnaire.NewResponseRepoPG(pool)
	materialRepo := materials.NewMaterialRepoPG(pool)
	materialAssignRepo := materials.NewAssignmentRepoPG(pool)
	planRepo := safetyplan.NewPlanRepoPG(pool)

	// Services
	identitySvc := identity.NewService(userRepo, cfg.TherapistEmail)
	notifSvc := notification.NewService(notifRepo, &HubEventPublisher{Hub: hub}, logger)
	schedulingSvc := scheduling.NewService(apptRepo, identitySvc, notifSvc, logger)
	diarySvc := diary.NewService(diaryRepo)
	questSvc := questionnaire.NewService(questRepo, questAssignRepo, questResponseRepo, notifSvc, logger)
	materialSvc := materials.NewService(materialRepo, materialAssignRepo, notifSvc, logger)
	planSvc := safetyplan.NewService(planRepo, notifSvc, logger)
	dashboardSvc := dashboard.NewService(schedulingSvc, identitySvc, notifSvc, questSvc, planSvc, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger, cfg.IsProduction())

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	// Handlers
	identityHandler := identity.NewHandler(identitySvc, issuer)
	schedulingHandler := scheduling.NewHandler(schedulingSvc)
	notifHandler := notification.NewHandler(notifSvc)
	diaryHandler := diary.NewHandler(diarySvc)
	questHandler := questionnaire.NewHandler(questSvc)
	materialHandler := materials.NewHandler(materialSvc)
	planHandler := safetyplan.NewHandler(planSvc)
	dashboardHandler := dashboard.NewHandler(dashboardSvc)

	// Public routes
	public := e.Group("/api/v1")
	identityHandler.RegisterPublicRoutes(public)

	// Authenticated routes
	api := e.Group("/api/v1", auth.Middleware(issuer))
	identityHandler.RegisterRoutes(api)
	schedulingHandler.RegisterRoutes(api)
	notifHandler.RegisterRoutes(api)
	diaryHandler.RegisterRoutes(api)
	questHandler.RegisterRoutes(api)
	materialHandler.RegisterRoutes(api)
	planHandler.RegisterRoutes(api)
	dashboardHandler.RegisterRoutes(api)

	// WebSocket endpoint (token is passed as a query parameter because
	// browsers cannot set headers on upgrade requests)
	wsHandler := websocket.NewHandler(hub, &TokenVerifierAdapter{Issuer: issuer})
	wsHandler.RegisterRoutes(e)

	// Health check endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
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

// TokenVerifierAdapter adapts auth.TokenIssuer to websocket.TokenVerifier,
// avoiding a dependency from the websocket package on the auth package.
type TokenVerifierAdapter struct {
	Issuer *auth.TokenIssuer
}

func (a *TokenVerifierAdapter) VerifyToken(token string) (uuid.UUID, error) {
	claims, err := a.Issuer.Parse(token)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.Subject)
}

// HubEventPublisher adapts websocket.Hub to notification.EventPublisher,
// avoiding a circular import between the two packages.
type HubEventPublisher struct {
	Hub *websocket.Hub
}

func (p *HubEventPublisher) Publish(ctx context.Context, topic, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Hub.Publish(ctx, websocket.Event{
		Type:      eventType,
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}
