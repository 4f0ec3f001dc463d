package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/aula_backend/internal/ai"
	"github.com/Freeeeeet/aula_backend/internal/app"
	"github.com/Freeeeeet/aula_backend/internal/config"
	"github.com/Freeeeeet/aula_backend/internal/controller"
	"github.com/Freeeeeet/aula_backend/internal/notify"
	"github.com/Freeeeeet/aula_backend/internal/repository"
	"github.com/Freeeeeet/aula_backend/internal/repository/base"
	"github.com/Freeeeeet/aula_backend/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting aula backend",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("telegram", cfg.TelegramEnabled()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	// Репозитории
	db := base.NewRepository(pool)
	tx := base.NewTxRunner(pool)
	profesorRepo := repository.NewProfesorRepository(db, logger)
	roleRepo := repository.NewRoleRepository(db)
	linkRepo := repository.NewTelegramLinkRepository(db)
	academicoRepo := repository.NewAcademicoRepository(db)
	asignacionRepo := repository.NewAsignacionRepository(db, logger)
	claseRepo := repository.NewClaseRepository(db, logger)
	versionRepo := repository.NewGuiaVersionRepository(db, logger)
	guiaTemaRepo := repository.NewGuiaTemaRepository(db, logger)
	recomendacionRepo := repository.NewRecomendacionRepository(db, logger)
	resultadoRepo := repository.NewResultadoRepository(db)

	// Уведомления
	var notifier notify.Notifier = notify.Nop{}
	var telegram *notify.TelegramNotifier
	if cfg.TelegramEnabled() {
		telegram, err = notify.NewTelegramNotifier(cfg.TelegramToken, logger)
		if err != nil {
			logger.Fatal("Failed to create telegram notifier", zap.Error(err))
		}
		notifier = telegram
	}

	aiClient := ai.NewClient(ai.Config{
		BaseURL: cfg.AIGatewayURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	}, logger)
	if cfg.AIAPIKey == "" {
		logger.Warn("LOVABLE_API_KEY is not set, AI functions will fail")
	}

	// Сервисы
	userService := service.NewUserService(tx, profesorRepo, roleRepo, linkRepo, logger)
	dashboardService := service.NewDashboardService(academicoRepo, asignacionRepo, claseRepo, guiaTemaRepo, resultadoRepo, logger)
	services := controller.Services{
		Users:        userService,
		Asignaciones: service.NewAsignacionService(profesorRepo, academicoRepo, asignacionRepo, logger),
		Clases:       service.NewClaseService(tx, academicoRepo, claseRepo, guiaTemaRepo, versionRepo, recomendacionRepo, aiClient, logger),
		Sesiones:     service.NewSesionService(tx, academicoRepo, guiaTemaRepo, claseRepo, versionRepo, aiClient, notifier, logger),
		GuiasTema:    service.NewGuiaTemaService(academicoRepo, guiaTemaRepo, aiClient, logger),
		Dashboard:    dashboardService,
		Admin:        service.NewAdminService(profesorRepo, academicoRepo, asignacionRepo, claseRepo, logger),
	}

	if telegram != nil {
		telegram.SetLinker(userService)
		go telegram.Start(ctx)
	}

	scheduler := app.NewScheduler(profesorRepo, dashboardService, notifier, cfg.DigestHour, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry.MustRegister(controller.Collectors()...)
	registry.MustRegister(ai.Collectors()...)

	server := controller.NewServer(controller.AuthConfig{
		Secret: []byte(cfg.SupabaseJWTSecret),
		Issuer: cfg.JWTIssuer(),
	}, cfg.CORSOrigins, services, registry, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Генерация гида ИИ может занимать до AI_TIMEOUT
		WriteTimeout: cfg.AITimeout + 30*time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
