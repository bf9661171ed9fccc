package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"publication-system/config"
	"publication-system/handlers"
	"publication-system/metrics"
	"publication-system/repositories"
	"publication-system/services"
	"publication-system/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveRun(cmd.Context())
		},
	}
}

func serveRun(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db, logger)

	files, err := newFileManager(cfg, logger)
	if err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer redisClient.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	userRepo := repositories.NewUserRepository(db)
	publicationRepo := repositories.NewPublicationRepository(db)
	conferenceRepo := repositories.NewConferenceRepository(db)
	chairRepo := repositories.NewChairRepository(db)
	submissionRepo := repositories.NewSubmissionRepository(db)

	authService := services.NewAuthService(
		userRepo, publicationRepo, files,
		services.NewOTPStore(redisClient, cfg.OTPTTL),
		services.NewLogMailer(logger),
		services.NewEmailValidator(cfg.EmailMXCheck),
		cfg.JWT(),
		services.SysadminCredentials{Email: cfg.SysadminEmail, Password: cfg.SysadminPassword},
		logger,
	)
	publicationService := services.NewPublicationService(publicationRepo, files, m, logger)
	conferenceService := services.NewConferenceService(conferenceRepo, chairRepo, submissionRepo, publicationRepo, userRepo, m, logger)
	adminService := services.NewAdminService(userRepo, publicationRepo, conferenceRepo, repositories.NewMaintenanceRepository(db), files, logger)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.SetupRouter(handlers.RouterConfig{
		AuthService:        authService,
		PublicationService: publicationService,
		ConferenceService:  conferenceService,
		AdminService:       adminService,
		JWT:                cfg.JWT(),
		UploadsDir:         files.Root(),
		MaxUploadBytes:     cfg.MaxUploadBytes,
		FrontendOrigin:     cfg.FrontendOrigin,
		Metrics:            m,
		Gatherer:           reg,
		Logger:             logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "uploads", files.Root(), "db_driver", cfg.DBDriver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newFileManager(cfg *config.Config, logger *slog.Logger) (*storage.Manager, error) {
	opts := []storage.Option{storage.WithLogger(logger)}
	if cfg.MinioEnabled() {
		mirror, err := storage.NewMinioMirror(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, storage.WithMirror(mirror))
		logger.Info("mirroring approved papers", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	}
	return storage.NewManager(cfg.UploadsDir, cfg.FileOpTimeout, opts...)
}

func closeDB(db *gorm.DB, logger *slog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("close database", "error", err)
	}
}
