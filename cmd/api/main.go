package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/unisync-api/api/swagger"
	"github.com/noah-isme/unisync-api/internal/handler"
	"github.com/noah-isme/unisync-api/internal/service"
	"github.com/noah-isme/unisync-api/pkg/config"
	"github.com/noah-isme/unisync-api/pkg/export"
	"github.com/noah-isme/unisync-api/pkg/imaging"
	"github.com/noah-isme/unisync-api/pkg/jobs"
	"github.com/noah-isme/unisync-api/pkg/logger"
	"github.com/noah-isme/unisync-api/pkg/storage"
)

// @title UniSync API
// @version 1.0.0
// @description Campus announcements, leave and on-duty requests for students, staff and admin
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	store, err := newBackend(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer store.Close(logr)

	local, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL, cfg.Storage.PublicBaseURL)

	metrics := service.NewMetricsService()
	validate := service.NewValidator(cfg.Auth.MinPasswordLength)
	audit := service.NewAuditService(store.audit, logr)
	events := service.NewEventService(store.events, metrics, logr)
	cacheSvc := service.NewCacheService(store.cache, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	files := service.NewFileService(local, signer, service.FileConfig{
		MaxFileSizeBytes: cfg.Storage.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Storage.AllowedMIMEs,
	}, logr)

	notifier, closeNotifier := newNotifier(cfg, logr)
	defer closeNotifier() //nolint:errcheck
	notifications := service.NewNotificationService(notifier, metrics, logr, service.NotificationConfig{
		StaffEmail: cfg.Notifications.StaffEmail,
		AdminEmail: cfg.Notifications.AdminEmail,
		Queue: jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.Retries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
		},
	})
	notifications.Start(ctx)
	defer notifications.Stop()

	auth := service.NewAuthService(store.users, store.sessions, validate, audit, logr, service.AuthConfig{
		AccessTokenSecret:    cfg.JWT.Secret,
		AccessTokenExpiry:    cfg.JWT.Expiration,
		SessionTTL:           cfg.JWT.SessionTTL,
		Issuer:               cfg.JWT.Issuer,
		ApprovedDomains:      cfg.Auth.ApprovedDomains,
		AuthorizedStudentIDs: cfg.Auth.AuthorizedStudentIDs,
	})
	announcements := service.NewAnnouncementService(store.announcements, store.bookmarks, files, cacheSvc, events, audit, validate, logr)
	letters := service.NewLetterService(export.NewLetterRenderer(), files, cfg.Letters.Institution, logr)
	leave := service.NewLeaveService(store.requests, store.users, letters, notifications, events, audit, metrics, validate, logr)
	profiles := service.NewProfileService(store.users, files, imaging.NewAvatarProcessor(cfg.Storage.AvatarSize), validate, audit, logr)
	dashboard := service.NewDashboardService(service.DashboardServiceParams{
		Announcements: announcements,
		Requests:      leave,
		Profiles:      profiles,
		Logger:        logr,
	})

	router := handler.NewRouter(handler.RouterDeps{
		Logger:         logr,
		Metrics:        metrics,
		Authenticator:  auth,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		APIPrefix:      cfg.APIPrefix,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Auth:           handler.NewAuthHandler(auth, cfg.Env == config.EnvProduction),
		Profile:        handler.NewProfileHandler(profiles),
		Announcements:  handler.NewAnnouncementHandler(announcements),
		Leave:          handler.NewLeaveHandler(leave),
		Dashboard:      handler.NewDashboardHandler(dashboard),
		Events:         handler.NewEventsHandler(events, cfg.Events.Heartbeat),
		Files:          handler.NewFilesHandler(files),
		Audit:          handler.NewAuditHandler(audit),
		System:         handler.NewMetricsHandler(metrics, cfg.BackendMode),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.BackendMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
