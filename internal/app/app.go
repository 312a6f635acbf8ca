package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/auralearn/companion-api/internal/config"
	"github.com/auralearn/companion-api/internal/domain"
	"github.com/auralearn/companion-api/internal/handler"
	"github.com/auralearn/companion-api/internal/repository"
	"github.com/auralearn/companion-api/internal/service"
	"github.com/auralearn/companion-api/pkg/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	repos := repository.NewRepositories(infra.Postgres())

	sessionCache := service.NewSessionCache(infra.Redis(), cfg.Session.CacheTTL.Duration)
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(
		repos.User,
		repos.Session,
		repos.Subscription,
		repos.Achievement,
		sessionCache,
		cfg.Security.BCryptCost,
		cfg.Session.TokenTTL.Duration,
	)

	progressService := service.NewProgressService(
		repos.Progress,
		repos.Achievement,
		cfg.Journeys.CoreTotal,
		cfg.Journeys.GmailTotal,
	)

	authHandler := handler.NewAuthHandler(authService)
	coreProgress := handler.NewProgressHandler(progressService, domain.NamespaceCore)
	gmailProgress := handler.NewProgressHandler(progressService, domain.NamespaceGmail)

	router := gin.Default()
	router.Use(otelgin.Middleware("companion-api"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, authHandler, coreProgress, gmailProgress, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	coreProgress *handler.ProgressHandler,
	gmailProgress *handler.ProgressHandler,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	requireAuth := handler.AuthMiddleware(authService)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register",
				handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.IPBasedKey),
				authHandler.Register,
			)
			auth.POST("/login",
				handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.IPBasedKey),
				authHandler.Login,
			)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.POST("/logout-all", requireAuth, authHandler.LogoutAll)
			auth.GET("/me", requireAuth, authHandler.GetMe)
			auth.PATCH("/me", requireAuth, authHandler.UpdateMe)
			auth.POST("/complete-onboarding", requireAuth, authHandler.CompleteOnboarding)
		}

		progress := api.Group("/progress", requireAuth)
		{
			progress.GET("", coreProgress.List)
			progress.GET("/achievements/all", coreProgress.Achievements)
			progress.GET("/stats/summary", coreProgress.Stats)
			progress.GET("/:journeyId", coreProgress.Get)
			progress.PUT("/:journeyId", coreProgress.Upsert)
			progress.POST("/:journeyId/steps/:stepIndex", coreProgress.RecordStep)
		}

		gmail := api.Group("/gmail-progress", requireAuth)
		{
			gmail.GET("", gmailProgress.List)
			gmail.GET("/:journeyId", gmailProgress.Get)
			gmail.PUT("/:journeyId", gmailProgress.Upsert)
			gmail.POST("/:journeyId/steps/:stepIndex", gmailProgress.RecordStep)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
