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

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"heartgram/internal/analytics"
	"heartgram/internal/caching"
	"heartgram/internal/config"
	"heartgram/internal/handlers"
	"heartgram/internal/jobs/background"
	"heartgram/internal/middleware"
	"heartgram/internal/models"
	"heartgram/internal/repositories"
	"heartgram/internal/services"
	"heartgram/pkg/database"
	"heartgram/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Development: !cfg.App.IsProduction(),
		OutputPath:  "stdout",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer log.Sync()

	if cfg.JWT.Generated {
		log.Warn("JWT_SECRET not set, using a generated secret; tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer cacheSvc.Close()

	assetStore, err := services.NewMinioAssetStore(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL, cfg.MinIO.PublicURL)
	if err != nil {
		log.Fatal("Failed to initialize MinIO asset store", zap.Error(err))
	}
	if err := assetStore.EnsureBucket(ctx); err != nil {
		log.Warn("Could not ensure asset bucket exists", zap.Error(err), zap.String("bucket", cfg.MinIO.Bucket))
	}

	var mailer services.Mailer
	if cfg.SMTP.Host != "" {
		mailer = services.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		log.Warn("SMTP_HOST not set, outgoing mail is only logged")
		mailer = services.NewLogMailer(log)
	}

	// Repositories
	operatorRepo := repositories.NewOperatorRepo(pool)
	memberRepo := repositories.NewMemberRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)

	// Services
	hasher := services.NewHasher(cfg.Security.BcryptCost)
	generator := services.NewCredentialGenerator(tenantRepo)
	identitySvc := services.NewIdentityService(operatorRepo, memberRepo, hasher)
	tenantSvc := services.NewTenantService(tenantRepo, generator, cacheSvc, cfg.Redis.CacheTTL, log)
	authSvc := services.NewAuthService(identitySvc, tenantSvc, hasher, cacheSvc, services.AuthConfig{
		Secret:          cfg.JWT.Secret,
		TTL:             cfg.JWT.TTL,
		Issuer:          cfg.JWT.Issuer,
		LoginRateLimit:  cfg.Security.LoginRateLimit,
		LoginRateWindow: cfg.Security.LoginRateWindow,
	}, log)
	rosterSvc := services.NewRosterService(identitySvc, generator, log)
	invitationSvc := services.NewInvitationService(identitySvc, hasher, mailer, services.InvitationConfig{
		Concurrency: cfg.Invite.Concurrency,
		SendTimeout: cfg.Invite.SendTimeout,
		BaseURL:     cfg.App.PublicURL,
	}, log)
	accessSvc := services.NewAccessService(tenantSvc, log)
	provisioningSvc := services.NewProvisioningService(identitySvc, tenantSvc, authSvc, generator, mailer, cfg.App.PublicURL, log)
	analyticsSvc := analytics.NewAnalyticsService(tenantRepo, memberRepo, operatorRepo, cacheSvc, cfg.Redis.CacheTTL, log)

	// Background jobs
	if cfg.Sweep.Enabled {
		scheduler, err := background.NewJobScheduler(tenantRepo, analyticsSvc, background.Config{
			Interval: cfg.Sweep.Interval,
			Grace:    cfg.Sweep.Grace,
		}, log)
		if err != nil {
			log.Fatal("Failed to create job scheduler", zap.Error(err))
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				log.Warn("Job scheduler shutdown failed", zap.Error(err))
			}
		}()
	}

	// Middleware
	rbacMiddleware := middleware.NewRBACMiddleware(tenantSvc)
	auditMiddleware := middleware.NewAuditMiddleware(log)
	versionMiddleware := middleware.NewVersionMiddleware()

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, provisioningSvc)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc, identitySvc, accessSvc, provisioningSvc, analyticsSvc)
	coupleHandlers := handlers.NewCoupleHandlers(tenantSvc, accessSvc, provisioningSvc)
	guestHandlers := handlers.NewGuestHandlers(identitySvc, rosterSvc, invitationSvc, cfg.Import.MaxBytes)
	logoHandlers := handlers.NewLogoHandlers(assetStore)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, assetStore)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(log)

	// Global middleware
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.BodyLimit(fmt.Sprintf("%dB", cfg.Import.MaxBytes+(6<<20))))
	e.Use(auditMiddleware.AuditRequest())
	e.Use(versionMiddleware.APIVersionResolver())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	v1 := versionMiddleware.VersionRoute(e, "v1")

	// Authentication routes
	auth := v1.Group("/auth")
	auth.POST("/admin/login", authHandlers.AdminLogin)
	auth.POST("/couple/login", authHandlers.CoupleLogin)
	auth.POST("/couple/register", authHandlers.CoupleRegister)
	auth.POST("/guest/login", authHandlers.GuestLogin)

	jwtAuth := middleware.JWTAuth(authSvc)
	auth.GET("/me", authHandlers.Me, jwtAuth)

	// Administrator routes
	admin := v1.Group("/admin", jwtAuth, rbacMiddleware.RequireRole(models.RoleAdmin))
	admin.GET("/dashboard", tenantHandlers.Dashboard)
	admin.GET("/events", tenantHandlers.ListEvents)
	admin.POST("/events", tenantHandlers.CreateEvent)
	admin.GET("/events/:id", tenantHandlers.GetEvent)
	admin.PUT("/events/:id", tenantHandlers.UpdateEvent)
	admin.POST("/events/:id/revoke", tenantHandlers.RevokeEvent)
	admin.GET("/events/:id/guests", tenantHandlers.ListEventGuests)

	// Couple routes; reads resolve the event, mutations also need it active
	couple := v1.Group("/couple", jwtAuth, rbacMiddleware.RequireRole(models.RoleCouple))
	couple.GET("/dashboard", coupleHandlers.Dashboard)
	couple.POST("/event", coupleHandlers.CreateEvent)
	couple.POST("/event/revoke", coupleHandlers.Revoke)

	coupleRead := couple.Group("", rbacMiddleware.CoupleTenant(false))
	coupleRead.GET("/guests", guestHandlers.ListGuests)
	coupleRead.GET("/event/logos", logoHandlers.ListLogos)

	coupleWrite := couple.Group("", rbacMiddleware.CoupleTenant(true))
	coupleWrite.PUT("/event/details", coupleHandlers.UpdateDetails)
	coupleWrite.PUT("/event/branding", coupleHandlers.UpdateBranding)
	coupleWrite.POST("/event/logos", logoHandlers.UploadLogo)
	coupleWrite.DELETE("/event/logos", logoHandlers.DeleteLogo)
	coupleWrite.POST("/guests/import", guestHandlers.ImportGuests)
	coupleWrite.POST("/guests/invitations", guestHandlers.SendInvitations)

	// Guest routes
	guest := v1.Group("/guest", jwtAuth, rbacMiddleware.RequireRole(models.RoleGuest), rbacMiddleware.GuestTenant())
	guest.GET("/event", guestHandlers.GetEvent)

	go func() {
		log.Info("Heartgram server starting", zap.String("version", version), zap.Int("port", cfg.App.Port))
		if err := e.Start(fmt.Sprintf(":%d", cfg.App.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
