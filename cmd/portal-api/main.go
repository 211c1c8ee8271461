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
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edu-portal-api/api/swagger"
	"github.com/noah-isme/edu-portal-api/internal/handler"
	"github.com/noah-isme/edu-portal-api/internal/middleware"
	"github.com/noah-isme/edu-portal-api/internal/repository"
	"github.com/noah-isme/edu-portal-api/internal/server"
	"github.com/noah-isme/edu-portal-api/internal/service"
	"github.com/noah-isme/edu-portal-api/pkg/broker/rabbitmq"
	"github.com/noah-isme/edu-portal-api/pkg/cache"
	"github.com/noah-isme/edu-portal-api/pkg/config"
	"github.com/noah-isme/edu-portal-api/pkg/database"
	"github.com/noah-isme/edu-portal-api/pkg/jobs"
	"github.com/noah-isme/edu-portal-api/pkg/logger"
	"github.com/noah-isme/edu-portal-api/pkg/mailer"
	"github.com/noah-isme/edu-portal-api/pkg/payment/midtrans"
	"github.com/noah-isme/edu-portal-api/pkg/reporting"
)

// @title Edu Portal API
// @version 1.0.0
// @description Classes, events, enrollments and checkout for the education portal
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	reporter := reporting.New(cfg.Reporting.RollbarToken, cfg.Env, cfg.Reporting.CodeVersion)
	defer reporter.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	eventRepo := repository.NewEventRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	linkRepo := repository.NewParentChildRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	mentorRepo := repository.NewMentorRepository(db)
	configRepo := repository.NewConfigurationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	notifyDeps := service.NotificationDeps{
		Users:         userRepo,
		Classes:       classRepo,
		Events:        eventRepo,
		Metrics:       metricsSvc,
		PublicBaseURL: cfg.PublicBaseURL,
		Queue: jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.Retries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
		},
	}
	if cfg.Broker.Enabled {
		publisher, err := rabbitmq.NewPublisher(cfg.Broker.URL, logr)
		if err != nil {
			logr.Warn("event publishing disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			notifyDeps.Publisher = publisher
		}
	}
	if mail := mailer.NewSendGrid(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress); mail.Enabled() {
		notifyDeps.Mailer = mail
	}
	notificationSvc := service.NewNotificationService(notifyDeps, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	enrollmentCfg := service.EnrollmentServiceConfig{TestRegistrationEnabled: cfg.Enrollment.TestRegistrationEnabled}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, cacheSvc, validate, logr)
	eventSvc := service.NewEventService(eventRepo, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, linkRepo, paymentRepo, classSvc, userRepo, notificationSvc, metricsSvc, validate, logr, enrollmentCfg)
	registrationSvc := service.NewRegistrationService(registrationRepo, paymentRepo, eventSvc, userRepo, notificationSvc, metricsSvc, validate, logr, enrollmentCfg)
	checkoutSvc := service.NewCheckoutService(service.CheckoutDeps{
		Gateway:          midtrans.NewGateway(cfg.Payments.MidtransServerKey, cfg.Payments.Production, cfg.Payments.FinishURL),
		Payments:         paymentRepo,
		Classes:          classRepo,
		Events:           eventRepo,
		Enrollments:      enrollmentRepo,
		Registrations:    registrationRepo,
		EnrollmentFlow:   enrollmentSvc,
		RegistrationFlow: registrationSvc,
		Links:            linkRepo,
		ClassCache:       classSvc,
		EventCache:       eventSvc,
		Metrics:          metricsSvc,
	}, validate, logr)
	curriculumSvc := service.NewCurriculumService(curriculumRepo, classRepo, enrollmentSvc, validate, logr)
	overviewSvc := service.NewOverviewService(service.OverviewDeps{
		Classes:                 classSvc,
		Events:                  eventSvc,
		Enrollments:             enrollmentSvc,
		Registrations:           registrationSvc,
		Curriculum:              curriculumSvc,
		TestRegistrationEnabled: cfg.Enrollment.TestRegistrationEnabled,
	}, logr)
	configSvc := service.NewConfigurationService(configRepo, userRepo, validate, logr, service.ConfigurationServiceConfig{
		TestRegistrationEnabled: cfg.Enrollment.TestRegistrationEnabled,
	})

	handlers := server.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Session:       handler.NewSessionHandler(service.NewSessionService()),
		Users:         handler.NewUserHandler(userSvc),
		Classes:       handler.NewClassHandler(classSvc),
		Events:        handler.NewEventHandler(eventSvc),
		Overview:      handler.NewOverviewHandler(overviewSvc),
		Enrollments:   handler.NewEnrollmentHandler(enrollmentSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc),
		Checkout:      handler.NewCheckoutHandler(checkoutSvc),
		Curriculum:    handler.NewCurriculumHandler(curriculumSvc),
		Announcements: handler.NewAnnouncementHandler(service.NewAnnouncementService(announcementRepo, classRepo, validate, logr)),
		ParentChild:   handler.NewParentChildHandler(service.NewParentChildService(linkRepo, userRepo, userRepo, validate, logr)),
		Mentors:       handler.NewMentorHandler(service.NewMentorService(mentorRepo, userRepo, validate, logr)),
		Roster:        handler.NewRosterHandler(service.NewRosterService(enrollmentRepo, classRepo, nil, nil, logr)),
		Configuration: handler.NewConfigurationHandler(configSvc),
		Metrics: handler.NewMetricsHandler(metricsSvc, notificationSvc, map[string]handler.ReadinessCheck{
			"postgres": db.PingContext,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		}),
	}

	var errReporter middleware.ErrorReporter
	if reporter.Enabled() {
		errReporter = reporter
	}

	router := server.New(handlers, server.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Tokens:         authSvc,
		Observer:       metricsSvc,
		Audit:          userRepo,
		Reporter:       errReporter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
