package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/signalpage/signalpage/internal/auth"
	"github.com/signalpage/signalpage/internal/config"
	"github.com/signalpage/signalpage/internal/database"
	"github.com/signalpage/signalpage/internal/handlers"
	"github.com/signalpage/signalpage/internal/server"
	"github.com/signalpage/signalpage/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Run the HTTP API; blocks until SIGINT/SIGTERM and then drains in-flight requests.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, notifications, err := buildHandlers(ctx, cfg, db, log)
	if err != nil {
		return err
	}

	router := server.NewRouter(h, server.Options{
		Verifier:    auth.NewVerifier(cfg.JWTSecret, cfg.JWTAudience),
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})
	err = server.Run(ctx, cfg.HTTPAddr, router, log)

	// Let queued email and Slack deliveries finish before exiting.
	notifications.Wait()
	log.Info("goodbye")
	return err
}

func setupGenerator(ctx context.Context, cfg *config.Config, log *zap.Logger) services.Generator {
	gen, err := services.NewGenerator(ctx, cfg.LLMProvider, cfg.GeminiAPIKey, cfg.LLMModel)
	if err != nil {
		log.Warn("llm unavailable, falling back to local heuristics", zap.String("provider", cfg.LLMProvider), zap.Error(err))
		return nil
	}
	if gen == nil {
		log.Info("llm disabled")
		return nil
	}
	log.Info("llm configured", zap.String("provider", cfg.LLMProvider), zap.String("model", gen.Model()))
	return gen
}

func setupChannels(cfg *config.Config, log *zap.Logger) []services.Channel {
	channels := []services.Channel{services.NewSlackChannel()}
	if cfg.MailEnabled() {
		log.Info("email notifications enabled", zap.String("smtp_host", cfg.SMTPHost))
		channels = append(channels, services.NewEmailChannel(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom))
	}
	return channels
}

func setupGateway(cfg *config.Config, log *zap.Logger) services.PaymentGateway {
	if !cfg.BillingEnabled() {
		log.Warn("billing disabled: STRIPE_SECRET_KEY or STRIPE_PRICE_ID missing")
		return nil
	}
	return services.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
}

func buildHandlers(ctx context.Context, cfg *config.Config, db *gorm.DB, log *zap.Logger) (server.Handlers, *services.NotificationService, error) {
	if cfg.BillingEnabled() && cfg.StripeWebhookSecret == "" {
		return server.Handlers{}, nil, errors.New("STRIPE_WEBHOOK_SECRET is required when billing is enabled")
	}

	llm := services.NewLLMService(setupGenerator(ctx, cfg, log), log)
	profiles := services.NewProfileService(db)
	settings := services.NewSettingsService(db)
	resumes := services.NewResumeService(db, llm, log)
	jobs := services.NewJobService(db)
	notifications := services.NewNotificationService(db, settings, log, setupChannels(cfg, log)...)

	billing := services.NewBillingService(db, setupGateway(cfg, log), profiles, notifications, services.BillingConfig{
		PriceID:       cfg.StripePriceID,
		BaseURL:       cfg.PublicBaseURL,
		FreePageLimit: cfg.FreePageLimit,
	}, log)

	pages := services.NewSignalPageService(db, services.SignalPageDeps{
		Resumes:       resumes,
		Jobs:          jobs,
		Profiles:      profiles,
		Settings:      settings,
		Matcher:       services.NewMatcherService(),
		LLM:           llm,
		Notifications: notifications,
		Plans:         billing,
		Limiter:       services.NewUserLimiter(cfg.GenerateRatePerMinute),
		BaseURL:       cfg.PublicBaseURL,
	}, log)

	h := server.Handlers{
		Jobs:          handlers.NewJobHandler(llm, jobs),
		Resumes:       handlers.NewResumeHandler(resumes),
		Pages:         handlers.NewSignalPageHandler(pages),
		Notifications: handlers.NewNotificationHandler(notifications),
		Accounts:      handlers.NewAccountHandler(profiles, settings),
		Billing:       handlers.NewBillingHandler(billing),
		Public:        handlers.NewPublicHandler(pages),
	}
	return h, notifications, nil
}
