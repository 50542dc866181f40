package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/mesh-chile/community-gateway/internal/config"
	"github.com/mesh-chile/community-gateway/internal/github"
	"github.com/mesh-chile/community-gateway/internal/handlers"
	"github.com/mesh-chile/community-gateway/internal/notify"
	"github.com/mesh-chile/community-gateway/internal/promotion"
	"github.com/mesh-chile/community-gateway/internal/ratelimit"
	"github.com/mesh-chile/community-gateway/internal/recaptcha"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)
	log.Info("Starting community-gateway")

	if err := run(log); err != nil {
		log.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	directory, err := github.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("github client: %w", err)
	}

	notifiers := notify.Fanout{
		notify.NewIssueNotifier(directory, cfg.WelcomeRepo, log),
	}
	if cfg.SlackEnabled() {
		log.Info("Slack announcements enabled", slog.String("channel", cfg.SlackChannel))
		notifiers = append(notifiers, notify.NewSlackAnnouncer(cfg.SlackToken, cfg.SlackChannel, log))
	}

	orchestrator := promotion.NewOrchestrator(directory, directory, notifiers, cfg.CollaboratorsTeam, log)

	handlerCtx := &handlers.HandlerContext{
		Cfg:        cfg,
		Log:        log,
		Directory:  directory,
		Classifier: promotion.NewClassifier(cfg.Org, log),
		Engine:     orchestrator,
		Captcha:    recaptcha.New(cfg.RecaptchaSecret, log),
		Started:    time.Now(),
	}

	// Rate limit buckets: the invite endpoint is the abuse target and
	// gets the strictest one.
	throttled := "Too many requests. Try again later."
	generalLimiter := ratelimit.New(rate.Every(3*time.Second), 20, throttled)
	inviteLimiter := ratelimit.New(rate.Every(5*time.Minute), 3, "Too many requests. Try again in 15 minutes.")
	previewLimiter := ratelimit.New(rate.Every(6*time.Second), 10, "Too many user verifications. Try again later.")

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/isready", handlers.HealthCheckHandler)
	r.Get("/isalive", handlers.HealthCheckHandler)

	r.Post("/webhook/github", handlerCtx.WebhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(generalLimiter.Middleware)
		r.Get("/api/config", handlerCtx.ConfigHandler)
		r.Get("/api/bot/status", handlerCtx.StatusHandler)
		r.Get("/api/stats", handlerCtx.StatsHandler)
		r.Post("/api/admin/promote/{username}", handlerCtx.AdminPromoteHandler)
	})
	r.Group(func(r chi.Router) {
		r.Use(inviteLimiter.Middleware)
		r.Post("/api/invite", handlerCtx.InviteHandler)
	})
	r.Group(func(r chi.Router) {
		r.Use(previewLimiter.Middleware)
		r.Get("/api/user/{username}", handlerCtx.UserPreviewHandler)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("Server listening", slog.String("port", cfg.Port),
			slog.String("org", cfg.Org),
			slog.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", slog.Any("error", err))
		}
	}()

	<-done
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
