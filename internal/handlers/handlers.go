// Package handlers implements the HTTP boundary of the gateway: the
// GitHub webhook, the invite API, the manual promotion trigger, and the
// informational endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-chile/community-gateway/internal/config"
	"github.com/mesh-chile/community-gateway/internal/github"
	"github.com/mesh-chile/community-gateway/internal/models"
	"github.com/mesh-chile/community-gateway/internal/promotion"
	"github.com/mesh-chile/community-gateway/internal/ratelimit"
	"github.com/mesh-chile/community-gateway/internal/webhook"
)

// Directory is the slice of the GitHub facade the handlers use directly.
type Directory interface {
	User(ctx context.Context, username string) (github.UserProfile, error)
	OrgMembership(ctx context.Context, username string) (promotion.Membership, error)
	GrantTeamMembership(ctx context.Context, team, username, role string) error
	Organization(ctx context.Context) (github.OrgInfo, error)
}

// PromotionEngine runs one promotion attempt to completion.
type PromotionEngine interface {
	Promote(ctx context.Context, intent promotion.Intent) promotion.Outcome
}

// CaptchaVerifier checks invite tokens for bot abuse.
type CaptchaVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token, remoteIP string) bool
}

// HandlerContext holds the dependencies for all handlers.
type HandlerContext struct {
	Cfg        config.Config
	Log        *slog.Logger
	Directory  Directory
	Classifier *promotion.Classifier
	Engine     PromotionEngine
	Captcha    CaptchaVerifier
	Started    time.Time
}

// WebhookHandler processes GitHub webhook deliveries. The response is
// decided purely by whether the delivery was authenticated and
// syntactically valid; promotion outcome is never reported back, so a
// failing downstream API cannot cause the sender to retry-storm.
func (ctx *HandlerContext) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	event := r.Header.Get("X-GitHub-Event")
	delivery := r.Header.Get("X-GitHub-Delivery")
	log := ctx.Log.With(
		slog.String("event", event),
		slog.String("delivery", delivery))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("reading webhook body", slog.Any("error", err))
		http.Error(w, "Error", http.StatusInternalServerError)
		return
	}

	// The signature covers the exact bytes received; verify before any
	// parsing.
	if ctx.Cfg.WebhookSecret == "" {
		log.Warn("webhook secret not configured, accepting unsigned delivery")
	} else {
		signature := r.Header.Get("X-Hub-Signature-256")
		if err := webhook.VerifySignature(body, signature, ctx.Cfg.WebhookSecret); err != nil {
			log.Error("webhook signature rejected", slog.Any("error", err))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		// A structurally broken delivery is something the sender should
		// know about.
		log.Error("decoding webhook payload", slog.Any("error", err))
		http.Error(w, "Error", http.StatusInternalServerError)
		return
	}

	log.Info("webhook received", slog.String("action", payload.Action))

	if intent, ok := ctx.Classifier.Classify(event, &payload); ok {
		log.Info("evaluating promotion",
			slog.String("username", intent.Username),
			slog.String("reason", intent.Reason))
		ctx.Engine.Promote(r.Context(), intent)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HealthCheckHandler answers liveness and readiness probes.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// audit records an auditable action with enough context to reconstruct
// the decision path.
func (ctx *HandlerContext) audit(r *http.Request, action, username string, success bool, detail string) {
	ctx.Log.Info("audit",
		slog.String("action", action),
		slog.String("username", username),
		slog.String("ip", ratelimit.ClientIP(r)),
		slog.Bool("success", success),
		slog.String("detail", detail))
}
