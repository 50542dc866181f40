package handlers

import (
	"net/http"
	"runtime"
	"time"
)

// ConfigHandler serves the non-sensitive configuration the frontend needs.
func (ctx *HandlerContext) ConfigHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"recaptchaSiteKey": ctx.Cfg.RecaptchaSiteKey,
		"githubOrg":        ctx.Cfg.Org,
		"environment":      ctx.Cfg.Environment,
	})
}

// StatusHandler reports the bot's configuration and feature state.
func (ctx *HandlerContext) StatusHandler(w http.ResponseWriter, r *http.Request) {
	webhookSecret := "not configured"
	if ctx.Cfg.WebhookSecret != "" {
		webhookSecret = "configured"
	}
	recaptcha := "disabled"
	if ctx.Captcha.Enabled() {
		recaptcha = "enabled"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "active",
		"organization": ctx.Cfg.Org,
		"teams": map[string]string{
			"community":     ctx.Cfg.CommunityTeam,
			"collaborators": ctx.Cfg.CollaboratorsTeam,
		},
		"security": map[string]string{
			"rateLimiting":  "enabled",
			"recaptcha":     recaptcha,
			"webhookSecret": webhookSecret,
		},
		"features": []string{
			"Auto invitation to community team",
			"Auto promotion to collaborators team",
			"Webhook event processing",
			"Rate limiting protection",
			"reCAPTCHA verification",
			"User preview",
			"Audit logging",
		},
		"uptime":      time.Since(ctx.Started).Seconds(),
		"goVersion":   runtime.Version(),
		"environment": ctx.Cfg.Environment,
	})
}

// StatsHandler serves public organization statistics.
func (ctx *HandlerContext) StatsHandler(w http.ResponseWriter, r *http.Request) {
	org, err := ctx.Directory.Organization(r.Context())
	if err != nil {
		ctx.Log.Error("fetching organization stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Could not fetch statistics",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"organization": org,
		"bot": map[string]any{
			"uptime": time.Since(ctx.Started).Seconds(),
			"status": "active",
		},
	})
}
