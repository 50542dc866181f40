// Package recaptcha verifies reCAPTCHA v3 tokens against Google's
// siteverify API.
package recaptcha

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://www.google.com/recaptcha/api/siteverify"

	// Verification must complete within this bound; exceeding it counts
	// as a verification failure.
	verifyTimeout = 5 * time.Second

	// 0.0 is a bot, 1.0 is a human.
	minScore = 0.5

	// The action the frontend tags its tokens with.
	expectedAction = "github_invite"
)

// Verifier checks invite tokens. When no secret is configured the
// verifier is disabled and every token passes; callers log that mode.
type Verifier struct {
	secret   string
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

func New(secret string, log *slog.Logger) *Verifier {
	return &Verifier{
		secret:   secret,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: verifyTimeout},
		log:      log,
	}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks one token. Any transport error, timeout, or policy
// violation (low score, wrong action) fails verification.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) bool {
	if !v.Enabled() {
		v.log.Warn("reCAPTCHA secret not configured, skipping verification")
		return true
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
		"remoteip": {remoteIP},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		v.log.Error("building siteverify request", slog.Any("error", err))
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Error("siteverify request failed", slog.Any("error", err))
		return false
	}
	defer resp.Body.Close()

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		v.log.Error("decoding siteverify response", slog.Any("error", err))
		return false
	}

	if !result.Success {
		v.log.Info("reCAPTCHA verification rejected",
			slog.Any("errorCodes", result.ErrorCodes))
		return false
	}
	if result.Score < minScore {
		v.log.Info("reCAPTCHA score below threshold",
			slog.Float64("score", result.Score),
			slog.Float64("minScore", minScore))
		return false
	}
	if result.Action != expectedAction {
		v.log.Info("reCAPTCHA action mismatch",
			slog.String("action", result.Action),
			slog.String("expected", expectedAction))
		return false
	}
	return true
}
