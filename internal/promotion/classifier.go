// Package promotion contains the event classification and promotion
// orchestration logic of the gateway.
package promotion

import (
	"fmt"
	"log/slog"

	"github.com/mesh-chile/community-gateway/internal/models"
)

// Intent is a single qualifying activity signal: this user should be
// considered for promotion, for this reason. Produced by the Classifier,
// consumed once by the Orchestrator. Never persisted.
type Intent struct {
	Username string
	Reason   string
}

// Classifier maps raw webhook events onto promotion intents. It is
// stateless; Classify is a pure function of the event and payload.
type Classifier struct {
	org string
	log *slog.Logger
}

func NewClassifier(org string, log *slog.Logger) *Classifier {
	return &Classifier{org: org, log: log}
}

// Classify returns the promotion intent a webhook event qualifies for,
// or ok=false when the event is not promotion-relevant. Events for
// repositories outside the configured organization, unrecognized event
// types, and non-qualifying actions all yield no intent. Payloads missing
// expected fields are logged and treated as non-matches, never as errors.
func (c *Classifier) Classify(event string, payload *models.WebhookPayload) (Intent, bool) {
	if payload == nil || payload.OwnerLogin() != c.org {
		return Intent{}, false
	}

	switch event {
	case "repository":
		if payload.Action != "created" {
			return Intent{}, false
		}
		return c.intent(event, payload.SenderLogin(), "created repository")

	case "push":
		if len(payload.Commits) == 0 {
			return Intent{}, false
		}
		return c.intent(event, pushAuthor(payload), fmt.Sprintf("push with %d commits", len(payload.Commits)))

	case "pull_request":
		if payload.Action != "opened" {
			return Intent{}, false
		}
		var login string
		if payload.PullRequest != nil && payload.PullRequest.User != nil {
			login = payload.PullRequest.User.Login
		}
		return c.intent(event, login, "opened pull request")

	case "issues":
		if payload.Action != "opened" {
			return Intent{}, false
		}
		var login string
		if payload.Issue != nil && payload.Issue.User != nil {
			login = payload.Issue.User.Login
		}
		return c.intent(event, login, "opened issue")
	}

	return Intent{}, false
}

func (c *Classifier) intent(event, username, reason string) (Intent, bool) {
	if username == "" {
		c.log.Warn("qualifying event without a resolvable username",
			slog.String("event", event),
			slog.String("reason", reason))
		return Intent{}, false
	}
	return Intent{Username: username, Reason: reason}, true
}

// pushAuthor resolves the username a push should be credited to: the
// git-level pusher name when present, the event sender otherwise.
func pushAuthor(payload *models.WebhookPayload) string {
	if payload.Pusher != nil && payload.Pusher.Name != nil && *payload.Pusher.Name != "" {
		return *payload.Pusher.Name
	}
	return payload.SenderLogin()
}
