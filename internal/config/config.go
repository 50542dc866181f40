// Package config loads all runtime configuration from the process
// environment once at startup. Components receive the parsed Config by
// value and never read environment variables themselves.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config holds every setting the gateway consumes.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// GitHub credentials. Either a personal access token or a GitHub App
	// installation (app id + installation id + private key PEM).
	GitHubToken          string `env:"GITHUB_TOKEN"`
	GitHubAppID          int64  `env:"GITHUB_APP_ID"`
	GitHubInstallationID int64  `env:"GITHUB_INSTALLATION_ID"`
	GitHubAppPrivateKey  string `env:"GITHUB_APP_PRIVATE_KEY"`

	Org               string `env:"GITHUB_ORG" envDefault:"Mesh-Chile"`
	CommunityTeam     string `env:"COMMUNITY_TEAM" envDefault:"comunidad"`
	CollaboratorsTeam string `env:"COLLABORATORS_TEAM" envDefault:"colaboradores"`
	WelcomeRepo       string `env:"WELCOME_REPO" envDefault:"bienvenidos"`

	WebhookSecret string `env:"GITHUB_WEBHOOK_SECRET"`
	AdminKey      string `env:"ADMIN_KEY"`

	RecaptchaSecret  string `env:"RECAPTCHA_SECRET_KEY"`
	RecaptchaSiteKey string `env:"RECAPTCHA_SITE_KEY"`

	// Optional Slack announcement of promotions. Disabled unless both are set.
	SlackToken   string `env:"SLACK_TOKEN"`
	SlackChannel string `env:"SLACK_CHANNEL"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Org == "" {
		return Config{}, errors.New("GITHUB_ORG must not be empty")
	}
	return cfg, nil
}

// HasGitHubApp reports whether GitHub App installation credentials are set.
func (c Config) HasGitHubApp() bool {
	return c.GitHubAppID != 0 && c.GitHubInstallationID != 0 && c.GitHubAppPrivateKey != ""
}

// SlackEnabled reports whether promotion announcements to Slack are configured.
func (c Config) SlackEnabled() bool {
	return c.SlackToken != "" && c.SlackChannel != ""
}
