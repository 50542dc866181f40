// Package models defines the subset of the GitHub webhook payload the
// gateway inspects. Fields that GitHub may omit are pointers so a missing
// value is distinguishable from an empty one.
package models

// https://docs.github.com/en/webhooks/webhook-events-and-payloads
type WebhookPayload struct {
	Action      string       `json:"action"`
	Repository  *Repository  `json:"repository"`
	Sender      *Account     `json:"sender"`
	Pusher      *Pusher      `json:"pusher"`
	Commits     []Commit     `json:"commits"`
	PullRequest *PullRequest `json:"pull_request"`
	Issue       *Issue       `json:"issue"`
}

type Repository struct {
	Name  string   `json:"name"`
	Owner *Account `json:"owner"`
}

type Account struct {
	Login string `json:"login"`
}

// Pusher is the git-level author of a push. Name may be absent on pushes
// made by integrations, in which case the event sender is the fallback.
type Pusher struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type Commit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type PullRequest struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	User   *Account `json:"user"`
}

type Issue struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	User   *Account `json:"user"`
}

// OwnerLogin returns the repository owner's login, or "" when the payload
// does not carry one.
func (p *WebhookPayload) OwnerLogin() string {
	if p.Repository == nil || p.Repository.Owner == nil {
		return ""
	}
	return p.Repository.Owner.Login
}

// SenderLogin returns the event sender's login, or "".
func (p *WebhookPayload) SenderLogin() string {
	if p.Sender == nil {
		return ""
	}
	return p.Sender.Login
}
