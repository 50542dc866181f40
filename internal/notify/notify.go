// Package notify delivers the congratulatory notices that follow a
// promotion. All notifiers are best-effort: a delivery failure is logged
// and swallowed, it never rolls back or fails the promotion.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-chile/community-gateway/internal/promotion"
)

// IssueCreator is the slice of the directory facade this package needs.
type IssueCreator interface {
	CreateIssue(ctx context.Context, repo, title, body string, labels []string) error
}

// IssueNotifier posts a congratulatory issue to the fixed welcome
// repository of the organization.
type IssueNotifier struct {
	issues IssueCreator
	repo   string
	log    *slog.Logger
}

func NewIssueNotifier(issues IssueCreator, repo string, log *slog.Logger) *IssueNotifier {
	return &IssueNotifier{issues: issues, repo: repo, log: log}
}

func (n *IssueNotifier) Congratulate(ctx context.Context, username, reason string) {
	title := fmt.Sprintf("🎉 Congratulations @%s! Promoted to Collaborator", username)
	body := fmt.Sprintf(`Hi @%s!

🎉 **Congratulations!** You have been automatically promoted to the **Collaborators** team.

**Promotion reason:** %s

As a collaborator you now have:

✅ Write access to the repositories you participate in
✅ The ability to review pull requests
✅ The ability to create and manage issues
✅ Recognition as an active member of the community

Thank you for being an active part of the community! 🚀

---
_This message was generated automatically by the team promotion system._`, username, reason)

	labels := []string{"welcome", "promotion", "collaborator"}

	if err := n.issues.CreateIssue(ctx, n.repo, title, body, labels); err != nil {
		n.log.Warn("could not post congratulations issue",
			slog.String("username", username),
			slog.String("repo", n.repo),
			slog.Any("error", err))
		return
	}
	n.log.Info("congratulations issue posted",
		slog.String("username", username),
		slog.String("repo", n.repo))
}

// Fanout dispatches a notice to every underlying notifier in order.
type Fanout []promotion.Notifier

func (f Fanout) Congratulate(ctx context.Context, username, reason string) {
	for _, n := range f {
		n.Congratulate(ctx, username, reason)
	}
}
