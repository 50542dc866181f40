package promotion

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// Membership is the tri-state result of a directory lookup. Absent is a
// definitive negative ("this user is not a member"); Unknown means the
// query itself failed and the true state could not be determined.
type Membership int

const (
	MembershipUnknown Membership = iota
	MembershipMember
	MembershipAbsent
)

// Oracle answers membership questions against the external directory.
// Implementations return MembershipUnknown together with a non-nil error
// when a lookup fails for any reason other than "not found".
type Oracle interface {
	TeamMembership(ctx context.Context, team, username string) (Membership, error)
	OrgMembership(ctx context.Context, username string) (Membership, error)
}

// Escalator grants tier membership in the external directory. Granting an
// existing membership is a no-op for GitHub, which is what makes the whole
// flow safe to repeat.
type Escalator interface {
	GrantTeamMembership(ctx context.Context, team, username, role string) error
}

// Notifier delivers the congratulatory notice. Implementations are
// fire-and-forget: they log their own failures and never return them.
type Notifier interface {
	Congratulate(ctx context.Context, username, reason string)
}

// RoleMember is the role granted on escalation.
const RoleMember = "member"

// Outcome is the terminal state of one promotion attempt. It exists for
// logging and tests; it is never reported back to the event sender.
type Outcome string

const (
	OutcomePromoted      Outcome = "promoted"
	OutcomeAlreadyMember Outcome = "already_member"
	OutcomeNotOrgMember  Outcome = "not_org_member"
	OutcomeCheckFailed   Outcome = "check_failed"
	OutcomeGrantFailed   Outcome = "grant_failed"
)

// Orchestrator decides whether a promotion intent results in an
// escalation. Every attempt re-reads membership state fresh from the
// directory; nothing is cached. Downstream failures are absorbed and
// logged, never raised to the caller.
type Orchestrator struct {
	oracle    Oracle
	escalator Escalator
	notifier  Notifier
	team      string
	log       *slog.Logger

	// Collapses concurrent attempts for the same username into one
	// directory round-trip. Cross-process races are still possible and
	// are harmless because the grant call is idempotent.
	inflight singleflight.Group
}

func NewOrchestrator(oracle Oracle, escalator Escalator, notifier Notifier, team string, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		oracle:    oracle,
		escalator: escalator,
		notifier:  notifier,
		team:      team,
		log:       log,
	}
}

// Promote runs one promotion attempt to completion. It never returns an
// error: the webhook acknowledgment must not depend on promotion outcome.
func (o *Orchestrator) Promote(ctx context.Context, intent Intent) Outcome {
	v, _, _ := o.inflight.Do(intent.Username, func() (any, error) {
		return o.promote(ctx, intent), nil
	})
	return v.(Outcome)
}

func (o *Orchestrator) promote(ctx context.Context, intent Intent) Outcome {
	log := o.log.With(
		slog.String("username", intent.Username),
		slog.String("reason", intent.Reason))

	state, err := o.oracle.TeamMembership(ctx, o.team, intent.Username)
	switch state {
	case MembershipMember:
		log.Info("user already holds tier membership, nothing to do")
		return OutcomeAlreadyMember
	case MembershipUnknown:
		// Never escalate on ambiguous state.
		log.Error("tier membership lookup failed, aborting promotion",
			slog.Any("error", err))
		return OutcomeCheckFailed
	}

	state, err = o.oracle.OrgMembership(ctx, intent.Username)
	switch state {
	case MembershipAbsent:
		log.Warn("cannot promote a user who is not an organization member")
		return OutcomeNotOrgMember
	case MembershipUnknown:
		log.Error("org membership lookup failed, aborting promotion",
			slog.Any("error", err))
		return OutcomeCheckFailed
	}

	if err := o.escalator.GrantTeamMembership(ctx, o.team, intent.Username, RoleMember); err != nil {
		// No retry here: the next qualifying event re-runs the whole
		// flow against fresh state.
		log.Error("tier membership grant failed", slog.Any("error", err))
		return OutcomeGrantFailed
	}

	log.Info("user promoted", slog.String("team", o.team))

	o.notifier.Congratulate(ctx, intent.Username, intent.Reason)

	return OutcomePromoted
}
