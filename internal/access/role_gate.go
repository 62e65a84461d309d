package access

import (
	"context"

	"github.com/holycodess/AppDashboard/internal/metrics"
	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	// ErrForbidden means the profile loaded but does not hold the required role.
	ErrForbidden = errors.New("access denied")
	// ErrProfileUnavailable means the profile could not be fetched at all.
	ErrProfileUnavailable = errors.New("profile unavailable")
)

type State int

const (
	Loading State = iota
	Authorized
	Denied
	Failed
)

func (s State) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	case Failed:
		return "failed"
	default:
		return "loading"
	}
}

// ProfileFetcher reads one profile by identity id. A missing profile is (nil, nil).
type ProfileFetcher interface {
	FindProfile(ctx context.Context, id string) (*models.Profile, error)
}

// RoleDecision is the outcome of one role check. Profile is set whenever it was loaded.
type RoleDecision struct {
	State   State
	Profile *models.Profile
	Err     error
}

func (d RoleDecision) Authorized() bool {
	return d.State == Authorized
}

// Resolved reports whether the fetch finished. Unresolved decisions must not be rendered.
func (d RoleDecision) Resolved() bool {
	return d.State != Loading
}

type RoleGate struct {
	fetcher  ProfileFetcher
	required models.Role
	log      zerolog.Logger
}

func NewRoleGate(fetcher ProfileFetcher, required models.Role, log zerolog.Logger) *RoleGate {
	return &RoleGate{fetcher: fetcher, required: required, log: log}
}

func (g *RoleGate) Required() models.Role {
	return g.required
}

type fetchResult struct {
	profile *models.Profile
	err     error
}

// Check fetches the profile and compares its role with the required one.
// When ctx ends before the fetch returns, the decision stays Loading.
func (g *RoleGate) Check(ctx context.Context, identityID string) RoleDecision {
	decision := g.check(ctx, identityID)
	metrics.RoleGateDecisions.WithLabelValues(decision.State.String()).Inc()
	return decision
}

func (g *RoleGate) check(ctx context.Context, identityID string) RoleDecision {
	if identityID == "" {
		return RoleDecision{State: Denied, Err: ErrForbidden}
	}

	done := make(chan fetchResult, 1)
	go func() {
		p, err := g.fetcher.FindProfile(ctx, identityID)
		done <- fetchResult{profile: p, err: err}
	}()

	var res fetchResult
	select {
	case <-ctx.Done():
		return RoleDecision{State: Loading}
	case res = <-done:
	}

	if ctx.Err() != nil {
		return RoleDecision{State: Loading}
	}

	if res.err != nil {
		g.log.Error().Err(res.err).Str("identity_id", identityID).Msg("failed to fetch profile for role check")
		return RoleDecision{State: Failed, Err: ErrProfileUnavailable}
	}
	if res.profile == nil || res.profile.Role != g.required {
		return RoleDecision{State: Denied, Profile: res.profile, Err: ErrForbidden}
	}
	return RoleDecision{State: Authorized, Profile: res.profile}
}
