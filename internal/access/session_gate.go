// Package access holds the two gates that guard the dashboard: the session gate that
// runs once per page request, and the role gate that decides whether an admin screen
// renders its content.
package access

import (
	"context"
	"strings"

	"github.com/holycodess/AppDashboard/internal/metrics"
	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/rs/zerolog"
)

const (
	// ProtectedPrefix is matched with a plain prefix test, so /dashboardx is protected too.
	ProtectedPrefix = "/dashboard"
	SignInPath      = "/auth"
	LandingPath     = "/dashboard"
)

type Outcome int

const (
	PassThrough Outcome = iota
	RedirectSignIn
	RedirectDashboard
)

func (o Outcome) String() string {
	switch o {
	case RedirectSignIn:
		return "redirect_sign_in"
	case RedirectDashboard:
		return "redirect_dashboard"
	default:
		return "pass_through"
	}
}

// Decision is the routing result for one request. Location is empty on pass-through.
type Decision struct {
	Outcome  Outcome
	Location string
}

func (d Decision) Redirect() bool {
	return d.Outcome != PassThrough
}

// Route decides what to do with a request for path given whether it carries a valid session.
func Route(path string, hasSession bool) Decision {
	switch {
	case strings.HasPrefix(path, ProtectedPrefix) && !hasSession:
		return Decision{Outcome: RedirectSignIn, Location: SignInPath}
	case path == SignInPath && hasSession:
		return Decision{Outcome: RedirectDashboard, Location: LandingPath}
	default:
		return Decision{Outcome: PassThrough}
	}
}

// SessionLookup resolves a session token to a live session.
// Any error means the session is not usable.
type SessionLookup interface {
	LookupSession(ctx context.Context, token string) (*models.Session, error)
}

type SessionGate struct {
	lookup SessionLookup
	log    zerolog.Logger
}

func NewSessionGate(lookup SessionLookup, log zerolog.Logger) *SessionGate {
	return &SessionGate{lookup: lookup, log: log}
}

// Evaluate performs at most one lookup and routes the request. A failed lookup
// counts as no session. The session is returned only when it is valid.
func (g *SessionGate) Evaluate(ctx context.Context, path, token string) (Decision, *models.Session) {
	var session *models.Session
	if token != "" {
		s, err := g.lookup.LookupSession(ctx, token)
		if err != nil {
			metrics.SessionLookupFailures.Inc()
			g.log.Warn().Err(err).Str("path", path).Msg("session lookup failed, treating request as signed out")
		} else {
			session = s
		}
	}

	decision := Route(path, session != nil)
	metrics.SessionGateOutcomes.WithLabelValues(decision.Outcome.String()).Inc()
	return decision, session
}
