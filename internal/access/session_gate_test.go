package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeLookup struct {
	session *models.Session
	err     error
	calls   int
}

func (f *fakeLookup) LookupSession(ctx context.Context, token string) (*models.Session, error) {
	f.calls++
	return f.session, f.err
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		hasSession bool
		want       Decision
	}{
		{"protected without session", "/dashboard/profile", false, Decision{RedirectSignIn, "/auth"}},
		{"landing without session", "/dashboard", false, Decision{RedirectSignIn, "/auth"}},
		{"prefix match without session", "/dashboardx", false, Decision{RedirectSignIn, "/auth"}},
		{"admin without session", "/dashboard/admin/users", false, Decision{RedirectSignIn, "/auth"}},
		{"protected with session", "/dashboard/profile", true, Decision{Outcome: PassThrough}},
		{"sign in with session", "/auth", true, Decision{RedirectDashboard, "/dashboard"}},
		{"sign in without session", "/auth", false, Decision{Outcome: PassThrough}},
		{"callback with session", "/auth/callback/google", true, Decision{Outcome: PassThrough}},
		{"root", "/", false, Decision{Outcome: PassThrough}},
		{"api", "/api/health", true, Decision{Outcome: PassThrough}},
		{"nested dashboard path elsewhere", "/public/dashboard", false, Decision{Outcome: PassThrough}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.path, tt.hasSession))
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "pass_through", PassThrough.String())
	assert.Equal(t, "redirect_sign_in", RedirectSignIn.String())
	assert.Equal(t, "redirect_dashboard", RedirectDashboard.String())
}

func TestSessionGateEvaluate(t *testing.T) {
	valid := &models.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("no token skips lookup", func(t *testing.T) {
		lookup := &fakeLookup{session: valid}
		gate := NewSessionGate(lookup, zerolog.Nop())

		d, s := gate.Evaluate(context.Background(), "/dashboard/profile", "")
		assert.Equal(t, RedirectSignIn, d.Outcome)
		assert.Nil(t, s)
		assert.Equal(t, 0, lookup.calls)
	})

	t.Run("valid session passes protected path", func(t *testing.T) {
		lookup := &fakeLookup{session: valid}
		gate := NewSessionGate(lookup, zerolog.Nop())

		d, s := gate.Evaluate(context.Background(), "/dashboard", "token")
		assert.Equal(t, PassThrough, d.Outcome)
		assert.Equal(t, valid, s)
		assert.Equal(t, 1, lookup.calls)
	})

	t.Run("valid session on sign in redirects to dashboard", func(t *testing.T) {
		lookup := &fakeLookup{session: valid}
		gate := NewSessionGate(lookup, zerolog.Nop())

		d, _ := gate.Evaluate(context.Background(), "/auth", "token")
		assert.Equal(t, Decision{RedirectDashboard, "/dashboard"}, d)
	})

	t.Run("lookup failure fails closed", func(t *testing.T) {
		lookup := &fakeLookup{err: errors.New("connection refused")}
		gate := NewSessionGate(lookup, zerolog.Nop())

		d, s := gate.Evaluate(context.Background(), "/dashboard/admin/users", "token")
		assert.Equal(t, Decision{RedirectSignIn, "/auth"}, d)
		assert.Nil(t, s)
		assert.Equal(t, 1, lookup.calls)
	})

	t.Run("lookup failure on sign in shows the form", func(t *testing.T) {
		lookup := &fakeLookup{err: errors.New("timeout")}
		gate := NewSessionGate(lookup, zerolog.Nop())

		d, _ := gate.Evaluate(context.Background(), "/auth", "token")
		assert.Equal(t, PassThrough, d.Outcome)
	})
}
