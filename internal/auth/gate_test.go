package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgauth "github.com/rohitbhanushali/uber-clone-source-code/pkg/auth"
)

type stubProvider struct {
	identity *Identity
	err      error
	calls    int
}

func (p *stubProvider) SignIn(context.Context, string) (*Identity, error) {
	p.calls++
	return p.identity, p.err
}

func newTestGate(p IdentityProvider) *Gate {
	return NewGate(p, pkgauth.NewJWTManager("test-secret", time.Hour), zap.NewNop())
}

type stateLog []SessionState

func (l *stateLog) record(st SessionState) { *l = append(*l, st) }

func (l stateLog) redirects() []string {
	var paths []string
	for _, st := range l {
		if st.SignedIn {
			paths = append(paths, st.Redirect)
		}
	}
	return paths
}

var rider = &Identity{UserID: "uid-1", Email: "rider@example.com", DisplayName: "Asha Rider"}

func TestSignIn_RedirectsMountedScreen(t *testing.T) {
	g := newTestGate(&stubProvider{identity: rider})

	var states stateLog
	unsubscribe := g.Mount("tab-1", states.record)
	defer unsubscribe()
	assert.Empty(t, states)

	s, err := g.SignIn(context.Background(), "tab-1", "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", s.Identity.UserID)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, []string{HomePath}, states.redirects())

	got, ok := g.Current("tab-1")
	require.True(t, ok)
	assert.Equal(t, s, got)
}

func TestMount_ActiveSessionRedirectsImmediately(t *testing.T) {
	g := newTestGate(&stubProvider{identity: rider})
	_, err := g.SignIn(context.Background(), "tab-1", "tok")
	require.NoError(t, err)

	var states stateLog
	unsubscribe := g.Mount("tab-1", states.record)
	defer unsubscribe()
	assert.Equal(t, []string{"/"}, states.redirects())

	// Other clients are unaffected.
	var other stateLog
	g.Mount("tab-2", other.record)()
	assert.Empty(t, other)
}

func TestSignIn_FailureIsInlineAndRetryable(t *testing.T) {
	p := &stubProvider{err: errors.New("popup closed by user")}
	g := newTestGate(p)

	var states stateLog
	g.Mount("tab-1", states.record)

	_, err := g.SignIn(context.Background(), "tab-1", "tok")
	require.ErrorIs(t, err, ErrSignInFailed)
	assert.Equal(t, "Failed to sign in with Google. Please try again.", err.Error())
	assert.Empty(t, states)
	_, ok := g.Current("tab-1")
	assert.False(t, ok)

	p.err, p.identity = nil, rider
	_, err = g.SignIn(context.Background(), "tab-1", "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, states.redirects())
	assert.Equal(t, 2, p.calls)
}

func TestUnsubscribe_StopsRedirects(t *testing.T) {
	g := newTestGate(&stubProvider{identity: rider})

	var states stateLog
	unsubscribe := g.Mount("tab-1", states.record)
	unsubscribe()
	unsubscribe()

	_, err := g.SignIn(context.Background(), "tab-1", "tok")
	require.NoError(t, err)
	assert.Empty(t, states)
	assert.Empty(t, g.subs)
}

func TestSignOutAndExpiry(t *testing.T) {
	g := newTestGate(&stubProvider{identity: rider})
	_, err := g.SignIn(context.Background(), "tab-1", "tok")
	require.NoError(t, err)

	var states stateLog
	unsubscribe := g.Mount("tab-1", states.record)
	defer unsubscribe()

	g.SignOut("tab-1")
	_, ok := g.Current("tab-1")
	assert.False(t, ok)
	assert.Equal(t, stateLog{signedInState, {SignedIn: false}}, states)

	_, err = g.SignIn(context.Background(), "tab-1", "tok")
	require.NoError(t, err)
	g.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, ok = g.Current("tab-1")
	assert.False(t, ok, "expired sessions are not active")
}

func TestResume(t *testing.T) {
	tokens := pkgauth.NewJWTManager("test-secret", time.Hour)
	token, _, err := tokens.Generate("uid-9", "x@example.com", "X")
	require.NoError(t, err)

	g := NewGate(&stubProvider{}, tokens, zap.NewNop())
	var states stateLog
	g.Mount("tab-1", states.record)

	s, err := g.Resume("tab-1", token)
	require.NoError(t, err)
	assert.Equal(t, "uid-9", s.Identity.UserID)
	assert.Equal(t, []string{"/"}, states.redirects())

	_, err = g.Resume("tab-2", "garbage")
	assert.ErrorIs(t, err, pkgauth.ErrInvalidToken)
}
