// Package auth gates the app behind a Google sign-in and tracks which browser
// clients hold a session.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgauth "github.com/rohitbhanushali/uber-clone-source-code/pkg/auth"
)

// HomePath is where signed-in clients are sent.
const HomePath = "/"

// ErrSignInFailed is the retryable, user-facing sign-in failure.
var ErrSignInFailed = errors.New("Failed to sign in with Google. Please try again.")

// SignInError carries the provider failure behind ErrSignInFailed.
type SignInError struct {
	Cause error
}

func (e *SignInError) Error() string        { return ErrSignInFailed.Error() }
func (e *SignInError) Unwrap() error        { return e.Cause }
func (e *SignInError) Is(target error) bool { return target == ErrSignInFailed }

// Session is an issued session token for a signed-in user.
type Session struct {
	Identity  Identity  `json:"user"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionState is what a mounted login screen is told when its client signs
// in or out. Redirect is set only when signed in.
type SessionState struct {
	SignedIn bool   `json:"signed_in"`
	Redirect string `json:"redirect,omitempty"`
}

var (
	signedInState  = SessionState{SignedIn: true, Redirect: HomePath}
	signedOutState = SessionState{}
)

type subscriber struct {
	id     uint64
	notify func(SessionState)
}

// Gate issues sessions and notifies mounted login screens of session-state
// changes, keyed by browser client id.
type Gate struct {
	provider IdentityProvider
	tokens   *pkgauth.JWTManager
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	subs     map[string][]subscriber
	nextID   uint64
}

// NewGate creates a Gate.
func NewGate(provider IdentityProvider, tokens *pkgauth.JWTManager, logger *zap.Logger) *Gate {
	return &Gate{
		provider: provider,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
		subs:     make(map[string][]subscriber),
	}
}

// Mount subscribes a login screen to session state for clientID. If a session
// is already active, notify receives the signed-in state before Mount returns.
// The returned func unsubscribes and is safe to call more than once.
func (g *Gate) Mount(clientID string, notify func(SessionState)) (unsubscribe func()) {
	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.subs[clientID] = append(g.subs[clientID], subscriber{id: id, notify: notify})
	_, active := g.activeLocked(clientID)
	g.mu.Unlock()

	if active {
		notify(signedInState)
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.unsubscribe(clientID, id) })
	}
}

// SignIn exchanges credential with the provider and starts a session for
// clientID. Failures return a *SignInError matching ErrSignInFailed.
func (g *Gate) SignIn(ctx context.Context, clientID, credential string) (*Session, error) {
	id, err := g.provider.SignIn(ctx, credential)
	if err != nil {
		g.logger.Warn("sign-in failed", zap.String("client_id", clientID), zap.Error(err))
		return nil, &SignInError{Cause: err}
	}

	token, expiresAt, err := g.tokens.Generate(id.UserID, id.Email, id.DisplayName)
	if err != nil {
		g.logger.Error("failed to issue session token", zap.Error(err))
		return nil, &SignInError{Cause: err}
	}

	s := &Session{Identity: *id, Token: token, ExpiresAt: expiresAt}
	g.start(clientID, s)
	g.logger.Info("user signed in", zap.String("client_id", clientID), zap.String("user_id", id.UserID))
	return s, nil
}

// Resume restores a session for clientID from a previously issued token, as
// when a signed-in browser reloads the login page.
func (g *Gate) Resume(clientID, token string) (*Session, error) {
	claims, err := g.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Identity:  Identity{UserID: claims.UserID, Email: claims.Email, DisplayName: claims.DisplayName},
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	g.start(clientID, s)
	return s, nil
}

// SignOut ends the session for clientID and tells mounted screens.
func (g *Gate) SignOut(clientID string) {
	g.mu.Lock()
	delete(g.sessions, clientID)
	subs := append([]subscriber(nil), g.subs[clientID]...)
	g.mu.Unlock()

	for _, sub := range subs {
		sub.notify(signedOutState)
	}
	g.logger.Info("user signed out", zap.String("client_id", clientID))
}

// Current returns the active session for clientID.
func (g *Gate) Current(clientID string) (*Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeLocked(clientID)
}

func (g *Gate) start(clientID string, s *Session) {
	g.mu.Lock()
	g.sessions[clientID] = s
	subs := append([]subscriber(nil), g.subs[clientID]...)
	g.mu.Unlock()

	for _, sub := range subs {
		sub.notify(signedInState)
	}
}

func (g *Gate) activeLocked(clientID string) (*Session, bool) {
	s, ok := g.sessions[clientID]
	if !ok {
		return nil, false
	}
	if s.expired(g.now()) {
		delete(g.sessions, clientID)
		return nil, false
	}
	return s, true
}

func (g *Gate) unsubscribe(clientID string, id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	subs := g.subs[clientID]
	for i, s := range subs {
		if s.id == id {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(g.subs, clientID)
		return
	}
	g.subs[clientID] = subs
}
