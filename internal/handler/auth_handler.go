package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/auth"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
	pkgauth "github.com/rohitbhanushali/uber-clone-source-code/pkg/auth"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/response"
)

// AuthHandler serves the login screen: the popup configuration, the
// session-state socket and sign-in/sign-out.
type AuthHandler struct {
	gate         *auth.Gate
	firebase     auth.FirebaseConfig
	secureCookie bool
	metrics      *metrics.Collector
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the session
// cookie Secure (HTTPS only).
func NewAuthHandler(
	gate *auth.Gate,
	firebase auth.FirebaseConfig,
	secureCookie bool,
	m *metrics.Collector,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		gate:         gate,
		firebase:     firebase,
		secureCookie: secureCookie,
		metrics:      m,
		logger:       logger,
	}
}

// RegisterRoutes registers the login routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/login", h.LoginPage)
	r.GET("/ws/login", h.LoginSocket)

	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/signin", h.SignIn)
		authGroup.POST("/signout", h.SignOut)
	}
}

// SignInRequest carries the Google ID token returned by the popup.
type SignInRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	IDToken  string `json:"id_token" binding:"required"`
}

// SignOutRequest identifies the browser client signing out.
type SignOutRequest struct {
	ClientID string `json:"client_id" binding:"required"`
}

type loginPage struct {
	Firebase auth.FirebaseConfig `json:"firebase"`
	Provider auth.ProviderParams `json:"provider"`
	SignedIn bool                `json:"signed_in"`
	Redirect string              `json:"redirect,omitempty"`
}

// LoginPage handles GET /login?client_id=.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	page := loginPage{Firebase: h.firebase, Provider: auth.GoogleProviderParams}
	if s := h.resume(c, c.Query("client_id")); s != nil {
		page.SignedIn = true
		page.Redirect = auth.HomePath
	}
	response.Success(c, page)
}

// LoginSocket handles GET /ws/login?client_id=. It stays subscribed to the
// client's session state until the socket closes, sends a redirect as soon
// as the client is signed in and a state message when it signs out.
func (h *AuthHandler) LoginSocket(c *gin.Context) {
	clientID := strings.TrimSpace(c.Query("client_id"))
	if clientID == "" {
		response.BadRequest(c, "client_id is required")
		return
	}
	h.resume(c, clientID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("login socket upgrade failed", zap.Error(err))
		return
	}
	sess := newWSSession(conn, "login", h.logger, h.metrics)
	defer sess.close()

	unsubscribe := h.gate.Mount(clientID, func(st auth.SessionState) {
		if st.SignedIn {
			sess.send(msgRedirect, navigateData{Path: st.Redirect})
			return
		}
		sess.send(msgState, st)
	})
	defer unsubscribe()

	sess.readLoop(func(msg wsMessage) {})
}

// SignIn handles POST /api/v1/auth/signin.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	session, err := h.gate.SignIn(c.Request.Context(), req.ClientID, req.IDToken)
	if err != nil {
		writeError(c, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(pkgauth.SessionCookie, session.Token, maxAge, "/", "", h.secureCookie, true)
	response.Success(c, gin.H{"session": session, "redirect": auth.HomePath})
}

// SignOut handles POST /api/v1/auth/signout.
func (h *AuthHandler) SignOut(c *gin.Context) {
	var req SignOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	h.gate.SignOut(req.ClientID)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(pkgauth.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	response.Success(c, gin.H{"signed_out": true})
}

// resume re-attaches a browser that still holds a valid session cookie.
func (h *AuthHandler) resume(c *gin.Context, clientID string) *auth.Session {
	if clientID == "" {
		return nil
	}
	if s, ok := h.gate.Current(clientID); ok {
		return s
	}
	token, err := c.Cookie(pkgauth.SessionCookie)
	if err != nil || token == "" {
		return nil
	}
	s, err := h.gate.Resume(clientID, token)
	if err != nil {
		h.logger.Debug("stale session cookie", zap.Error(err))
		return nil
	}
	return s
}
