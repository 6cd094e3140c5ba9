package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/upstream"
)

const identityAPI = "identity"

// Identity is an authenticated user as reported by the identity provider.
type Identity struct {
	UserID      string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// IdentityProvider exchanges a credential obtained by the browser popup for
// an Identity.
type IdentityProvider interface {
	SignIn(ctx context.Context, credential string) (*Identity, error)
}

// FirebaseConfig is the web app configuration of the Firebase project.
type FirebaseConfig struct {
	APIKey            string `json:"apiKey"`
	AuthDomain        string `json:"authDomain"`
	ProjectID         string `json:"projectId"`
	StorageBucket     string `json:"storageBucket"`
	MessagingSenderID string `json:"messagingSenderId"`
	AppID             string `json:"appId"`
	MeasurementID     string `json:"measurementId,omitempty"`
}

// ProviderParams are the Google popup parameters the login page passes to
// the Firebase SDK.
type ProviderParams struct {
	ProviderID       string            `json:"provider_id"`
	Scopes           []string          `json:"scopes"`
	CustomParameters map[string]string `json:"custom_parameters"`
}

// GoogleProviderParams forces the account chooser on every sign-in.
var GoogleProviderParams = ProviderParams{
	ProviderID:       "google.com",
	Scopes:           []string{"email", "profile"},
	CustomParameters: map[string]string{"prompt": "select_account"},
}

// FirebaseProvider verifies Google ID tokens through the Identity Toolkit
// accounts:signInWithIdp endpoint.
type FirebaseProvider struct {
	cfg        FirebaseConfig
	baseURL    string
	requestURI string
	http       *http.Client
	logger     *zap.Logger
	metrics    *metrics.Collector
}

// NewFirebaseProvider creates a provider. baseURL may be empty for the
// public endpoint.
func NewFirebaseProvider(cfg FirebaseConfig, baseURL string, logger *zap.Logger, m *metrics.Collector) *FirebaseProvider {
	if baseURL == "" {
		baseURL = "https://identitytoolkit.googleapis.com"
	}
	return &FirebaseProvider{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		requestURI: "https://" + cfg.AuthDomain,
		http:       upstream.NewHTTPClient(10 * time.Second),
		logger:     logger,
		metrics:    m,
	}
}

// SignIn implements IdentityProvider. credential is a Google ID token.
func (p *FirebaseProvider) SignIn(ctx context.Context, credential string) (*Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, errors.New("empty credential")
	}

	started := time.Now()
	id, err := p.signIn(ctx, credential)
	p.metrics.ObserveUpstream(identityAPI, upstream.Outcome(err), started)
	return id, err
}

func (p *FirebaseProvider) signIn(ctx context.Context, credential string) (*Identity, error) {
	postBody := url.Values{}
	postBody.Set("id_token", credential)
	postBody.Set("providerId", GoogleProviderParams.ProviderID)

	body, err := json.Marshal(map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          p.requestURI,
		"returnIdpCredential": true,
		"returnSecureToken":   true,
	})
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/v1/accounts:signInWithIdp?key=%s", p.baseURL, url.QueryEscape(p.cfg.APIKey))
	req, err := http.NewRequest(http.MethodPost, reqURL, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	js, err := upstream.Do(ctx, p.http, identityAPI, req)
	if err != nil {
		return nil, err
	}

	uid := gjson.Get(js, "localId").String()
	if uid == "" {
		return nil, errors.New("identity response has no localId")
	}
	return &Identity{
		UserID:      uid,
		Email:       gjson.Get(js, "email").String(),
		DisplayName: gjson.Get(js, "displayName").String(),
		PhotoURL:    gjson.Get(js, "photoUrl").String(),
	}, nil
}
