package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
	facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email,picture"
)

type oauthProvider struct {
	config      *oauth2.Config
	userInfoURL string
	decode      func(body []byte) (OAuthIdentity, error)
}

// OAuthService runs the authorization code flow against the configured social providers.
type OAuthService struct {
	providers map[string]*oauthProvider
	states    StateStore
	ttl       time.Duration
	client    *http.Client
}

func NewOAuthService(cfg *config.Config, states StateStore) *OAuthService {
	s := &OAuthService{
		providers: make(map[string]*oauthProvider),
		states:    states,
		ttl:       cfg.OAuth.TTL(),
		client:    &http.Client{Timeout: 10 * time.Second},
	}

	if p := cfg.OAuth.Google; p.Enabled() {
		s.providers[models.ProviderGoogle] = &oauthProvider{
			config:      oauthConfig(cfg, models.ProviderGoogle, p, endpoints.Google, []string{"openid", "email", "profile"}),
			userInfoURL: orDefault(p.UserInfoURL, googleUserInfoURL),
			decode:      decodeGoogleUser,
		}
	}
	if p := cfg.OAuth.Facebook; p.Enabled() {
		s.providers[models.ProviderFacebook] = &oauthProvider{
			config:      oauthConfig(cfg, models.ProviderFacebook, p, endpoints.Facebook, []string{"email", "public_profile"}),
			userInfoURL: orDefault(p.UserInfoURL, facebookUserInfoURL),
			decode:      decodeFacebookUser,
		}
	}

	return s
}

func oauthConfig(cfg *config.Config, name string, p config.ProviderConfig, endpoint oauth2.Endpoint, scopes []string) *oauth2.Config {
	if p.AuthURL != "" {
		endpoint.AuthURL = p.AuthURL
	}
	if p.TokenURL != "" {
		endpoint.TokenURL = p.TokenURL
	}
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  orDefault(p.RedirectURL, cfg.Server.BaseURL+"/auth/callback/"+name),
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Providers lists the enabled provider names in a stable order.
func (s *OAuthService) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Begin stores a fresh state and returns the provider's consent URL.
func (s *OAuthService) Begin(ctx context.Context, provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}

	state, err := randomHex(32)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate oauth state")
	}
	if err := s.states.Save(ctx, state, provider, s.ttl); err != nil {
		return "", err
	}

	return p.config.AuthCodeURL(state), nil
}

// Complete checks the state, exchanges the code and reads the provider's user info.
func (s *OAuthService) Complete(ctx context.Context, provider, state, code string) (OAuthIdentity, error) {
	p, ok := s.providers[provider]
	if !ok {
		return OAuthIdentity{}, ErrUnknownProvider
	}
	if state == "" {
		return OAuthIdentity{}, ErrInvalidState
	}

	issuedFor, err := s.states.Consume(ctx, state)
	if err != nil {
		return OAuthIdentity{}, err
	}
	if issuedFor != provider {
		return OAuthIdentity{}, ErrInvalidState
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return OAuthIdentity{}, errors.Wrap(err, "failed to exchange code for token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return OAuthIdentity{}, errors.Wrap(err, "failed to create user info request")
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return OAuthIdentity{}, errors.Wrap(err, "failed to get user info")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return OAuthIdentity{}, errors.Wrap(err, "failed to read user info")
	}
	if resp.StatusCode != http.StatusOK {
		return OAuthIdentity{}, errors.Errorf("user info request failed with status %d: %s", resp.StatusCode, string(body))
	}

	ident, err := p.decode(body)
	if err != nil {
		return OAuthIdentity{}, err
	}
	ident.Provider = provider
	if ident.Subject == "" {
		return OAuthIdentity{}, errors.New("provider returned no account id")
	}
	return ident, nil
}

func decodeGoogleUser(body []byte) (OAuthIdentity, error) {
	var u struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return OAuthIdentity{}, errors.Wrap(err, "failed to decode google user info")
	}
	return OAuthIdentity{
		Subject:       u.ID,
		Email:         u.Email,
		EmailVerified: u.VerifiedEmail,
		Name:          u.Name,
		AvatarURL:     u.Picture,
	}, nil
}

func decodeFacebookUser(body []byte) (OAuthIdentity, error) {
	var u struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return OAuthIdentity{}, errors.Wrap(err, "failed to decode facebook user info")
	}
	// Facebook only returns addresses it has confirmed.
	return OAuthIdentity{
		Subject:       u.ID,
		Email:         u.Email,
		EmailVerified: u.Email != "",
		Name:          u.Name,
		AvatarURL:     u.Picture.Data.URL,
	}, nil
}
