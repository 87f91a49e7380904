// Package auth is the single entry point application code uses to
// authenticate. It composes the token manager, the session store and the
// HTTP client over the platform's auth endpoints: login, logout, refresh and
// the out-of-band identity read.
package auth

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MohdMusaiyab/infybyte-sub001/api"
	"github.com/MohdMusaiyab/infybyte-sub001/sessions"
	"github.com/MohdMusaiyab/infybyte-sub001/token"
)

const (
	loginPath  = "/auth/login"
	logoutPath = "/auth/logout"
	mePath     = "/auth/me"
)

// Credentials are what the login form collects.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Deps holds all dependencies for the Service.
type Deps struct {
	API     *api.Client
	Tokens  *token.Manager
	Session *sessions.Store
}

// Service is the session-aware auth facade.
type Service struct {
	api     *api.Client
	tokens  *token.Manager
	session *sessions.Store
}

// NewService initializes the auth facade with required dependencies.
func NewService(deps Deps) (*Service, error) {
	if deps.API == nil {
		return nil, errors.New("[NewService] api client is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}
	if deps.Session == nil {
		return nil, errors.New("[NewService] session store is required")
	}
	return &Service{api: deps.API, tokens: deps.Tokens, session: deps.Session}, nil
}

// loginResponse is the payload of POST /auth/login.
type loginResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         sessions.User `json:"user"`
}

// Login exchanges credentials for a token pair and marks the session
// authenticated. On failure the session stays unauthenticated and the
// returned error wraps LoginFailedErr with a normalized message: the
// backend's message when present, the transport error otherwise.
func (s *Service) Login(ctx context.Context, credentials Credentials) error {
	s.session.SetLoading(true)
	defer s.session.SetLoading(false)

	var data loginResponse
	if err := s.api.DoUnauth(ctx, http.MethodPost, loginPath, credentials, &data); err != nil {
		return errors.Wrap(LoginFailedErr, normalizeMessage(err))
	}
	if data.AccessToken == "" || data.RefreshToken == "" {
		return errors.Wrap(LoginFailedErr, "login response missing tokens")
	}

	s.tokens.SetTokens(data.AccessToken, data.RefreshToken)
	if err := s.session.SetAuthenticated(data.User); err != nil {
		return errors.Wrap(err, "[Service.Login] session.SetAuthenticated")
	}
	return nil
}

// Logout notifies the backend on a best-effort basis and always clears the
// credential pair and the session. A transport failure on the logout call is
// logged and swallowed — it never blocks local cleanup.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.api.Post(ctx, logoutPath, nil, nil); err != nil {
		log.Warn().Err(err).Msg("logout call failed, clearing session anyway")
	}

	s.tokens.ClearTokens()
	s.session.Clear()
	return nil
}

// RefreshAuth re-establishes the session from a surviving refresh token.
// It is meant for application start: on any failure the credential pair and
// session are cleared and RefreshFailedErr is returned, but no
// session-expired event fires — the caller simply renders as logged out.
func (s *Service) RefreshAuth(ctx context.Context) error {
	s.session.SetLoading(true)
	defer s.session.SetLoading(false)

	if s.tokens.RefreshToken() == "" {
		s.tokens.ClearTokens()
		s.session.Clear()
		return RefreshFailedErr
	}

	if err := s.api.Refresh(ctx); err != nil {
		s.tokens.ClearTokens()
		s.session.Clear()
		return errors.Wrap(RefreshFailedErr, normalizeMessage(err))
	}
	return nil
}

// meResponse is the payload of GET /auth/me.
type meResponse struct {
	User sessions.User `json:"user"`
}

// Me reads the current identity from the backend and updates the session
// with it. Out-of-band identity refresh, not part of the token protocol.
func (s *Service) Me(ctx context.Context) (*sessions.User, error) {
	if !s.session.Current().IsAuthenticated {
		return nil, NotLoggedInErr
	}

	var data meResponse
	if err := s.api.Get(ctx, mePath, &data); err != nil {
		return nil, errors.Wrap(err, "[Service.Me] api.Get")
	}
	if err := s.session.SetAuthenticated(data.User); err != nil {
		return nil, errors.Wrap(err, "[Service.Me] session.SetAuthenticated")
	}
	user := data.User
	return &user, nil
}

// normalizeMessage flattens any error to a single user-facing string:
// backend-provided message first, transport error message next, generic
// fallback last.
func normalizeMessage(err error) string {
	if apiErr, ok := api.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return "something went wrong"
}
