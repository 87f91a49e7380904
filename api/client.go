// Package api provides the HTTP client for the InfyByte platform. It
// attaches the bearer credential to outgoing requests, decodes the platform's
// {success, data, message} envelope, and transparently recovers from access
// token expiry: a 401 triggers one coalesced refresh followed by a single
// retry of the original request. Terminal refresh failure clears the
// credential pair and the session and emits a session-expired event — the
// client never navigates; routing is the application's concern.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/MohdMusaiyab/infybyte-sub001/sessions"
	"github.com/MohdMusaiyab/infybyte-sub001/token"
)

const (
	refreshPath     = "/auth/refresh"
	refreshGroupKey = "refresh"

	defaultRequestTimeout = 30 * time.Second
	defaultRefreshTimeout = 10 * time.Second
)

// ErrNoRefreshToken indicates a refresh was attempted with no refresh token
// available. It is terminal: the caller must treat it as refresh failure.
var ErrNoRefreshToken = errors.New("no refresh token")

// Client is the authenticated HTTP client. All platform requests flow
// through it; the token manager and session store are only ever mutated via
// their own operations, triggered from here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *token.Manager
	session    *sessions.Store

	refreshGroup   singleflight.Group
	refreshTimeout time.Duration

	expireLock       sync.Mutex // serializes the logout cascade
	onSessionExpired func()
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRefreshTimeout bounds the refresh call. A refresh that exceeds it
// counts as refresh failure and triggers the logout cascade.
func WithRefreshTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.refreshTimeout = timeout
	}
}

// WithOnSessionExpired registers the callback fired when a terminal refresh
// failure forces a logout. The application reacts with navigation.
func WithOnSessionExpired(fn func()) ClientOption {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// NewClient initializes an authenticated client for the backend at baseURL.
func NewClient(baseURL string, tokens *token.Manager, session *sessions.Store, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewClient] token manager is required")
	}
	if session == nil {
		return nil, errors.New("[NewClient] session store is required")
	}

	client := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		tokens:         tokens,
		session:        session,
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range options {
		opt(client)
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return client, nil
}

// requestState carries the retry bookkeeping for one logical call. Retry
// state lives here, never on the shared *http.Request.
type requestState struct {
	attempt int // 0 on first send, 1 after the post-refresh retry
}

// Do performs an authenticated request and decodes the envelope data into
// out (which may be nil). On a 401 for a request that carried a credential,
// it refreshes once and retries once; any further 401 is returned to the
// caller unchanged.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return errors.Wrap(err, "[Client.Do] marshal body")
	}

	state := requestState{}
	for {
		bearer := c.tokens.AccessToken()
		status, respBody, err := c.send(ctx, method, path, payload, bearer)
		if err != nil {
			return errors.Wrap(err, "[Client.Do] send")
		}

		// Only a request that actually carried a credential can be
		// recovered by refreshing it; an unauthenticated 401 is a
		// plain authorization failure.
		if status == http.StatusUnauthorized && bearer != "" && state.attempt == 0 {
			state.attempt++
			if refreshErr := c.recoverCredentials(); refreshErr != nil {
				return errors.Wrap(refreshErr, "[Client.Do] refresh after 401")
			}
			continue
		}

		return decodeResponse(status, respBody, out)
	}
}

// DoUnauth performs a request without attaching a credential and without the
// 401 recovery protocol. Used for login, where there is no credential to
// recover and a 401 simply means the credentials were wrong.
func (c *Client) DoUnauth(ctx context.Context, method, path string, body, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return errors.Wrap(err, "[Client.DoUnauth] marshal body")
	}
	status, respBody, err := c.send(ctx, method, path, payload, "")
	if err != nil {
		return errors.Wrap(err, "[Client.DoUnauth] send")
	}
	return decodeResponse(status, respBody, out)
}

// Get performs an authenticated GET.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs an authenticated POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put performs an authenticated PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete performs an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Refresh exchanges the refresh token for a new credential pair, updating
// the token manager and, when the backend returns the user, the session.
// Concurrent calls coalesce into a single in-flight refresh; every waiter
// shares its outcome. Refresh itself never triggers the logout cascade —
// that decision belongs to the caller.
func (c *Client) Refresh(ctx context.Context) error {
	resultCh := c.refreshGroup.DoChan(refreshGroupKey, func() (any, error) {
		return nil, c.doRefresh()
	})
	select {
	case result := <-resultCh:
		return result.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ForceLogout clears the credential pair and the session and emits the
// session-expired event if there was anything to clear. Safe to call
// repeatedly; a second call observes empty state and emits nothing.
func (c *Client) ForceLogout() {
	c.expireLock.Lock()
	hadCredentials := c.tokens.AccessToken() != "" || c.tokens.RefreshToken() != ""
	c.tokens.ClearTokens()
	c.session.Clear()
	c.expireLock.Unlock()

	if hadCredentials && c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// recoverCredentials runs the coalesced refresh and, on failure, forces the
// logout cascade. The shared refresh carries its own deadline, so waiting on
// it unbounded here is safe.
func (c *Client) recoverCredentials() error {
	if err := c.Refresh(context.Background()); err != nil {
		c.ForceLogout()
		return err
	}
	return nil
}

// refreshResponse is the payload of POST /auth/refresh. A missing
// refresh_token means the old one remains valid and is reused.
type refreshResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *sessions.User `json:"user"`
}

func (c *Client) doRefresh() error {
	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" {
		return ErrNoRefreshToken
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
	defer cancel()

	payload, err := marshalBody(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return errors.Wrap(err, "[Client.doRefresh] marshal body")
	}

	status, respBody, err := c.send(ctx, http.MethodPost, refreshPath, payload, "")
	if err != nil {
		return errors.Wrap(err, "[Client.doRefresh] send")
	}

	var data refreshResponse
	if err := decodeResponse(status, respBody, &data); err != nil {
		return errors.Wrap(err, "[Client.doRefresh] refresh rejected")
	}
	if data.AccessToken == "" {
		return errors.New("[Client.doRefresh] refresh response missing access token")
	}

	newRefreshToken := data.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = refreshToken
	}
	c.tokens.SetTokens(data.AccessToken, newRefreshToken)

	if data.User != nil {
		if err := c.session.SetAuthenticated(*data.User); err != nil {
			return errors.Wrap(err, "[Client.doRefresh] session.SetAuthenticated")
		}
	}

	log.Debug().Msg("access token refreshed")
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, bearer string) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, err
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}
