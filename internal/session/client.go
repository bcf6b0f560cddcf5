package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/campusport/portalgate/internal/identity"
	"github.com/campusport/portalgate/internal/notify"
	"github.com/campusport/portalgate/internal/token"
	apperrors "github.com/campusport/portalgate/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Portal backend endpoints
const (
	loginPath   = "/api/v1/user/login"
	profilePath = "/api/v1/profile/me"
)

// User-facing notification messages, matching the portal UI wording
const (
	msgLoginSuccess   = "Login successful!"
	msgLoginFailed    = "Login failed. Please check your credentials."
	msgUnknownError   = "An unknown error occurred"
	msgLogoutSuccess  = "Logged out successfully"
	msgProfileUpdated = "Profile updated successfully"
	msgProfileFailed  = "Failed to update profile"
	msgSessionExpired = "Session expired. Please log in again."
)

// Config holds session client configuration
type Config struct {
	// BaseURL of the upstream portal API
	BaseURL string
	// Timeout for backend calls
	Timeout time.Duration
	// Store persists the credential and identity
	Store token.Store
	// Notifier receives user-facing notifications
	Notifier notify.Notifier
	// Logger for diagnostics; defaults to a nop logger
	Logger *zap.Logger
	// OnForcedLogout is invoked after a server-triggered session
	// invalidation, e.g. to record a metric
	OnForcedLogout func()
}

// Client performs login, logout, and profile updates against the portal
// backend and owns the session state. Backend failures never escape as
// errors from Login/Logout/UpdateProfile; they are absorbed and surfaced
// as notifications.
type Client struct {
	baseURL        string
	httpClient     *http.Client // unauthenticated, for login
	authedClient   *http.Client // attaches the stored credential as a bearer token
	store          token.Store
	notifier       notify.Notifier
	log            *zap.Logger
	state          *State
	onForcedLogout func()

	restoreOnce sync.Once

	// mu serializes session mutations; generation lets in-flight response
	// handlers detect that the session they belong to is gone
	mu         sync.Mutex
	generation uint64
}

// storeTokenSource yields the currently stored credential, so every
// authenticated request reads the store and automatically follows
// login/logout
type storeTokenSource struct {
	store token.Store
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	credential, _ := s.store.Load(context.Background())
	if credential == "" {
		return nil, apperrors.ErrNoSession
	}
	return &oauth2.Token{AccessToken: credential, TokenType: "Bearer"}, nil
}

// NewClient creates a session client
func NewClient(cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var notifier notify.Notifier = notify.NewZapNotifier(log)
	if cfg.Notifier != nil {
		notifier = cfg.Notifier
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		authedClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: storeTokenSource{store: cfg.Store},
				Base:   http.DefaultTransport,
			},
		},
		store:          cfg.Store,
		notifier:       notifier,
		log:            log,
		state:          NewState(),
		onForcedLogout: cfg.OnForcedLogout,
	}
}

// State returns the session state for read access
func (c *Client) State() *State {
	return c.state
}

// Restore populates the session state from the store. Runs exactly once
// per client; later calls are no-ops. A missing or malformed stored
// session resolves to logged out, never an error. Credential attachment
// needs no extra setup here: authenticated requests read the store on
// every call.
func (c *Client) Restore(ctx context.Context) {
	c.restoreOnce.Do(func() {
		credential, ident := c.store.Load(ctx)
		if credential != "" && ident != nil {
			c.state.setAuthenticated(ident)
			c.log.Info("session restored",
				zap.String("email", ident.Email),
				zap.String("role", string(ident.Role)),
			)
		}
		c.state.settle()
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
}

// Login authenticates against the backend. On success it persists the
// credential and identity, marks the state authenticated, and emits a
// success notification. Every failure path emits notifications, leaves
// state and store untouched, and returns false; Login never panics or
// returns an error.
func (c *Client) Login(ctx context.Context, email, password string) bool {
	gen := c.currentGeneration()

	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		c.notifier.Error(msgLoginFailed)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		c.notifier.Error(msgLoginFailed)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("login request failed", zap.Error(err))
		c.notifier.Error(msgLoginFailed)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.notifyLoginFailure(resp.Body)
		return false
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.AccessToken == "" {
		c.log.Warn("malformed login response", zap.Error(err))
		c.notifier.Error(msgLoginFailed)
		return false
	}

	ident := identity.Identity{
		Email: email,
		Role:  identity.NormalizeRole(payload.Role),
		Token: payload.AccessToken,
	}
	return c.applyLogin(ctx, gen, payload.AccessToken, ident)
}

// applyLogin persists a successful login, unless the session it belongs
// to has been superseded while the request was in flight
func (c *Client) applyLogin(ctx context.Context, gen uint64, credential string, ident identity.Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		// A logout (or another login) happened while this response was in
		// flight; applying it would resurrect a cleared session
		c.log.Warn("discarding stale login response", zap.String("email", ident.Email))
		return false
	}

	if err := c.store.Save(ctx, credential, ident); err != nil {
		c.log.Error("failed to persist session", zap.Error(err))
		c.notifier.Error(msgLoginFailed)
		return false
	}

	c.generation++
	c.state.setAuthenticated(&ident)
	c.notifier.Success(msgLoginSuccess)
	c.log.Info("login succeeded",
		zap.String("email", ident.Email),
		zap.String("role", string(ident.Role)),
	)
	return true
}

// notifyLoginFailure classifies the backend's error payload:
// a detail list emits one notification per item, a detail string emits
// itself, anything else emits a generic message
func (c *Client) notifyLoginFailure(r io.Reader) {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil ||
		len(payload.Detail) == 0 || string(payload.Detail) == "null" {
		c.notifier.Error(msgLoginFailed)
		return
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		for _, item := range items {
			c.notifier.Error(item.Msg)
		}
		return
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil && detail != "" {
		c.notifier.Error(detail)
		return
	}

	c.notifier.Error(msgUnknownError)
}

// Logout clears the persisted session and resets the state. It has no
// failure path: a store error is logged and the state resets regardless.
// Calling Logout on an already logged-out session is harmless.
func (c *Client) Logout(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error("failed to clear session store", zap.Error(err))
	}
	c.state.reset()
	c.notifier.Success(msgLogoutSuccess)
}

// forceLogout handles a server-triggered session invalidation: storage is
// cleared and the state reset within the failing operation's error
// handling, with no manual logout required
func (c *Client) forceLogout(ctx context.Context) {
	c.mu.Lock()
	wasAuthenticated := c.state.Snapshot().IsAuthenticated
	c.generation++
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error("failed to clear session store", zap.Error(err))
	}
	c.state.reset()
	c.mu.Unlock()

	if !wasAuthenticated {
		return
	}
	c.notifier.Error(msgSessionExpired)
	c.log.Info("forced logout: credential rejected by backend")
	if c.onForcedLogout != nil {
		c.onForcedLogout()
	}
}

// profileResponse mirrors the identity-like object the backend returns
// from profile updates
type profileResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UpdateProfile sends a profile patch to the backend. On success the
// stored identity is replaced with the server's response and re-persisted;
// on failure state and store stay untouched and a failure notification is
// emitted. A logout during the in-flight request wins: the response is
// discarded rather than resurrecting a cleared session.
func (c *Client) UpdateProfile(ctx context.Context, patch map[string]interface{}) bool {
	gen := c.currentGeneration()

	var updated profileResponse
	if err := c.Do(ctx, http.MethodPut, profilePath, patch, &updated); err != nil {
		c.log.Warn("profile update failed", zap.Error(err))
		c.notifier.Error(msgProfileFailed)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		c.log.Warn("discarding stale profile response")
		return false
	}
	snap := c.state.Snapshot()
	if !snap.IsAuthenticated {
		return false
	}

	ident := *snap.User
	if updated.Email != "" {
		ident.Email = updated.Email
	}
	if updated.Role != "" {
		ident.Role = identity.NormalizeRole(updated.Role)
	}

	if err := c.store.Save(ctx, ident.Token, ident); err != nil {
		c.log.Error("failed to re-persist identity", zap.Error(err))
		c.notifier.Error(msgProfileFailed)
		return false
	}
	c.state.setAuthenticated(&ident)
	c.notifier.Success(msgProfileUpdated)
	return true
}

// Do performs an authenticated backend call, attaching the stored
// credential as a bearer token. A 401 from the backend forces the session
// to unauthenticated before returning; this is the only error class that
// mutates session state outside explicit login/logout.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.authedClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend call failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.forceLogout(ctx)
		return apperrors.ErrSessionExpired
	case resp.StatusCode == http.StatusForbidden:
		return apperrors.ErrForbidden
	case resp.StatusCode >= 400:
		return apperrors.NewAppError(apperrors.ErrCodeUpstreamError,
			fmt.Sprintf("backend returned status %d", resp.StatusCode), 502)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Get performs an authenticated GET and decodes the JSON response
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}
