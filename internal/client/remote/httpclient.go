package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/artstore/artstore/internal/client/models"
	"github.com/artstore/artstore/internal/logging"
)

// SessionStore persists the session bundle between runs. Implemented by the
// localstate package; nil disables persistence.
type SessionStore interface {
	LoadSession(ctx context.Context) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context) error
}

// Options configure the HTTP backend client.
type Options struct {
	// BaseURL is the backend root, e.g. "https://abc.artstore.dev".
	BaseURL string
	// AnonKey is the public API key sent with every request.
	AnonKey string
	// Store persists sessions; nil keeps them in memory only.
	Store SessionStore
	// AutoRefresh renews sessions shortly before expiry and emits
	// token-refreshed events.
	AutoRefresh bool
	// RefreshLead is how long before expiry a refresh is attempted.
	RefreshLead time.Duration
	// Timeout bounds each HTTP call.
	Timeout time.Duration

	Logger logging.Logger
}

// HTTPClient talks to the hosted backend: token endpoints under /auth/v1 and
// single-row record access under /rest/v1. It owns the current session and
// notifies subscribers of sign-in, sign-out and token-refresh serially.
type HTTPClient struct {
	baseURL string
	anonKey string
	http    *http.Client
	store   SessionStore
	logger  logging.Logger

	autoRefresh bool
	refreshLead time.Duration

	mu      sync.Mutex
	session *models.Session

	subMu  sync.Mutex
	subs   map[int]func(Event, *models.Session)
	nextID int

	events chan authEvent
	wake   chan struct{}
	stop   chan struct{}
	done   sync.WaitGroup
}

type authEvent struct {
	event   Event
	session *models.Session
}

// NewHTTPClient builds the client and starts its event dispatcher (and the
// auto-refresh loop when enabled). Call Close to stop both.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RefreshLead <= 0 {
		opts.RefreshLead = 30 * time.Second
	}

	c := &HTTPClient{
		baseURL:     opts.BaseURL,
		anonKey:     opts.AnonKey,
		http:        &http.Client{Timeout: opts.Timeout},
		store:       opts.Store,
		logger:      opts.Logger,
		autoRefresh: opts.AutoRefresh,
		refreshLead: opts.RefreshLead,
		subs:        make(map[int]func(Event, *models.Session)),
		events:      make(chan authEvent, 16),
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
	}

	c.done.Add(1)
	go c.dispatchLoop()

	if c.autoRefresh {
		c.done.Add(1)
		go c.refreshLoop()
	}

	return c, nil
}

func (c *HTTPClient) Close() error {
	close(c.stop)
	c.done.Wait()
	return nil
}

// OnAuthStateChange registers fn and returns its unsubscribe function.
func (c *HTTPClient) OnAuthStateChange(fn func(event Event, session *models.Session)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// dispatchLoop delivers auth events to subscribers one at a time, preserving
// the order in which they occurred.
func (c *HTTPClient) dispatchLoop() {
	defer c.done.Done()
	for {
		select {
		case ev := <-c.events:
			c.subMu.Lock()
			fns := make([]func(Event, *models.Session), 0, len(c.subs))
			for _, fn := range c.subs {
				fns = append(fns, fn)
			}
			c.subMu.Unlock()
			for _, fn := range fns {
				fn(ev.event, ev.session)
			}
		case <-c.stop:
			return
		}
	}
}

func (c *HTTPClient) emit(event Event, session *models.Session) {
	select {
	case c.events <- authEvent{event: event, session: session}:
	case <-c.stop:
	}
}

// refreshLoop renews the session before its access token expires and emits
// token-refreshed events. On an auth rejection it clears the session and
// emits signed-out: a refresh token the backend refuses will not come back.
func (c *HTTPClient) refreshLoop() {
	defer c.done.Done()
	for {
		var timer <-chan time.Time
		c.mu.Lock()
		if c.session != nil && !c.session.ExpiresAt.IsZero() {
			wait := time.Until(c.session.ExpiresAt.Add(-c.refreshLead))
			if wait < 0 {
				wait = 0
			}
			timer = time.After(wait)
		}
		c.mu.Unlock()

		select {
		case <-c.stop:
			return
		case <-c.wake:
			continue
		case <-timer:
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
		session, err := c.refreshCurrent(ctx)
		cancel()
		switch {
		case err == nil && session != nil:
			c.emit(EventTokenRefreshed, session)
		case isAuthRejection(err):
			c.logger.Warn(context.Background(), "session refresh rejected, signing out", "error", err)
			c.dropSession(context.Background())
			c.emit(EventSignedOut, nil)
		case err != nil:
			c.logger.Warn(context.Background(), "session refresh failed, will retry", "error", err)
			select {
			case <-c.stop:
				return
			case <-time.After(c.refreshLead / 2):
			}
		}
	}
}

func isAuthRejection(err error) bool {
	return errorIsAny(err, ErrUnauthorized, ErrInvalidCredentials)
}

// setSession replaces the current session, persists it, and pokes the
// refresh loop so it re-arms its timer.
func (c *HTTPClient) setSession(ctx context.Context, session *models.Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.SaveSession(ctx, session); err != nil {
			c.logger.Warn(ctx, "failed to persist session", "error", err)
		}
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *HTTPClient) dropSession(ctx context.Context) {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.ClearSession(ctx); err != nil {
			c.logger.Warn(ctx, "failed to clear persisted session", "error", err)
		}
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *HTTPClient) currentSession() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	copied := *c.session
	return &copied
}

// GetSession returns the current session, restoring a persisted one when the
// process has none in memory and refreshing it when expired. A nil session
// with nil error means nobody is signed in.
func (c *HTTPClient) GetSession(ctx context.Context) (*models.Session, error) {
	session := c.currentSession()

	if session == nil && c.store != nil {
		restored, err := c.store.LoadSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("restore session: %w", err)
		}
		if restored != nil {
			c.mu.Lock()
			c.session = restored
			c.mu.Unlock()
			session = restored
		}
	}

	if session == nil {
		return nil, nil
	}

	if session.Expired(time.Now()) {
		refreshed, err := c.refreshCurrent(ctx)
		if err != nil {
			if isAuthRejection(err) {
				c.dropSession(ctx)
			}
			return nil, err
		}
		return refreshed, nil
	}

	return session, nil
}

func (c *HTTPClient) refreshCurrent(ctx context.Context) (*models.Session, error) {
	session := c.currentSession()
	if session == nil || session.RefreshToken == "" {
		return nil, ErrNoSession
	}

	payload, err := c.authRequest(ctx, "/auth/v1/token?grant_type=refresh_token",
		map[string]string{"refresh_token": session.RefreshToken})
	if err != nil {
		return nil, err
	}

	refreshed := sessionFromPayload(payload)
	c.setSession(ctx, refreshed)
	return refreshed, nil
}

// SignInWithPassword exchanges credentials for a session. Invalid
// credentials and unconfirmed emails come back as their sentinel errors so
// the UI can render distinct messages.
func (c *HTTPClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	payload, err := c.authRequest(ctx, "/auth/v1/token?grant_type=password",
		map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	session := sessionFromPayload(payload)
	c.setSession(ctx, session)
	c.emit(EventSignedIn, session)
	return session, nil
}

// SignUp registers a new auth identity with the given metadata. When the
// backend requires email confirmation the result carries no session.
func (c *HTTPClient) SignUp(ctx context.Context, email, password string, metadata models.SignupMetadata) (*SignUpResult, error) {
	body := signUpRequest{Email: email, Password: password, Data: metadata}

	var resp signUpResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/signup", body, &resp, c.anonKey); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("signup returned no user")
	}

	result := &SignUpResult{UserID: resp.User.ID, Email: resp.User.Email}
	if resp.Session != nil {
		result.Session = sessionFromPayload(resp.Session)
		c.setSession(ctx, result.Session)
		c.emit(EventSignedIn, result.Session)
	}
	return result, nil
}

// SignOut invalidates the session on the backend and always drops it
// locally, even when the remote call fails.
func (c *HTTPClient) SignOut(ctx context.Context) error {
	session := c.currentSession()

	var err error
	if session != nil {
		err = c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, session.AccessToken)
	}

	c.dropSession(ctx)
	c.emit(EventSignedOut, nil)
	return err
}

// SelectRecord fetches the single row with the given id from table into
// dest. Missing rows map to ErrNoRows.
func (c *HTTPClient) SelectRecord(ctx context.Context, table, id string, dest any) error {
	path := fmt.Sprintf("/rest/v1/%s?id=eq.%s", table, url.QueryEscape(id))
	return c.restRequest(ctx, http.MethodGet, path, nil, dest)
}

// InsertRecord creates a row in table.
func (c *HTTPClient) InsertRecord(ctx context.Context, table string, record any) error {
	return c.restRequest(ctx, http.MethodPost, "/rest/v1/"+table, record, nil)
}

// UpdateRecord patches the row with the given id in table.
func (c *HTTPClient) UpdateRecord(ctx context.Context, table, id string, record any) error {
	path := fmt.Sprintf("/rest/v1/%s?id=eq.%s", table, url.QueryEscape(id))
	return c.restRequest(ctx, http.MethodPatch, path, record, nil)
}

// ---- wire plumbing ----

type sessionPayload struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *userPayload `json:"user"`
}

type userPayload struct {
	ID           string                `json:"id"`
	Email        string                `json:"email"`
	UserMetadata models.SignupMetadata `json:"user_metadata"`
}

type signUpRequest struct {
	Email    string                `json:"email"`
	Password string                `json:"password"`
	Data     models.SignupMetadata `json:"data"`
}

type signUpResponse struct {
	User    *userPayload    `json:"user"`
	Session *sessionPayload `json:"session"`
}

type authErrorBody struct {
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
}

type restErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// pgrstNoRows is the backend's distinguished "zero rows for a single-object
// request" error code.
const pgrstNoRows = "PGRST116"

// sessionFromPayload builds a Session from a token response. Expiry and the
// subject identity come from the access token's claims; the user object and
// expires_in fill any gaps (the client holds no signing key, so the parse is
// unverified by design of the wire contract).
func sessionFromPayload(p *sessionPayload) *models.Session {
	s := &models.Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
	}
	if p.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(p.ExpiresIn) * time.Second)
	}
	if p.User != nil {
		s.UserID = p.User.ID
		s.Email = p.User.Email
		s.Metadata = p.User.UserMetadata
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(p.AccessToken, claims); err == nil {
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			s.UserID = sub
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.ExpiresAt = exp.Time
		}
		if email, ok := claims["email"].(string); ok && email != "" {
			s.Email = email
		}
	}
	return s
}

func (c *HTTPClient) authRequest(ctx context.Context, path string, body any) (*sessionPayload, error) {
	var payload sessionPayload
	if err := c.doJSON(ctx, http.MethodPost, path, body, &payload, c.anonKey); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *HTTPClient) restRequest(ctx context.Context, method, path string, body, dest any) error {
	token := c.anonKey
	if session := c.currentSession(); session != nil {
		token = session.AccessToken
	}
	return c.doJSON(ctx, method, path, body, dest, token)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, dest any, bearer string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		// Single-object semantics: exactly one row or a PGRST116 error.
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.mapError(resp.StatusCode, data)
	}

	if dest != nil && len(data) > 0 {
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// mapError translates backend error bodies into the sentinel taxonomy.
func (c *HTTPClient) mapError(status int, body []byte) error {
	var authErr authErrorBody
	if err := json.Unmarshal(body, &authErr); err == nil && authErr.ErrorCode != "" {
		switch authErr.ErrorCode {
		case "invalid_credentials":
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, authErr.Msg)
		case "email_not_confirmed":
			return fmt.Errorf("%w: %s", ErrEmailNotConfirmed, authErr.Msg)
		}
	}

	var restErr restErrorBody
	if err := json.Unmarshal(body, &restErr); err == nil && restErr.Code == pgrstNoRows {
		return fmt.Errorf("%w: %s", ErrNoRows, restErr.Message)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, status)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	default:
		return fmt.Errorf("backend error: status %d: %s", status, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
