package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// ErrBusy is returned when a login or registration is already in flight.
var ErrBusy = errors.New("another sign-in is already in progress")

// ErrSessionExpired wraps the server's rejection of the stored token.
var ErrSessionExpired = errors.New("session expired, please login again")

// Address is the postal address attached to a profile.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// User is the identity snapshot kept with a session.
type User struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Role    string   `json:"role"`
	Phone   string   `json:"phone,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Session is the client-side auth state.
type Session struct {
	Token   string
	User    *User
	Loading bool
	Error   string
}

// IsAuthenticated reports whether both a token and an identity are held.
func (s Session) IsAuthenticated() bool { return s.Token != "" && s.User != nil }

func (s Session) hasRole(role string) bool { return s.User != nil && s.User.Role == role }

func (s Session) IsBuyer() bool  { return s.hasRole("buyer") }
func (s Session) IsSeller() bool { return s.hasRole("seller") }
func (s Session) IsAdmin() bool  { return s.hasRole("admin") }

// ProfileUpdate carries the profile fields to change. Nil is "leave as is".
type ProfileUpdate struct {
	Name     *string  `json:"name,omitempty"`
	Phone    *string  `json:"phone,omitempty"`
	Address  *Address `json:"address,omitempty"`
	Password *string  `json:"password,omitempty"`
}

// Option configures a SessionStore.
type Option func(*SessionStore)

// WithLogger sets the logger used for storage faults.
func WithLogger(log zerolog.Logger) Option {
	return func(s *SessionStore) { s.log = log }
}

// WithLoginRedirect sets the hook run after the server rejects the token.
func WithLoginRedirect(fn func()) Option {
	return func(s *SessionStore) { s.redirect = fn }
}

// SessionStore holds the current session, persists it to Storage and
// notifies subscribers on every change.
type SessionStore struct {
	api      Transport
	storage  Storage
	log      zerolog.Logger
	redirect func()

	// commitMu serialises storage writes with the state change that follows
	// them. Lock order is commitMu, then mu.
	commitMu sync.Mutex
	mu       sync.Mutex
	state    Session
	inflight bool
	subs     map[int]chan Session
	nextSub  int
}

func NewSessionStore(api Transport, storage Storage, opts ...Option) *SessionStore {
	s := &SessionStore{
		api:     api,
		storage: storage,
		log:     zerolog.Nop(),
		subs:    make(map[int]chan Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySession(s.state)
}

// Subscribe returns a channel that receives the current session and every
// later change. Slow readers only see the latest state. cancel stops
// delivery and closes the channel.
func (s *SessionStore) Subscribe() (<-chan Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Session, 1)
	ch <- copySession(s.state)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// setLocked replaces the state and notifies subscribers. s.mu must be held.
func (s *SessionStore) setLocked(next Session) {
	s.state = next
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- copySession(next)
	}
}

func (s *SessionStore) set(next Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(next)
}

// Hydrate restores the persisted session. Missing or unreadable data leaves
// the store logged out.
func (s *SessionStore) Hydrate(ctx context.Context) Session {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	token, okToken, errToken := s.storage.Get(ctx, KeyToken)
	rawUser, okUser, errUser := s.storage.Get(ctx, KeyUser)

	var user User
	valid := errToken == nil && errUser == nil && okToken && okUser && token != ""
	if valid {
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.ID == "" {
			s.log.Warn().Err(err).Msg("discarding unreadable stored session")
			valid = false
		}
	}
	if !valid {
		if errToken != nil || errUser != nil {
			s.log.Warn().AnErr("token_err", errToken).AnErr("user_err", errUser).Msg("session storage read failed")
		}
		if err := s.storage.Delete(ctx, KeyToken, KeyUser); err != nil {
			s.log.Warn().Err(err).Msg("clear stored session")
		}
		s.set(Session{})
		return Session{}
	}

	next := Session{Token: token, User: &user}
	s.set(next)
	return copySession(next)
}

// Login signs in. On failure the held session is kept and the server's
// message is returned and exposed on Session.Error.
func (s *SessionStore) Login(ctx context.Context, creds Credentials) (Session, error) {
	if err := creds.Validate(); err != nil {
		return s.Snapshot(), err
	}
	return s.authenticate(ctx, func() (*AuthResponse, error) { return s.api.Login(ctx, creds) })
}

// Register creates an account and signs in. The server may replace the
// requested role with its default.
func (s *SessionStore) Register(ctx context.Context, data RegisterData) (Session, error) {
	if err := data.Validate(); err != nil {
		return s.Snapshot(), err
	}
	return s.authenticate(ctx, func() (*AuthResponse, error) { return s.api.Register(ctx, data) })
}

func (s *SessionStore) authenticate(ctx context.Context, call func() (*AuthResponse, error)) (Session, error) {
	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		return s.Snapshot(), ErrBusy
	}
	s.inflight = true
	loading := copySession(s.state)
	loading.Loading = true
	loading.Error = ""
	s.setLocked(loading)
	s.mu.Unlock()

	res, err := call()
	if err == nil && (res == nil || res.Token == "" || res.User.ID == "") {
		err = errors.New("server returned an incomplete session")
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	if err == nil {
		err = s.persist(ctx, res.Token, res.User)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false
	next := copySession(s.state)
	next.Loading = false
	if err != nil {
		next.Error = errorText(err)
		s.setLocked(next)
		return copySession(next), err
	}
	user := res.User
	next = Session{Token: res.Token, User: &user}
	s.setLocked(next)
	return copySession(next), nil
}

func (s *SessionStore) persist(ctx context.Context, token string, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.storage.SetMany(ctx, map[string]string{KeyToken: token, KeyUser: string(raw)}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Logout forgets the session locally. The server keeps no session, so the
// token stays valid until it expires.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	err := s.storage.Delete(ctx, KeyToken, KeyUser)
	if err != nil {
		s.log.Warn().Err(err).Msg("clear stored session")
	}
	s.set(Session{})
	return err
}

// Expire is Logout followed by the login redirect hook.
func (s *SessionStore) Expire(ctx context.Context) {
	_ = s.Logout(ctx)
	if s.redirect != nil {
		s.redirect()
	}
}

// Fetch calls an authenticated endpoint with the held token. A 401 answer
// clears the session and runs the redirect hook.
func (s *SessionStore) Fetch(ctx context.Context, method, path string, body, out any) error {
	token := s.Snapshot().Token
	err := s.api.Do(ctx, method, path, token, body, out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		s.Expire(ctx)
		return fmt.Errorf("%w: %s", ErrSessionExpired, apiErr.Message)
	}
	return err
}

type profileEnvelope struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

// Me fetches the caller's profile.
func (s *SessionStore) Me(ctx context.Context) (*User, error) {
	var out profileEnvelope
	if err := s.Fetch(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateProfile changes the caller's profile and refreshes the held snapshot.
// The snapshot is left alone when the session was cleared or replaced by
// another account while the request was in flight.
func (s *SessionStore) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var out profileEnvelope
	if err := s.Fetch(ctx, http.MethodPatch, "/users/me", update, &out); err != nil {
		return nil, err
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	current := s.Snapshot()
	if !current.IsAuthenticated() || current.User.ID != out.User.ID {
		return &out.User, nil
	}
	if err := s.persist(ctx, current.Token, out.User); err != nil {
		return nil, err
	}

	user := out.User
	s.set(Session{Token: current.Token, User: &user})
	return &out.User, nil
}

func errorText(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrNetwork) {
		return ErrNetwork.Error()
	}
	return err.Error()
}

func copySession(s Session) Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
