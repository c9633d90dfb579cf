// Package session holds the client-side record of who is logged in and with
// which credentials.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/observability"

	"github.com/golang-jwt/jwt/v5"
)

const defaultPersistTimeout = 5 * time.Second

// Listener is called after every committed change with the state before and after it
type Listener func(prev, next domain.SessionState)

// Store is the Session Store. It is loaded once from its backend at
// construction and written back after every committed mutation.
type Store struct {
	backend        domain.StateStore
	key            string
	now            func() time.Time
	logger         *slog.Logger
	persistTimeout time.Duration

	// writeMu serialises mutations so the backend sees writes in commit order
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   domain.SessionState

	// generation changes whenever a different principal takes over the session
	generation uint64

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for token expiry
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for persistence warnings
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithPersistTimeout bounds each backend write
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) { s.persistTimeout = d }
}

// NewStore builds a Store and restores any persisted session from backend.
// A missing, corrupt or inconsistent entry yields an empty session.
func NewStore(ctx context.Context, backend domain.StateStore, opts ...Option) *Store {
	s := &Store{
		backend:        backend,
		key:            domain.StateKey(domain.AuthStateName),
		now:            time.Now,
		logger:         observability.Logger(),
		persistTimeout: defaultPersistTimeout,
		listeners:      make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.state = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) domain.SessionState {
	data, err := s.backend.Load(ctx, s.key)
	if errors.Is(err, domain.ErrStateNotFound) {
		return domain.SessionState{}
	}
	if err != nil {
		s.logger.Warn("Failed to load persisted session, starting anonymous", "key", s.key, "error", err)
		return domain.SessionState{}
	}

	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("Persisted session is corrupt, starting anonymous", "key", s.key, "error", err)
		return domain.SessionState{}
	}
	if !state.Consistent() {
		s.logger.Warn("Persisted session is inconsistent, starting anonymous", "key", s.key)
		return domain.SessionState{}
	}
	return state
}

// SetAuth installs the credentials of a login or refresh reply. A reply
// without an access token or user is rejected and leaves the store untouched.
func (s *Store) SetAuth(resp domain.LoginResponse) error {
	if resp.AccessToken == "" {
		return &domain.MalformedResponseError{Operation: "login", Field: "accessToken"}
	}
	if resp.User == nil {
		return &domain.MalformedResponseError{Operation: "login", Field: "user"}
	}

	user := *resp.User
	next := domain.SessionState{
		User: &user,
		Tokens: &domain.Tokens{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    s.expiry(resp),
		},
		IsAuthenticated: true,
	}

	s.writeMu.Lock()
	transition := "login"
	if s.state.IsAuthenticated {
		transition = "refresh"
	}
	if transition == "login" || s.state.User == nil || s.state.User.ID != user.ID {
		s.bumpGeneration()
	}
	prev := s.commit(next, true)
	s.writeMu.Unlock()

	observability.SessionTransitionsTotal.WithLabelValues(transition).Inc()
	s.notify(prev, next)
	return nil
}

func (s *Store) expiry(resp domain.LoginResponse) time.Time {
	if resp.ExpiresIn > 0 {
		return s.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	// Fall back to the exp claim when the server omits the lifetime. The
	// token is not verified here, the server does that.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// SetUser merges the non-zero fields of user into the current identity.
// It fails with domain.ErrNotAuthenticated when nobody is logged in.
func (s *Store) SetUser(user domain.User) error {
	s.writeMu.Lock()
	return s.setUserLocked(user)
}

// SetUserFor is SetUser for a reply requested under generation. It fails
// with domain.ErrSessionChanged once somebody else holds the session.
func (s *Store) SetUserFor(generation uint64, user domain.User) error {
	s.writeMu.Lock()
	if s.Generation() != generation {
		s.writeMu.Unlock()
		return domain.ErrSessionChanged
	}
	return s.setUserLocked(user)
}

// setUserLocked releases writeMu, which the caller took
func (s *Store) setUserLocked(user domain.User) error {
	if !s.state.IsAuthenticated || s.state.User == nil {
		s.writeMu.Unlock()
		return domain.ErrNotAuthenticated
	}

	next := s.state.Clone()
	merged := next.User.Merge(user)
	next.User = &merged
	prev := s.commit(next, true)
	s.writeMu.Unlock()

	s.notify(prev, next)
	return nil
}

// UpdateUser applies patch to the current user. No-op when there is no user.
func (s *Store) UpdateUser(patch domain.UserPatch) {
	s.writeMu.Lock()
	if s.state.User == nil {
		s.writeMu.Unlock()
		return
	}

	next := s.state.Clone()
	patched := patch.Apply(*next.User)
	next.User = &patched
	prev := s.commit(next, true)
	s.writeMu.Unlock()

	s.notify(prev, next)
}

// Logout deletes the persisted session and resets the store. It is
// idempotent and never fails; backend errors are logged.
func (s *Store) Logout(ctx context.Context) {
	s.writeMu.Lock()
	wasEmpty := s.state.User == nil && s.state.Tokens == nil && !s.state.IsAuthenticated

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	if err := s.backend.Delete(ctx, s.key); err != nil {
		observability.FromContext(ctx).Warn("Failed to delete persisted session", "key", s.key, "error", err)
	}
	cancel()

	if !wasEmpty {
		s.bumpGeneration()
	}
	prev := s.commit(domain.SessionState{}, false)
	s.writeMu.Unlock()

	if wasEmpty {
		return
	}
	observability.SessionTransitionsTotal.WithLabelValues("logout").Inc()
	s.notify(prev, domain.SessionState{})
}

// bumpGeneration is called with writeMu held
func (s *Store) bumpGeneration() {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

// Generation identifies the current principal. Replies requested under an
// older generation belong to a session that has ended.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// commit persists next (when asked) and swaps it in. Caller holds writeMu.
func (s *Store) commit(next domain.SessionState, persist bool) domain.SessionState {
	if persist {
		s.save(next)
	}

	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	return prev
}

func (s *Store) save(state domain.SessionState) {
	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error("Failed to encode session", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		s.logger.Warn("Failed to persist session, keeping it in memory only", "key", s.key, "error", err)
	}
}

// Subscribe registers fn to run synchronously after every committed change.
// The returned function removes the listener.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) notify(prev, next domain.SessionState) {
	s.listenersMu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(prev.Clone(), next.Clone())
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

// User returns a copy of the current user, or nil when anonymous
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

func (s *Store) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Role()
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Tokens == nil {
		return ""
	}
	return s.state.Tokens.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Tokens == nil {
		return ""
	}
	return s.state.Tokens.RefreshToken
}

// HasRole reports whether the session is authenticated with one of roles.
// With no roles it only checks authentication.
func (s *Store) HasRole(roles ...domain.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.state.IsAuthenticated {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	current := s.state.Role()
	for _, r := range roles {
		if r == current {
			return true
		}
	}
	return false
}

// NeedsRefresh reports whether the access token expires within skew.
// An unknown expiry never needs a refresh.
func (s *Store) NeedsRefresh(skew time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.state.IsAuthenticated || s.state.Tokens == nil || s.state.Tokens.ExpiresAt.IsZero() {
		return false
	}
	return !s.now().Add(skew).Before(s.state.Tokens.ExpiresAt)
}
