package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"zlagoda_console/internal/credentials"
	"zlagoda_console/internal/logging"
	"zlagoda_console/internal/zlagoda"

	"go.uber.org/zap"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Phase is Loading from construction until the first Initialize finishes.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseReady {
		return "ready"
	}
	return "loading"
}

// State is a snapshot of the store. Role flags are derived from Identity on
// every call.
type State struct {
	Phase    Phase
	Identity *Identity
}

func (s State) Loading() bool {
	return s.Phase == PhaseLoading
}

func (s State) IsAuthenticated() bool {
	return s.Identity != nil
}

func (s State) IsManager() bool {
	return s.Identity != nil && s.Identity.Role == RoleManager
}

func (s State) IsCashier() bool {
	return s.Identity != nil && s.Identity.Role == RoleCashier
}

type AccountAPI interface {
	Account(ctx context.Context) (zlagoda.Employee, error)
	Login(ctx context.Context, login, password string) (string, error)
	Register(ctx context.Context, req zlagoda.RegisterRequest) (string, error)
}

type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Store is the single source of truth for who is signed in. Consumers read
// it through State or the derived flags and never keep their own copy.
type Store struct {
	api    AccountAPI
	creds  CredentialStore
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	phase    Phase
	identity *Identity
	// generation changes on every login/logout so a profile fetch that was
	// overtaken by one of them does not resurrect a stale identity.
	generation uint64
	ready      chan struct{}
	readyOnce  sync.Once

	listenersMu sync.Mutex
	listeners   map[int]func(State)
	nextID      int
}

func NewStore(api AccountAPI, creds CredentialStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:       api,
		creds:     creds,
		logger:    logger.Named("session"),
		now:       time.Now,
		phase:     PhaseLoading,
		ready:     make(chan struct{}),
		listeners: map[int]func(State){},
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) snapshot() State {
	state := State{Phase: s.phase}
	if s.identity != nil {
		id := *s.identity
		state.Identity = &id
	}
	return state
}

// Ready is closed once the store leaves PhaseLoading.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) Identity() (Identity, bool) {
	state := s.State()
	if state.Identity == nil {
		return Identity{}, false
	}
	return *state.Identity, true
}

func (s *Store) IsAuthenticated() bool { return s.State().IsAuthenticated() }
func (s *Store) IsManager() bool       { return s.State().IsManager() }
func (s *Store) IsCashier() bool       { return s.State().IsCashier() }

// Subscribe registers fn for every state change and returns the function
// that removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify() {
	state := s.State()
	s.listenersMu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}

// Initialize restores the session from the persisted credential. Any failure
// (missing, expired or rejected credential, network error) ends in a ready,
// signed-out store; it never fails the caller.
func (s *Store) Initialize(ctx context.Context) {
	defer s.notify()

	gen := s.currentGeneration()
	token, err := s.creds.Load()
	if err != nil {
		if !errors.Is(err, credentials.ErrNoCredential) {
			s.logger.Warn("stored credential unreadable; discarding", zap.Error(err))
			s.clearCredentialIfCurrent(gen)
		}
		s.finish(gen, nil)
		return
	}

	if tokenExpired(token, s.now()) {
		s.logger.Info("stored credential expired; discarding", logging.Token("token", token))
		s.clearCredentialIfCurrent(gen)
		s.finish(gen, nil)
		return
	}

	identity, err := s.fetchIdentity(ctx)
	if err != nil {
		s.logger.Warn("session restore failed", zap.Error(err), logging.Token("token", token))
		s.clearCredentialIfCurrent(gen)
		s.finish(gen, nil)
		return
	}

	s.logger.Info("session restored",
		zap.String("employee_id", identity.EmployeeID),
		zap.Stringer("role", identity.Role),
	)
	s.finish(gen, &identity)
}

// Login persists token and loads the matching profile. On failure the store
// is left signed out and the error is returned.
func (s *Store) Login(ctx context.Context, token string) error {
	defer s.notify()

	gen, err := s.saveCredential(token)
	if err != nil {
		s.finish(gen, nil)
		return fmt.Errorf("store credential: %w", err)
	}

	identity, err := s.fetchIdentity(ctx)
	if err != nil {
		s.logger.Warn("login profile fetch failed", zap.Error(err))
		s.clearCredentialIfCurrent(gen)
		s.finish(gen, nil)
		return fmt.Errorf("load profile: %w", err)
	}

	s.logger.Info("logged in",
		zap.String("employee_id", identity.EmployeeID),
		zap.Stringer("role", identity.Role),
		logging.Token("token", token),
	)
	s.finish(gen, &identity)
	return nil
}

// LoginWithPassword exchanges login and password for a token, then behaves
// like Login.
func (s *Store) LoginWithPassword(ctx context.Context, login, password string) error {
	token, err := s.api.Login(ctx, login, password)
	if err != nil {
		s.Logout()
		return fmt.Errorf("login: %w", err)
	}
	return s.Login(ctx, token)
}

// Register creates the employee account server-side and signs it in.
func (s *Store) Register(ctx context.Context, req zlagoda.RegisterRequest) error {
	token, err := s.api.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return s.Login(ctx, token)
}

// Logout forgets the credential and the identity. Calling it again is a no-op.
func (s *Store) Logout() {
	s.mu.Lock()
	s.generation++
	s.clearCredential()
	wasSignedIn := s.identity != nil
	s.identity = nil
	s.markReady()
	s.mu.Unlock()

	if wasSignedIn {
		s.logger.Info("logged out")
	}
	s.notify()
}

// Refresh reloads the profile with the stored credential, e.g. after the
// employee record changed. A failure signs the user out.
func (s *Store) Refresh(ctx context.Context) error {
	gen := s.currentGeneration()
	if _, err := s.creds.Load(); err != nil {
		s.logoutIfCurrent(gen)
		if errors.Is(err, credentials.ErrNoCredential) {
			return ErrNotAuthenticated
		}
		return fmt.Errorf("load credential: %w", err)
	}

	identity, err := s.fetchIdentity(ctx)
	if err != nil {
		s.logger.Warn("profile refresh failed; logging out", zap.Error(err))
		s.logoutIfCurrent(gen)
		return fmt.Errorf("refresh profile: %w", err)
	}

	s.finish(gen, &identity)
	s.notify()
	return nil
}

func (s *Store) fetchIdentity(ctx context.Context) (Identity, error) {
	employee, err := s.api.Account(ctx)
	if err != nil {
		return Identity{}, err
	}
	identity := identityFromEmployee(employee)
	if identity.EmployeeID == "" {
		return Identity{}, errors.New("profile has no employee id")
	}
	return identity, nil
}

func (s *Store) clearCredential() {
	if err := s.creds.Clear(); err != nil {
		s.logger.Error("clear credential", zap.Error(err))
	}
}

// clearCredentialIfCurrent removes the stored credential unless a login or
// logout happened since gen was taken. The check and the removal share mu,
// so a Login that bumps the generation afterwards saves its token after the
// removal, never before it.
func (s *Store) clearCredentialIfCurrent(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.logger.Debug("credential kept; session changed meanwhile")
		return
	}
	s.clearCredential()
}

func (s *Store) logoutIfCurrent(gen uint64) {
	if s.currentGeneration() != gen {
		return
	}
	s.Logout()
}

func (s *Store) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// saveCredential starts a new generation and persists token within it.
func (s *Store) saveCredential(token string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation, s.creds.Save(token)
}

// finish marks the store ready and, unless a login or logout happened since
// gen was taken, installs identity.
func (s *Store) finish(gen uint64, identity *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markReady()
	if s.generation != gen {
		return
	}
	s.identity = identity
}

// markReady must be called with mu held.
func (s *Store) markReady() {
	s.phase = PhaseReady
	s.readyOnce.Do(func() { close(s.ready) })
}
