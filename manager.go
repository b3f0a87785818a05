package atelier

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

var _ SessionReader = (*Manager)(nil)

// ManagerOption customizes Manager construction.
type ManagerOption func(*Manager)

// WithManagerLogger overrides the logger used for session operations.
func WithManagerLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithManagerClock injects a custom clock (useful for tests).
func WithManagerClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithManagerActivitySink sets the ActivitySink used to publish session events.
func WithManagerActivitySink(sink ActivitySink) ManagerOption {
	return func(m *Manager) {
		m.sink = normalizeActivitySink(sink)
	}
}

// Manager owns the process-wide session. It is the only writer of session
// state: bootstrap, login, signup, logout, and refresh are the full set of
// mutation paths. All other code reads snapshots through Current.
//
// A generation counter guards against stale resolutions: logout bumps the
// generation, so an identity response that was in flight when the user
// logged out is discarded instead of resurrecting the session.
type Manager struct {
	client *Client
	creds  CredentialStore

	mu     sync.Mutex
	token  string
	user   *UserSummary
	phase  Phase
	gen    uint64
	booted bool

	logger Logger
	sink   ActivitySink
	now    func() time.Time
}

// NewManager creates the session manager. A nil credential store behaves as
// an absent storage medium: reads see no token and writes are no-ops.
func NewManager(client *Client, creds CredentialStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		client: client,
		creds:  creds,
		phase:  PhaseInitializing,
		logger: defLogger{},
		sink:   noopActivitySink{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Current returns a snapshot of session state.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Bootstrap restores the session from the credential store. It runs once;
// later calls return the current snapshot. A persisted token the backend
// rejects for any reason is cleared and the session settles unauthenticated;
// that failure is recovered here, never surfaced to the user.
func (m *Manager) Bootstrap(ctx context.Context) Session {
	m.mu.Lock()
	if m.booted {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	m.booted = true

	token, ok := m.credTokenLocked()
	if !ok {
		m.transitionLocked(PhaseReady)
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventBootstrap,
			Metadata:  map[string]any{"authenticated": false},
		})
		return snap
	}

	m.token = token
	gen := m.gen
	m.transitionLocked(PhaseResolving)
	m.mu.Unlock()

	user, err := resolveIdentity(ctx, m.client, token)
	if err == nil && user == nil {
		err = incompleteAuthResponse(0)
	}

	m.mu.Lock()
	if m.gen != gen {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.logger.Debug("bootstrap result discarded: session superseded")
		return snap
	}

	if err != nil {
		m.credClearLocked()
		m.token = ""
		m.user = nil
		m.transitionLocked(PhaseReady)
		snap := m.snapshotLocked()
		m.mu.Unlock()

		m.logger.Info("discarding persisted credential rejected by backend: %v", err)
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventBootstrap,
			Metadata: map[string]any{
				"authenticated": false,
				"error":         err.Error(),
			},
		})
		return snap
	}

	m.user = user
	m.transitionLocked(PhaseReady)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventBootstrap,
		UserID:    user.ID,
		Metadata:  map[string]any{"authenticated": true},
	})
	return snap
}

// Login authenticates with either the password or wallet flow. On success
// the token is persisted and the in-memory {token, user} pair is set under
// one lock, so no reader observes one without the other. On failure the
// pre-attempt state is restored, the credential store is untouched, and the
// error is returned for UI display. A successful response that lands after
// logout already replaced the session is discarded and reported as
// ErrSessionSuperseded.
func (m *Manager) Login(ctx context.Context, req LoginRequest) (Session, error) {
	if err := req.Validate(); err != nil {
		return m.Current(), normalizeValidationError(err, "invalid login request")
	}

	return m.runAuthFlow(ctx, ActivityEventLoginSuccess, ActivityEventLoginFailure,
		map[string]any{"identifier": req.Identifier, "wallet_flow": req.WalletFlow},
		func(ctx context.Context) (string, *UserSummary, error) {
			return signIn(ctx, m.client, req)
		},
	)
}

// Signup creates and authenticates a new account in one step, with the same
// atomicity and failure contract as Login.
func (m *Manager) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	if err := req.Validate(); err != nil {
		return m.Current(), normalizeValidationError(err, "invalid signup request")
	}

	return m.runAuthFlow(ctx, ActivityEventSignupSuccess, ActivityEventSignupFailure,
		map[string]any{"username": req.Username, "email": req.Email},
		func(ctx context.Context) (string, *UserSummary, error) {
			return signUp(ctx, m.client, req)
		},
	)
}

func (m *Manager) runAuthFlow(
	ctx context.Context,
	successEvent, failureEvent ActivityEventType,
	meta map[string]any,
	fetch func(context.Context) (string, *UserSummary, error),
) (Session, error) {
	m.mu.Lock()
	prevToken, prevUser := m.token, m.user
	gen := m.gen
	m.transitionLocked(PhaseResolving)
	m.mu.Unlock()

	token, user, err := fetch(ctx)
	if err == nil && (token == "" || user == nil) {
		err = incompleteAuthResponse(0)
	}

	m.mu.Lock()
	if m.gen != gen {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.logger.Debug("authentication result discarded: session superseded")
		if err == nil {
			err = ErrSessionSuperseded
		}
		return snap, err
	}

	if err != nil {
		m.token, m.user = prevToken, prevUser
		m.transitionLocked(PhaseReady)
		snap := m.snapshotLocked()
		m.mu.Unlock()

		failMeta := cloneMetadata(meta)
		failMeta["error"] = err.Error()
		m.recordActivity(ctx, ActivityEvent{
			EventType: failureEvent,
			Metadata:  failMeta,
		})
		return snap, err
	}

	m.credSetLocked(token)
	m.token = token
	m.user = user
	m.gen++
	m.transitionLocked(PhaseReady)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.recordActivity(ctx, ActivityEvent{
		EventType: successEvent,
		UserID:    user.ID,
		Metadata:  cloneMetadata(meta),
	})
	return snap, nil
}

// Logout clears the credential store and resets the session to ready and
// unauthenticated. It is synchronous, makes no network call, and is safe to
// call when already logged out. Any resolution in flight when Logout runs
// is discarded when it lands.
func (m *Manager) Logout() Session {
	m.mu.Lock()
	wasAuthenticated := m.user != nil
	m.credClearLocked()
	m.token = ""
	m.user = nil
	m.gen++
	m.booted = true
	m.transitionLocked(PhaseReady)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.recordActivity(context.Background(), ActivityEvent{
		EventType: ActivityEventLogout,
		Metadata:  map[string]any{"was_authenticated": wasAuthenticated},
	})
	return snap
}

// Refresh re-resolves the identity snapshot from whichever token is
// currently known: in-memory first, then the credential store. Overlapping
// calls are safe; the last resolution to land wins, and a resolution
// superseded by logout or a new login is dropped.
//
// A 4xx answer means the token itself is no longer valid, so it is cleared
// the same way Bootstrap clears it. Transport and server failures keep the
// previous snapshot (possibly stale) and only report the error.
func (m *Manager) Refresh(ctx context.Context) (Session, error) {
	m.mu.Lock()
	token := m.token
	if token == "" {
		token, _ = m.credTokenLocked()
	}

	if token == "" {
		m.user = nil
		m.transitionLocked(PhaseReady)
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, nil
	}

	m.token = token
	gen := m.gen
	m.transitionLocked(PhaseResolving)
	m.mu.Unlock()

	user, err := resolveIdentity(ctx, m.client, token)
	if err == nil && user == nil {
		err = incompleteAuthResponse(0)
	}

	m.mu.Lock()
	if m.gen != gen {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.logger.Debug("refresh result discarded: session superseded")
		return snap, nil
	}

	if err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.IsClient() {
			m.credClearLocked()
			m.token = ""
			m.user = nil
		}
		m.transitionLocked(PhaseReady)
		snap := m.snapshotLocked()
		m.mu.Unlock()

		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventRefresh,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return snap, err
	}

	m.user = user
	m.transitionLocked(PhaseReady)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventRefresh,
		UserID:    user.ID,
	})
	return snap, nil
}

func (m *Manager) snapshotLocked() Session {
	return Session{
		Token: m.token,
		User:  m.user,
		Phase: m.phase,
	}
}

func (m *Manager) transitionLocked(to Phase) {
	if m.phase == to {
		return
	}
	if !canTransition(m.phase, to) {
		m.logger.Warn("session phase transition outside graph: %s -> %s", m.phase, to)
	}
	m.phase = to
}

func (m *Manager) credTokenLocked() (string, bool) {
	if m.creds == nil {
		return "", false
	}
	token, ok := m.creds.Token()
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (m *Manager) credSetLocked(token string) {
	if m.creds == nil {
		return
	}
	m.creds.SetToken(token)
}

func (m *Manager) credClearLocked() {
	if m.creds == nil {
		return
	}
	m.creds.Clear()
}

func (m *Manager) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.sink)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("session activity sink error: %v", err)
	}
}

func normalizeValidationError(err error, message string) error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return err
	}

	return goerrors.Wrap(err, goerrors.CategoryValidation, message).
		WithCode(goerrors.CodeBadRequest)
}

func cloneMetadata(meta map[string]any) map[string]any {
	cloned := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		cloned[k] = v
	}
	return cloned
}
