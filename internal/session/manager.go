// Package session enforces the idle-timeout policy on authenticated sessions.
// A recurring check loop walks the registry and drives each session through
// Active -> Warning -> Expired; any authenticated request counts as activity
// and moves it back to Active.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	sessionmetrics "verigate/internal/session/metrics"
	"verigate/internal/token"
	dErrors "verigate/pkg/domain-errors"
)

// Store is the session registry. Execute must apply mutate atomically with
// respect to concurrent Execute calls for the same ID, so a check tick and an
// activity touch can never interleave mid-transition.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Find(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	IDs(ctx context.Context) ([]string, error)
	Execute(ctx context.Context, id string, mutate func(*Session) error) (*Session, error)
}

// TokenClearer removes the persisted bearer token when a session ends.
type TokenClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// Notifier receives the user-visible lifecycle notifications. The warning is
// one-shot per inactivity window; expiry fires exactly once per session.
type Notifier interface {
	SessionWarning(ctx context.Context, s *Session, remaining time.Duration)
	SessionExpired(ctx context.Context, s *Session)
}

type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) SessionWarning(ctx context.Context, s *Session, remaining time.Duration) {
	n.logger.InfoContext(ctx, "session nearing idle timeout",
		"session_id", s.ID, "user_id", s.UserID, "remaining", remaining)
}

func (n logNotifier) SessionExpired(ctx context.Context, s *Session) {
	n.logger.InfoContext(ctx, "session expired after inactivity",
		"session_id", s.ID, "user_id", s.UserID)
}

// Manager owns session lifecycle state.
type Manager struct {
	store    Store
	tokens   TokenClearer
	cfg      Config
	logger   *slog.Logger
	notifier Notifier
	metrics  *sessionmetrics.Metrics
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier replaces the default log-backed notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithMetrics enables session gauges and counters.
func WithMetrics(sm *sessionmetrics.Metrics) Option {
	return func(m *Manager) { m.metrics = sm }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager validates the policy and builds a manager. Zero config fields
// take the documented defaults.
func NewManager(store Store, tokens TokenClearer, cfg Config, logger *slog.Logger, opts ...Option) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		store:    store,
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
		notifier: logNotifier{logger: logger},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start registers a fresh Active session for an authenticated user.
func (m *Manager) Start(ctx context.Context, identity token.Identity) (*Session, error) {
	now := m.now()
	s := &Session{
		ID:           uuid.NewString(),
		UserID:       identity.ID,
		Identity:     identity,
		LastActivity: now,
		State:        StateActive,
		CreatedAt:    now,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register session")
	}
	if m.metrics != nil {
		m.metrics.ActiveSessions.Inc()
	}
	return s, nil
}

// Find returns a session regardless of state.
func (m *Manager) Find(ctx context.Context, id string) (*Session, error) {
	return m.store.Find(ctx, id)
}

// Touch records an activity event. Activity resets LastActivity and the
// sticky warning flag together, so the next check tick observes the session
// as freshly Active. Touching an expired session fails: expiry is terminal.
func (m *Manager) Touch(ctx context.Context, id string) (*Session, error) {
	now := m.now()
	s, err := m.store.Execute(ctx, id, func(s *Session) error {
		if s.State == StateExpired {
			return dErrors.New(dErrors.CodeUnauthorized, "Session expired")
		}
		s.LastActivity = now
		s.WarningShown = false
		s.State = StateActive
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
		}
		return nil, err
	}
	return s, nil
}

// End removes a session unconditionally and clears its token slot. Ending an
// absent session is not an error: logout must always succeed locally.
func (m *Manager) End(ctx context.Context, id string) error {
	s, err := m.store.Find(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil
		}
		return err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := m.tokens.Clear(ctx, id); err != nil {
		m.logger.WarnContext(ctx, "failed to clear token slot", "session_id", id, "error", err)
	}
	if m.metrics != nil && s.State != StateExpired {
		m.metrics.ActiveSessions.Dec()
	}
	return nil
}

// Run drives the check loop until ctx is cancelled. The ticker is released on
// return so login/logout cycles never leak timers.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.checkAll(ctx)
		}
	}
}

// CheckNow runs one evaluation pass immediately, outside the ticker. Exposed
// for operational tooling and tests; Run calls the same path.
func (m *Manager) CheckNow(ctx context.Context) {
	m.checkAll(ctx)
}

// checkAll evaluates every registered session once.
func (m *Manager) checkAll(ctx context.Context) {
	ids, err := m.store.IDs(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to list sessions", "error", err)
		return
	}
	now := m.now()
	for _, id := range ids {
		m.checkOne(ctx, id, now)
	}
}

// checkOne applies the transition rules to a single session. The warning and
// expiry decisions are made inside the atomic mutate so repeated ticks cannot
// double-fire, then side effects run after the state has been committed.
func (m *Manager) checkOne(ctx context.Context, id string, now time.Time) {
	var fireWarning, fireExpired bool

	s, err := m.store.Execute(ctx, id, func(s *Session) error {
		if s.State == StateExpired {
			return nil
		}
		elapsed := now.Sub(s.LastActivity)
		switch {
		case elapsed >= m.cfg.SessionTimeout:
			s.State = StateExpired
			fireExpired = true
		case elapsed >= m.cfg.SessionTimeout-m.cfg.WarningTime:
			s.State = StateWarning
			if !s.WarningShown {
				s.WarningShown = true
				fireWarning = true
			}
		default:
			s.State = StateActive
		}
		return nil
	})
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			m.logger.ErrorContext(ctx, "session check failed", "session_id", id, "error", err)
		}
		return
	}

	switch {
	case fireExpired:
		if err := m.tokens.Clear(ctx, id); err != nil {
			m.logger.WarnContext(ctx, "failed to clear token slot", "session_id", id, "error", err)
		}
		m.notifier.SessionExpired(ctx, s)
		if m.metrics != nil {
			m.metrics.ActiveSessions.Dec()
			m.metrics.SessionsExpired.Inc()
		}
	case fireWarning:
		remaining := m.cfg.SessionTimeout - now.Sub(s.LastActivity)
		m.notifier.SessionWarning(ctx, s, remaining)
		if m.metrics != nil {
			m.metrics.WarningsIssued.Inc()
		}
	}

	// Retire long-expired records so the registry stays bounded. The record
	// lingers one extra timeout so late requests still see a precise
	// "Session expired" instead of a generic 401.
	if s.State == StateExpired && now.Sub(s.LastActivity) >= 2*m.cfg.SessionTimeout {
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.WarnContext(ctx, "failed to retire expired session", "session_id", id, "error", err)
		}
	}
}
