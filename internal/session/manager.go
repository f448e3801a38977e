package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/mywatt/dashboard/internal/api"
)

// Backend is the slice of the API client the manager needs for validation
type Backend interface {
	CurrentUser(ctx context.Context, token string) (*api.User, error)
}

// Manager owns session lifecycle: create on login, resolve on each guarded
// request, destroy on logout or failed validation. It is explicitly
// constructed and injected; there is no ambient global session state.
type Manager struct {
	store   Store
	backend Backend
	cipher  *TokenCipher
	ttl     time.Duration
	log     zerolog.Logger

	// validated tracks sessions whose token has been checked against the
	// backend during this process lifetime, so each session costs at most one
	// validation call per load.
	validated sync.Map
}

// NewManager creates a session manager
func NewManager(store Store, backend Backend, cipher *TokenCipher, ttl time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		store:   store,
		backend: backend,
		cipher:  cipher,
		ttl:     ttl,
		log:     log,
	}
}

// Create persists a new session from a successful login. Exactly the four
// authoritative fields from the login response are stored, token sealed.
func (m *Manager) Create(ctx context.Context, login *api.LoginResult) (*Session, error) {
	sealed, err := m.cipher.Seal(login.AccessToken)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &Record{
		ID:                  ulid.Make().String(),
		UserID:              login.UserID,
		UserType:            login.UserType,
		ForcePasswordChange: login.ForcePasswordChange,
		Token:               sealed,
		CreatedAt:           now,
		ExpiresAt:           now.Add(m.ttl),
	}

	if err := m.store.Save(ctx, rec); err != nil {
		return nil, err
	}

	// A freshly issued token needs no re-validation
	m.validated.Store(rec.ID, struct{}{})

	m.log.Info().
		Str("session_id", rec.ID).
		Str("user_id", rec.UserID).
		Str("user_type", rec.UserType).
		Msg("Session created")

	return &Session{
		ID:                  rec.ID,
		UserID:              rec.UserID,
		UserType:            rec.UserType,
		ForcePasswordChange: rec.ForcePasswordChange,
		Token:               login.AccessToken,
	}, nil
}

// Resolve rehydrates the session with the given ID. The first resolution of a
// session in this process re-validates its token against the backend; an
// empty or rejected response destroys the stored record (all fields cleared
// together) and yields ErrInvalid. An empty ID resolves to ErrNotFound
// without touching the store or the network.
func (m *Manager) Resolve(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}

	rec, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !rec.ExpiresAt.IsZero() && time.Now().After(rec.ExpiresAt) {
		m.discard(ctx, sessionID)
		return nil, ErrInvalid
	}

	token, err := m.cipher.Open(rec.Token)
	if err != nil {
		m.log.Warn().Err(err).Str("session_id", sessionID).Msg("Stored token unreadable, destroying session")
		m.discard(ctx, sessionID)
		return nil, ErrInvalid
	}

	if _, ok := m.validated.Load(sessionID); !ok {
		user, err := m.backend.CurrentUser(ctx, token)
		if err != nil || user == nil {
			m.log.Warn().Err(err).Str("session_id", sessionID).Msg("Token rejected by backend, destroying session")
			m.discard(ctx, sessionID)
			return nil, ErrInvalid
		}
		m.validated.Store(sessionID, struct{}{})
	}

	return &Session{
		ID:                  rec.ID,
		UserID:              rec.UserID,
		UserType:            rec.UserType,
		ForcePasswordChange: rec.ForcePasswordChange,
		Token:               token,
	}, nil
}

// ClearForcePasswordChange durably clears the flag after a successful
// password change. The other stored fields are untouched.
func (m *Manager) ClearForcePasswordChange(ctx context.Context, sessionID string) error {
	rec, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	rec.ForcePasswordChange = false
	return m.store.Save(ctx, rec)
}

// Destroy removes a session. Purely local, no backend call, and idempotent:
// destroying a missing session is not an error.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	m.validated.Delete(sessionID)
	if err := m.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// SweepExpired purges expired session records
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, time.Now())
}

// TTL returns the configured session lifetime
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) discard(ctx context.Context, sessionID string) {
	m.validated.Delete(sessionID)
	if err := m.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrNotFound) {
		m.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to delete session record")
	}
}
