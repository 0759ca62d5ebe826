// Package session holds the in-memory authentication state shared by the device flow, the catalog client and the host.
//
// All mutations go through a single write lock, so a grant racing a disconnect leaves either the full record or nothing.
package session

import (
	"fmt"
	"sync"

	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/shared"
)

// Session is the mutex-guarded session record.
type Session struct {
	mu             sync.RWMutex
	record         models.TokenRecord
	defaultCountry string
	quality        models.Quality
	state          models.AuthState
}

// New creates an unauthenticated session using countryCode until a grant or restore supplies one.
func New(countryCode string, quality models.Quality) *Session {
	return &Session{
		record:         models.TokenRecord{CountryCode: countryCode},
		defaultCountry: countryCode,
		quality:        quality,
	}
}

// Restore loads a persisted record without touching the network.
//
// The session becomes AUTHENTICATED iff both tokens are non-empty; otherwise it is left UNAUTHENTICATED with tokens cleared.
func (s *Session) Restore(stored models.TokenRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !stored.HasTokens() {
		s.reset()
		return
	}

	if stored.CountryCode == "" {
		stored.CountryCode = s.defaultCountry
	}
	s.record = stored
	s.state = models.Authenticated
}

// Clear wipes tokens and user id and returns to UNAUTHENTICATED. Callers erase the persisted record themselves.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Begin marks a device flow as running. It is a no-op when already PENDING.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case models.Authenticated:
		return fmt.Errorf("%w: session already authenticated", shared.ErrInvalidArgument)
	case models.Unauthenticated:
		s.state = models.Pending
	}
	return nil
}

// Abort returns a PENDING session to UNAUTHENTICATED after a flow ends without a grant.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.Pending {
		s.state = models.Unauthenticated
	}
}

// ApplyGrant sets all four fields together and transitions to AUTHENTICATED.
func (s *Session) ApplyGrant(userID int64, countryCode, accessToken, refreshToken string) error {
	if accessToken == "" || refreshToken == "" {
		return fmt.Errorf("%w: access and refresh tokens are required", shared.ErrInvalidGrant)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if countryCode == "" {
		countryCode = s.defaultCountry
	}
	s.record = models.TokenRecord{
		UserID:       userID,
		CountryCode:  countryCode,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	s.state = models.Authenticated
	return nil
}

// Refresh swaps in renewed tokens. An empty refreshToken keeps the current one.
//
// Only an AUTHENTICATED session can be refreshed, so a late refresh cannot revive a cleared session.
func (s *Session) Refresh(accessToken, refreshToken string) (models.TokenRecord, error) {
	if accessToken == "" {
		return models.TokenRecord{}, fmt.Errorf("%w: empty access token", shared.ErrRefreshFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.Authenticated {
		return models.TokenRecord{}, shared.ErrNotAuthenticated
	}

	s.record.AccessToken = accessToken
	if refreshToken != "" {
		s.record.RefreshToken = refreshToken
	}
	return s.record, nil
}

// SetQuality sets the stream quality preference.
func (s *Session) SetQuality(q models.Quality) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quality = q
}

// State returns the current [models.AuthState].
func (s *Session) State() models.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated is shorthand for State() == AUTHENTICATED.
func (s *Session) Authenticated() bool {
	return s.State() == models.Authenticated
}

// Record returns a copy of the token record.
func (s *Session) Record() models.TokenRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Info returns a snapshot of the whole session.
func (s *Session) Info() models.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SessionInfo{TokenRecord: s.record, Quality: s.quality, State: s.state}
}

func (s *Session) reset() {
	s.record = models.TokenRecord{CountryCode: s.defaultCountry}
	s.state = models.Unauthenticated
}
