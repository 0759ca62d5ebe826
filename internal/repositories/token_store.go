package repositories

import (
	"fmt"
	"strconv"

	"github.com/desertthunder/tidalx/internal/models"
)

// Persisted keys, scoped by the [KV] namespace.
const (
	KeyUserID       = "user_id"
	KeyCountryCode  = "country_code"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// TokenStore persists a [models.TokenRecord] in a [KV].
type TokenStore struct {
	kv KV
}

// NewTokenStore creates a [TokenStore] backed by kv.
func NewTokenStore(kv KV) *TokenStore {
	return &TokenStore{kv: kv}
}

// Load reads the persisted record. ok is false when no access token is stored.
//
// A missing or malformed user id loads as zero.
func (s *TokenStore) Load() (rec models.TokenRecord, ok bool, err error) {
	access, found, err := s.kv.Get(KeyAccessToken)
	if err != nil {
		return rec, false, fmt.Errorf("failed to load access token: %w", err)
	}
	if !found || access == "" {
		return rec, false, nil
	}
	rec.AccessToken = access

	if rec.RefreshToken, _, err = s.kv.Get(KeyRefreshToken); err != nil {
		return rec, false, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if rec.CountryCode, _, err = s.kv.Get(KeyCountryCode); err != nil {
		return rec, false, fmt.Errorf("failed to load country code: %w", err)
	}

	uid, found, err := s.kv.Get(KeyUserID)
	if err != nil {
		return rec, false, fmt.Errorf("failed to load user id: %w", err)
	}
	if found {
		rec.UserID, _ = strconv.ParseInt(uid, 10, 64)
	}

	return rec, true, nil
}

// Save writes all four fields in one batch.
func (s *TokenStore) Save(rec models.TokenRecord) error {
	err := s.kv.Put(map[string]string{
		KeyUserID:       strconv.FormatInt(rec.UserID, 10),
		KeyCountryCode:  rec.CountryCode,
		KeyAccessToken:  rec.AccessToken,
		KeyRefreshToken: rec.RefreshToken,
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Erase removes the persisted record.
func (s *TokenStore) Erase() error {
	if err := s.kv.Delete(KeyUserID, KeyCountryCode, KeyAccessToken, KeyRefreshToken); err != nil {
		return fmt.Errorf("failed to erase session: %w", err)
	}
	return nil
}
