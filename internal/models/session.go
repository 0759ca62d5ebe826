package models

import (
	"strings"
	"time"
)

// AuthState is the session's authentication state.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Pending
	Authenticated
)

func (s AuthState) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Authenticated:
		return "AUTHENTICATED"
	default:
		return "UNAUTHENTICATED"
	}
}

// Quality is the requested audio quality for stream resolution.
type Quality string

const (
	QualityLow      Quality = "LOW"
	QualityHigh     Quality = "HIGH"
	QualityLossless Quality = "LOSSLESS"
)

// ParseQuality maps a case-insensitive name to a [Quality], defaulting to [QualityLossless].
func ParseQuality(s string) Quality {
	switch Quality(strings.ToUpper(strings.TrimSpace(s))) {
	case QualityLow:
		return QualityLow
	case QualityHigh:
		return QualityHigh
	default:
		return QualityLossless
	}
}

// TokenRecord holds the persisted session fields. A zero UserID means no user is known.
type TokenRecord struct {
	UserID       int64  `json:"user_id"`
	CountryCode  string `json:"country_code"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// HasTokens reports whether both tokens are non-empty.
func (r TokenRecord) HasTokens() bool {
	return r.AccessToken != "" && r.RefreshToken != ""
}

// SessionInfo is a copy of the session state safe to hand out.
type SessionInfo struct {
	TokenRecord
	Quality Quality   `json:"quality"`
	State   AuthState `json:"state"`
}

// DeviceGrant is the device code issued at the start of a device authorization flow.
type DeviceGrant struct {
	DeviceCode      string
	UserCode        string
	VerificationURI string
	Interval        time.Duration
	ExpiresAt       time.Time
}

// Expired reports whether the grant's expiry has passed at now. A zero ExpiresAt never expires.
func (g DeviceGrant) Expired(now time.Time) bool {
	return !g.ExpiresAt.IsZero() && !now.Before(g.ExpiresAt)
}
