package entities

import "time"

// Profile is the account-service's local read model of an identity. The
// identity-of-record service owns credentials; this row exists so profile
// reads never depend on that service being up.
type Profile struct {
	UserID        int64
	Username      string
	Email         string
	EmailVerified bool
	CreatedAt     time.Time
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
