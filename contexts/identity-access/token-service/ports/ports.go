package ports

import "time"

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

func IsValidTokenType(tokenType string) bool {
	switch tokenType {
	case TokenTypeAccess, TokenTypeRefresh:
		return true
	default:
		return false
	}
}

// Clock abstracts current time for deterministic expiry tests.
type Clock interface {
	Now() time.Time
}

// Claims are the verified assertions carried inside a signed token.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenType string
}
