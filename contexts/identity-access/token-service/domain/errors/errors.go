package errors

import "errors"

// Verification failures are distinct kinds so callers can decide between
// retry and reject. All of them surface to clients as an authentication
// rejection; none of them is retried locally.
var (
	ErrMalformedToken   = errors.New("token is malformed")
	ErrSignatureInvalid = errors.New("token signature is invalid")
	ErrIssuerMismatch   = errors.New("token issuer mismatch")
	ErrAudienceMismatch = errors.New("token audience mismatch")
	ErrTokenExpired     = errors.New("token is expired")

	// ErrKeySigning is issuer-only: verify-only deployments hold no private key.
	ErrKeySigning = errors.New("signing key unavailable")

	ErrInvalidSubject   = errors.New("token subject is required")
	ErrInvalidTokenType = errors.New("unknown token type")
	ErrInvalidTTL       = errors.New("token ttl must be positive")
	ErrWrongTokenType   = errors.New("unexpected token type")
)
