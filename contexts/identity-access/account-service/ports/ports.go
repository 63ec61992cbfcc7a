package ports

import (
	"context"
	"time"

	"gatekeeper/contexts/identity-access/account-service/domain/entities"
	tokenports "gatekeeper/contexts/identity-access/token-service/ports"
	"gatekeeper/internal/platform/messaging"
	"gatekeeper/internal/shared/outbox"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// TokenClaims reuses the canonical trust contract owned by token-service.
type TokenClaims = tokenports.Claims

// TokenCodec is the slice of the token codec the auth boundary needs: minting
// token pairs on login and checking refresh tokens.
type TokenCodec interface {
	Issue(subject string, roles []string, tokenType string, ttl time.Duration) (string, error)
	Verify(token string) (TokenClaims, error)
}

// RegisteredUser is the identity-of-record's answer to user creation.
type RegisteredUser struct {
	UserID int64
}

// CredentialIdentity is returned by a successful credential check.
type CredentialIdentity struct {
	UserID int64
	Email  string
	Name   string
	Roles  []string
}

// UserInfo is the identity-of-record's view of an account.
type UserInfo struct {
	ID            int64
	Email         string
	Name          string
	EmailVerified bool
	CreatedAt     time.Time
}

// IdentityProvider is the synchronous trust path to the identity-of-record
// service. It is an external collaborator: this module only consumes its
// contract. Password-reset and email-verification flows are keyed by opaque
// tokens that the identity service mints and validates.
type IdentityProvider interface {
	CreateUser(ctx context.Context, name string, email string, password string) (RegisteredUser, error)
	ValidateCredentials(ctx context.Context, email string, password string) (CredentialIdentity, error)
	GetUserInfo(ctx context.Context, userID int64) (UserInfo, error)
	GetUserRoles(ctx context.Context, userID int64) ([]string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, resetToken string, newPassword string) error
	RequestEmailVerification(ctx context.Context, email string) error
	ConfirmEmailVerification(ctx context.Context, verificationToken string) error
}

// ProfileRepository is the explicit repository boundary for local profile
// rows; no process-wide shared collection stands in for it.
type ProfileRepository interface {
	GetByID(ctx context.Context, userID int64) (entities.Profile, error)
	List(ctx context.Context) ([]entities.Profile, error)
	// CreateWithOutbox must atomically persist the profile and the lifecycle
	// event outbox row in one transaction.
	CreateWithOutbox(ctx context.Context, profile entities.Profile, message outbox.Message) error
}

// OutboxRepository models worker-side outbox polling and acknowledgement.
// Rows that exhaust their publish retries move to dead_letter so a definitive
// failure is operator-visible rather than a swallowed log line.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxSent(ctx context.Context, id string, sentAt time.Time) error
	MarkOutboxRetry(ctx context.Context, id string, retryCount int) error
	MarkOutboxDeadLetter(ctx context.Context, id string, failedAt time.Time) error
}

// EventPublisher reuses the platform bus contract.
type EventPublisher = messaging.Publisher
