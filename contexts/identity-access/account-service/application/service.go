package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gatekeeper/contexts/identity-access/account-service/domain/entities"
	domainerrors "gatekeeper/contexts/identity-access/account-service/domain/errors"
	"gatekeeper/contexts/identity-access/account-service/ports"
	tokenports "gatekeeper/contexts/identity-access/token-service/ports"
	"gatekeeper/internal/shared/events"
	"gatekeeper/internal/shared/outbox"
)

// Service is the auth boundary: it fronts the identity-of-record service,
// mints token pairs, and records the user.registered lifecycle event in the
// outbox within the same transaction as the local profile row. The request
// path never talks to the broker; the relay worker does.
type Service struct {
	Identity    ports.IdentityProvider
	Profiles    ports.ProfileRepository
	Tokens      ports.TokenCodec
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Logger      *slog.Logger
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

func (s Service) Register(ctx context.Context, input RegisterInput) (entities.Profile, error) {
	logger := ResolveLogger(s.Logger)
	if err := validateRegister(input); err != nil {
		return entities.Profile{}, err
	}

	registered, err := s.Identity.CreateUser(ctx, input.Username, input.Email, input.Password)
	if err != nil {
		return entities.Profile{}, err
	}

	now := s.now()
	profile := entities.Profile{
		UserID:    registered.UserID,
		Username:  input.Username,
		Email:     input.Email,
		CreatedAt: now,
	}

	eventID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Profile{}, err
	}
	event := events.UserRegistered{
		UserID:    registered.UserID,
		Username:  input.Username,
		Email:     input.Email,
		CreatedAt: now,
		Source:    events.SourceRegistration,
		EventID:   eventID,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return entities.Profile{}, err
	}

	message := outbox.Message{
		ID:           eventID,
		EventType:    events.TopicUserRegistered,
		PartitionKey: event.PartitionKey(),
		Payload:      payload,
		Status:       outbox.StatusPending,
	}
	if err := s.Profiles.CreateWithOutbox(ctx, profile, message); err != nil {
		return entities.Profile{}, err
	}

	logger.Info("user registered",
		"event", "account_user_registered",
		"module", "identity-access/account-service",
		"layer", "application",
		"user_id", registered.UserID,
		"event_id", eventID,
	)
	return profile, nil
}

func (s Service) Login(ctx context.Context, input LoginInput) (entities.TokenPair, error) {
	logger := ResolveLogger(s.Logger)
	if err := validateLogin(input); err != nil {
		return entities.TokenPair{}, err
	}

	identity, err := s.Identity.ValidateCredentials(ctx, input.Email, input.Password)
	if err != nil {
		return entities.TokenPair{}, err
	}

	pair, err := s.issuePair(identity.UserID, identity.Roles)
	if err != nil {
		return entities.TokenPair{}, err
	}

	logger.Info("user logged in",
		"event", "account_user_logged_in",
		"module", "identity-access/account-service",
		"layer", "application",
		"user_id", identity.UserID,
	)
	return pair, nil
}

// Refresh exchanges a refresh token for a fresh pair. Roles are re-read from
// the identity-of-record so a grant or revoke since login takes effect here.
func (s Service) Refresh(ctx context.Context, refreshToken string) (entities.TokenPair, error) {
	if refreshToken == "" {
		return entities.TokenPair{}, domainerrors.ErrRefreshTokenRequired
	}

	claims, err := s.Tokens.Verify(refreshToken)
	if err != nil {
		return entities.TokenPair{}, err
	}
	if claims.TokenType != tokenports.TokenTypeRefresh {
		return entities.TokenPair{}, domainerrors.ErrRefreshTokenRequired
	}

	userID, err := parseSubject(claims.Subject)
	if err != nil {
		return entities.TokenPair{}, err
	}
	roles, err := s.Identity.GetUserRoles(ctx, userID)
	if err != nil {
		return entities.TokenPair{}, err
	}
	return s.issuePair(userID, roles)
}

func (s Service) GetProfile(ctx context.Context, userID int64) (entities.Profile, error) {
	if userID <= 0 {
		return entities.Profile{}, domainerrors.ErrInvalidRequest
	}
	return s.Profiles.GetByID(ctx, userID)
}

func (s Service) ListProfiles(ctx context.Context) ([]entities.Profile, error) {
	return s.Profiles.List(ctx)
}

func (s Service) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	return s.Identity.RequestPasswordReset(ctx, email)
}

func (s Service) ConfirmPasswordReset(ctx context.Context, resetToken string, newPassword string) error {
	if resetToken == "" || newPassword == "" {
		return domainerrors.ErrInvalidRequest
	}
	return s.Identity.ConfirmPasswordReset(ctx, resetToken, newPassword)
}

func (s Service) RequestEmailVerification(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	return s.Identity.RequestEmailVerification(ctx, email)
}

func (s Service) ConfirmEmailVerification(ctx context.Context, verificationToken string) error {
	if verificationToken == "" {
		return domainerrors.ErrInvalidRequest
	}
	return s.Identity.ConfirmEmailVerification(ctx, verificationToken)
}

func (s Service) issuePair(userID int64, roles []string) (entities.TokenPair, error) {
	subject := formatSubject(userID)
	now := s.now()

	access, err := s.Tokens.Issue(subject, roles, tokenports.TokenTypeAccess, s.AccessTTL)
	if err != nil {
		return entities.TokenPair{}, err
	}
	refresh, err := s.Tokens.Issue(subject, roles, tokenports.TokenTypeRefresh, s.RefreshTTL)
	if err != nil {
		return entities.TokenPair{}, err
	}

	return entities.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(s.AccessTTL),
		RefreshExpiresAt: now.Add(s.RefreshTTL),
	}, nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
