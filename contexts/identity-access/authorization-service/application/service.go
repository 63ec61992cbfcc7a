package application

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "gatekeeper/contexts/identity-access/authorization-service/domain/errors"
	"gatekeeper/contexts/identity-access/authorization-service/ports"
)

// Service owns role assignment use cases. The registration consumer grants the
// default role asynchronously; these operations cover the synchronous
// administrative path.
type Service struct {
	Roles  ports.RoleRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (s Service) GrantRole(ctx context.Context, userID int64, roleID string, grantedBy string) (entities.RoleAssignment, error) {
	if userID <= 0 {
		return entities.RoleAssignment{}, domainerrors.ErrInvalidUser
	}
	if roleID == "" {
		return entities.RoleAssignment{}, domainerrors.ErrInvalidRole
	}

	assignment := entities.RoleAssignment{
		UserID:    userID,
		RoleID:    roleID,
		GrantedBy: grantedBy,
		GrantedAt: s.now(),
	}
	if err := s.Roles.Grant(ctx, assignment); err != nil {
		return entities.RoleAssignment{}, err
	}

	resolveLogger(s.Logger).Info("role granted",
		"event", "authz_role_granted",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", userID,
		"role_id", roleID,
	)
	return assignment, nil
}

func (s Service) RevokeRole(ctx context.Context, userID int64, roleID string) error {
	if userID <= 0 {
		return domainerrors.ErrInvalidUser
	}
	if roleID == "" {
		return domainerrors.ErrInvalidRole
	}
	if err := s.Roles.Revoke(ctx, userID, roleID); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("role revoked",
		"event", "authz_role_revoked",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", userID,
		"role_id", roleID,
	)
	return nil
}

func (s Service) ListUserRoles(ctx context.Context, userID int64) ([]entities.RoleAssignment, error) {
	if userID <= 0 {
		return nil, domainerrors.ErrInvalidUser
	}
	return s.Roles.ListByUser(ctx, userID)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
