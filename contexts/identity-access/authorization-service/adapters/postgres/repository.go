package postgresadapter

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "gatekeeper/contexts/identity-access/authorization-service/domain/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type roleAssignmentModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;uniqueIndex:authz_assignments_unique_user_role"`
	RoleID    string    `gorm:"column:role_id;uniqueIndex:authz_assignments_unique_user_role"`
	GrantedBy string    `gorm:"column:granted_by"`
	GrantedAt time.Time `gorm:"column:granted_at"`
}

func (roleAssignmentModel) TableName() string { return "authz_role_assignments" }

func (m roleAssignmentModel) toEntity() entities.RoleAssignment {
	return entities.RoleAssignment{
		UserID:    m.UserID,
		RoleID:    m.RoleID,
		GrantedBy: m.GrantedBy,
		GrantedAt: m.GrantedAt,
	}
}

// processedEventModel is the dedup ledger for the registration consumer.
type processedEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (processedEventModel) TableName() string { return "authz_processed_events" }

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// ApplyRegistrationGrant reserves the event id and grants the role in one
// transaction. ON CONFLICT DO NOTHING on the ledger makes the reserve atomic
// under concurrent redelivery; a failed grant rolls the reserve back so the
// next delivery retries from scratch.
func (r *Repository) ApplyRegistrationGrant(ctx context.Context, eventID string, assignment entities.RoleAssignment) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reserve := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&processedEventModel{
			EventID:     eventID,
			ProcessedAt: assignment.GrantedAt.UTC(),
		})
		if reserve.Error != nil {
			return reserve.Error
		}
		if reserve.RowsAffected == 0 {
			return nil
		}

		// The grant itself is also conflict-tolerant: the role may already
		// exist from the administrative path.
		grant := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&roleAssignmentModel{
			UserID:    assignment.UserID,
			RoleID:    assignment.RoleID,
			GrantedBy: assignment.GrantedBy,
			GrantedAt: assignment.GrantedAt.UTC(),
		})
		if grant.Error != nil {
			return grant.Error
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *Repository) Grant(ctx context.Context, assignment entities.RoleAssignment) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&roleAssignmentModel{
			UserID:    assignment.UserID,
			RoleID:    assignment.RoleID,
			GrantedBy: assignment.GrantedBy,
			GrantedAt: assignment.GrantedAt.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrRoleAlreadyGranted
	}
	return nil
}

func (r *Repository) Revoke(ctx context.Context, userID int64, roleID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&roleAssignmentModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrAssignmentNotFound
	}
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]entities.RoleAssignment, error) {
	var rows []roleAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.RoleAssignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}
