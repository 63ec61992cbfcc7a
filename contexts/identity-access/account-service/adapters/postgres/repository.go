package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gatekeeper/contexts/identity-access/account-service/domain/entities"
	domainerrors "gatekeeper/contexts/identity-access/account-service/domain/errors"
	"gatekeeper/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type profileModel struct {
	UserID        int64     `gorm:"column:user_id;primaryKey"`
	Username      string    `gorm:"column:username"`
	Email         string    `gorm:"column:email;uniqueIndex:account_profiles_unique_email"`
	EmailVerified bool      `gorm:"column:email_verified"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (profileModel) TableName() string { return "account_profiles" }

func (m profileModel) toEntity() entities.Profile {
	return entities.Profile{
		UserID:        m.UserID,
		Username:      m.Username,
		Email:         m.Email,
		EmailVerified: m.EmailVerified,
		CreatedAt:     m.CreatedAt,
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	RetryCount   int        `gorm:"column:retry_count"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string { return "account_outbox" }

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

func (r *Repository) GetByID(ctx context.Context, userID int64) (entities.Profile, error) {
	var row profileModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Profile{}, domainerrors.ErrProfileNotFound
		}
		return entities.Profile{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) List(ctx context.Context) ([]entities.Profile, error) {
	var rows []profileModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Profile, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// CreateWithOutbox persists the profile and the lifecycle event in one
// transaction, so either both commit or neither does.
func (r *Repository) CreateWithOutbox(ctx context.Context, profile entities.Profile, message outbox.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profileRow := profileModel{
			UserID:        profile.UserID,
			Username:      profile.Username,
			Email:         profile.Email,
			EmailVerified: profile.EmailVerified,
			CreatedAt:     profile.CreatedAt.UTC(),
		}
		if err := tx.Create(&profileRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrEmailAlreadyRegistered
			}
			return err
		}

		outboxRow := outboxModel{
			OutboxID:     message.ID,
			EventType:    message.EventType,
			PartitionKey: message.PartitionKey,
			Payload:      message.Payload,
			Status:       outbox.StatusPending,
			CreatedAt:    profile.CreatedAt.UTC(),
		}
		return tx.Create(&outboxRow).Error
	})
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Message{
			ID:           row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			Status:       row.Status,
			RetryCount:   row.RetryCount,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, id string, sentAt time.Time) error {
	sentAt = sentAt.UTC()
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", id).
		Updates(map[string]any{
			"status":  outbox.StatusSent,
			"sent_at": &sentAt,
		}).
		Error
}

func (r *Repository) MarkOutboxRetry(ctx context.Context, id string, retryCount int) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", id).
		Update("retry_count", retryCount).
		Error
}

func (r *Repository) MarkOutboxDeadLetter(ctx context.Context, id string, failedAt time.Time) error {
	failedAt = failedAt.UTC()
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", id).
		Updates(map[string]any{
			"status":  outbox.StatusDeadLetter,
			"sent_at": &failedAt,
		}).
		Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
