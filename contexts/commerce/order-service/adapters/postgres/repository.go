package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gatekeeper/contexts/commerce/order-service/domain/entities"
	domainerrors "gatekeeper/contexts/commerce/order-service/domain/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type buyerAccountModel struct {
	UserID    int64     `gorm:"column:user_id;primaryKey"`
	Username  string    `gorm:"column:username"`
	Email     string    `gorm:"column:email"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (buyerAccountModel) TableName() string { return "order_buyer_accounts" }

func (m buyerAccountModel) toEntity() entities.BuyerAccount {
	return entities.BuyerAccount{
		UserID:    m.UserID,
		Username:  m.Username,
		Email:     m.Email,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}

// processedEventModel is this context's own dedup ledger for the lifecycle
// topic; it is independent of every other consumer group's ledger.
type processedEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (processedEventModel) TableName() string { return "order_processed_events" }

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

// ApplyRegistration reserves the event id and creates the buyer account in
// one transaction; the reserve rolls back if the account insert fails.
func (r *Repository) ApplyRegistration(ctx context.Context, eventID string, account entities.BuyerAccount) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reserve := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&processedEventModel{
			EventID:     eventID,
			ProcessedAt: account.CreatedAt.UTC(),
		})
		if reserve.Error != nil {
			return reserve.Error
		}
		if reserve.RowsAffected == 0 {
			return nil
		}

		create := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&buyerAccountModel{
			UserID:    account.UserID,
			Username:  account.Username,
			Email:     account.Email,
			Status:    account.Status,
			CreatedAt: account.CreatedAt.UTC(),
		})
		if create.Error != nil {
			return create.Error
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (entities.BuyerAccount, error) {
	var row buyerAccountModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.BuyerAccount{}, domainerrors.ErrAccountNotFound
		}
		return entities.BuyerAccount{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) List(ctx context.Context) ([]entities.BuyerAccount, error) {
	var rows []buyerAccountModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.BuyerAccount, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}
