package consumer

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type deadLetterModel struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Topic         string    `gorm:"column:topic"`
	ConsumerGroup string    `gorm:"column:consumer_group"`
	PartitionKey  string    `gorm:"column:partition_key"`
	Payload       []byte    `gorm:"column:payload"`
	Reason        string    `gorm:"column:reason"`
	Attempts      int       `gorm:"column:attempts"`
	FailedAt      time.Time `gorm:"column:failed_at"`
}

func (deadLetterModel) TableName() string { return "consumer_dead_letters" }

// GormDeadLetterStore persists dead letters for operator inspection.
type GormDeadLetterStore struct {
	db *gorm.DB
}

func NewGormDeadLetterStore(db *gorm.DB) *GormDeadLetterStore {
	return &GormDeadLetterStore{db: db}
}

func (s *GormDeadLetterStore) Record(ctx context.Context, letter DeadLetter) error {
	row := deadLetterModel{
		Topic:         letter.Topic,
		ConsumerGroup: letter.ConsumerGroup,
		PartitionKey:  letter.PartitionKey,
		Payload:       letter.Payload,
		Reason:        letter.Reason,
		Attempts:      letter.Attempts,
		FailedAt:      letter.FailedAt.UTC(),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormDeadLetterStore) List(ctx context.Context, consumerGroup string) ([]DeadLetter, error) {
	tx := s.db.WithContext(ctx).Model(&deadLetterModel{}).Order("failed_at ASC")
	if consumerGroup != "" {
		tx = tx.Where("consumer_group = ?", consumerGroup)
	}

	var rows []deadLetterModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]DeadLetter, 0, len(rows))
	for _, row := range rows {
		items = append(items, DeadLetter{
			Topic:         row.Topic,
			ConsumerGroup: row.ConsumerGroup,
			PartitionKey:  row.PartitionKey,
			Payload:       row.Payload,
			Reason:        row.Reason,
			Attempts:      row.Attempts,
			FailedAt:      row.FailedAt,
		})
	}
	return items, nil
}
