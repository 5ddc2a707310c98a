package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// MessageModel mirrors the chat messages captured by the ingestion side. This
// layer only ever reads from it.
type MessageModel struct {
	ID        string `gorm:"primaryKey;type:varchar(255)"`
	SpaceID   string `gorm:"type:varchar(255);index"`
	SenderID  string `gorm:"type:varchar(255)"`
	Body      string `gorm:"type:text"`
	CreatedAt time.Time
}

func (MessageModel) TableName() string {
	return "chat_messages"
}

type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) FindText(ctx context.Context, messageID string) (string, bool, error) {
	var model MessageModel
	if err := s.db.WithContext(ctx).Where("id = ?", messageID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Body, true, nil
}
