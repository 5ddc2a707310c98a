package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nidohq/nido-sync/internal/channel"
)

// ChannelModel is the database DTO with Gorm tags.
type ChannelModel struct {
	ID            string `gorm:"primaryKey;type:varchar(64)"`
	CalendarID    string `gorm:"type:varchar(255);not null"`
	UserID        int64  `gorm:"not null"`
	IntegrationID int64  `gorm:"not null;index"`
	ResourceID    string `gorm:"type:varchar(255)"`
	Expiration    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ChannelModel) TableName() string {
	return "webhook_channels"
}

type ChannelStore struct {
	db *gorm.DB
}

func NewChannelStore(db *gorm.DB) *ChannelStore {
	return &ChannelStore{db: db}
}

func (s *ChannelStore) Save(ctx context.Context, ch *channel.Channel) error {
	model := channelToModel(ch)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
}

func (s *ChannelStore) Delete(ctx context.Context, channelID string) error {
	return s.db.WithContext(ctx).
		Where("id = ?", channelID).
		Delete(&ChannelModel{}).Error
}

func (s *ChannelStore) ListAll(ctx context.Context) ([]*channel.Channel, error) {
	var models []ChannelModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]*channel.Channel, 0, len(models))
	for _, model := range models {
		items = append(items, channelToDomain(model))
	}
	return items, nil
}

// Mappers

func channelToDomain(m ChannelModel) *channel.Channel {
	return &channel.Channel{
		ID:            m.ID,
		CalendarID:    m.CalendarID,
		UserID:        m.UserID,
		IntegrationID: m.IntegrationID,
		ResourceID:    m.ResourceID,
		Expiration:    m.Expiration,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func channelToModel(d *channel.Channel) ChannelModel {
	return ChannelModel{
		ID:            d.ID,
		CalendarID:    d.CalendarID,
		UserID:        d.UserID,
		IntegrationID: d.IntegrationID,
		ResourceID:    d.ResourceID,
		Expiration:    d.Expiration,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
