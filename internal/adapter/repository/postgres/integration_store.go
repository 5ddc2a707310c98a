package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nidohq/nido-sync/internal/config"
	"github.com/nidohq/nido-sync/internal/cryptoutils"
	"github.com/nidohq/nido-sync/internal/domain/integration"
)

// IntegrationModel is the database DTO with Gorm tags. Tokens are encrypted
// at rest when a key is configured.
type IntegrationModel struct {
	ID           int64  `gorm:"primaryKey"`
	UserID       int64  `gorm:"not null;index"`
	Provider     string `gorm:"type:varchar(50);not null"`
	AccessToken  string `gorm:"type:text"`
	RefreshToken string `gorm:"type:text"`
	TokenExpiry  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (IntegrationModel) TableName() string {
	return "calendar_integrations"
}

type IntegrationStore struct {
	db            *gorm.DB
	encryptionKey string
}

func NewIntegrationStore(db *gorm.DB, cfg *config.Config) *IntegrationStore {
	return &IntegrationStore{
		db:            db,
		encryptionKey: cfg.TokenEncryptionKey,
	}
}

func (s *IntegrationStore) Find(ctx context.Context, integrationID int64) (*integration.Integration, error) {
	var model IntegrationModel
	if err := s.db.WithContext(ctx).Where("id = ?", integrationID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrNotFound
		}
		return nil, err
	}
	return s.integrationToDomain(model)
}

// Upsert persists credentials; the token issuance flow itself lives outside
// this service.
func (s *IntegrationStore) Upsert(ctx context.Context, integ *integration.Integration) error {
	model, err := s.integrationToModel(integ)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(&model).Error; err != nil {
		return err
	}
	integ.ID = model.ID
	return nil
}

// Mappers

func (s *IntegrationStore) integrationToDomain(m IntegrationModel) (*integration.Integration, error) {
	access, err := s.reveal(m.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	refresh, err := s.reveal(m.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt refresh token: %w", err)
	}

	return &integration.Integration{
		ID:           m.ID,
		UserID:       m.UserID,
		Provider:     m.Provider,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenExpiry:  m.TokenExpiry,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func (s *IntegrationStore) integrationToModel(d *integration.Integration) (IntegrationModel, error) {
	access, err := s.conceal(d.AccessToken)
	if err != nil {
		return IntegrationModel{}, fmt.Errorf("encrypt access token: %w", err)
	}
	refresh, err := s.conceal(d.RefreshToken)
	if err != nil {
		return IntegrationModel{}, fmt.Errorf("encrypt refresh token: %w", err)
	}

	return IntegrationModel{
		ID:           d.ID,
		UserID:       d.UserID,
		Provider:     d.Provider,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenExpiry:  d.TokenExpiry,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func (s *IntegrationStore) conceal(plaintext string) (string, error) {
	if s.encryptionKey == "" {
		return plaintext, nil
	}
	return cryptoutils.Encrypt(plaintext, s.encryptionKey)
}

func (s *IntegrationStore) reveal(stored string) (string, error) {
	if s.encryptionKey == "" {
		return stored, nil
	}
	return cryptoutils.Decrypt(stored, s.encryptionKey)
}
