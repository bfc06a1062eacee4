package models

import (
	"time"

	"github.com/google/uuid"
)

const FederatedProviderGoogle = "google"

// FederatedIdentity links an external provider account to exactly one
// local user. The primary key is the provider's own subject id, so the
// row is created once per external account and never updated.
type FederatedIdentity struct {
	ID           string                 `json:"id" gorm:"type:varchar(255);primaryKey"`
	Provider     string                 `json:"provider" gorm:"type:varchar(50);not null;index"`
	AccessToken  string                 `json:"-" gorm:"type:text"`
	RefreshToken string                 `json:"-" gorm:"type:text"`
	Profile      map[string]interface{} `json:"profile,omitempty" gorm:"type:text;serializer:json"`
	LocalUserID  uuid.UUID              `json:"local_user_id" gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time              `json:"createdAt"`
}

func (FederatedIdentity) TableName() string {
	return "federated_identities"
}
