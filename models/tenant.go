package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is the top-level account. Its own table carries no tenant_id
// column; tenant rows are managed through globally scoped repositories only.
type Tenant struct {
	ID        string    `gorm:"primary_key;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:100;uniqueIndex" json:"email" binding:"required"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Document  string    `gorm:"size:20" json:"document"`
	Timezone  string    `gorm:"size:50;default:'America/Sao_Paulo'" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	TrialEnds *time.Time `json:"trial_ends"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
