package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxAction string

const (
	OutboxActionCreate OutboxAction = "Create"
	OutboxActionUpdate OutboxAction = "Update"
	OutboxActionDelete OutboxAction = "Delete"
)

// OutboxRecord is one pending entity-change event. It is written inside the
// same transaction as the change itself and published asynchronously by the
// dispatcher, so a committed change is never silently lost to a broker
// outage.
type OutboxRecord struct {
	ID            int                 `gorm:"primary_key" json:"id"`
	TenantId      string              `gorm:"index;size:36;not null" json:"tenant_id"`
	OccurredAt    time.Time           `gorm:"not null" json:"occurred_at"`
	ReferenceId   int                 `gorm:"not null" json:"reference_id"`
	ReferenceType EntityReferenceType `gorm:"size:30;not null" json:"reference_type"`
	Action        OutboxAction        `gorm:"size:10;not null" json:"action"`
	OldObj        []byte              `gorm:"type:mediumblob" json:"old_obj"`
	NewObj        []byte              `gorm:"type:mediumblob" json:"new_obj"`
	PublishStatus OutboxPublishStatus `gorm:"size:10;not null;default:'Pending';index" json:"publish_status"`
	PublishedAt   *time.Time          `json:"published_at"`
	AttemptCount  int                 `gorm:"default:0" json:"attempt_count"`
	LastError     string              `gorm:"size:500" json:"last_error"`
	CorrelationId string              `gorm:"size:36" json:"correlation_id"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (o OutboxRecord) GetTenantId() string    { return o.TenantId }
func (o *OutboxRecord) SetTenantId(id string) { o.TenantId = id }

// WriteOutbox stores the event row on the caller's transaction. Old/new
// snapshots are serialized here so the dispatcher needs no model knowledge.
func WriteOutbox(ctx context.Context, tx *gorm.DB, tenantId string, refId int, refType EntityReferenceType, newObj any, oldObj any, action OutboxAction) error {
	var newInByte, oldInByte []byte
	var err error

	if action == OutboxActionCreate || action == OutboxActionUpdate {
		newInByte, err = json.Marshal(newObj)
		if err != nil {
			return err
		}
	}
	if action == OutboxActionUpdate || action == OutboxActionDelete {
		oldInByte, err = json.Marshal(oldObj)
		if err != nil {
			return err
		}
	}

	record := OutboxRecord{
		TenantId:      tenantId,
		OccurredAt:    time.Now(),
		ReferenceId:   refId,
		ReferenceType: refType,
		Action:        action,
		OldObj:        oldInByte,
		NewObj:        newInByte,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
