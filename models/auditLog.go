package models

import (
	"encoding/json"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"gorm.io/gorm"
)

// AuditLog records who changed what. Written from gorm hooks on the audited
// models; the hook runs on the statement's transaction so a rolled-back
// change leaves no audit row.
type AuditLog struct {
	ID            int         `gorm:"primary_key" json:"id"`
	TenantId      string      `gorm:"index;size:36" json:"tenant_id"`
	UserId        int         `json:"user_id"`
	ActorName     string      `gorm:"size:100" json:"actor_name"`
	Action        AuditAction `gorm:"size:10;not null" json:"action"`
	ReferenceType string      `gorm:"size:30;not null;index:idx_audit_ref" json:"reference_type"`
	ReferenceId   int         `gorm:"not null;index:idx_audit_ref" json:"reference_id"`
	Snapshot      []byte      `gorm:"type:mediumblob" json:"snapshot"`
	CorrelationId string      `gorm:"size:36" json:"correlation_id"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func (a AuditLog) GetTenantId() string    { return a.TenantId }
func (a *AuditLog) SetTenantId(id string) { a.TenantId = id }

// auditable marks models whose writes are recorded.
type auditable interface {
	auditReference() (string, int)
}

func (b Budget) auditReference() (string, int)       { return string(EntityReferenceTypeBudget), b.ID }
func (c Customer) auditReference() (string, int)     { return string(EntityReferenceTypeCustomer), c.ID }
func (i Invoice) auditReference() (string, int)      { return string(EntityReferenceTypeInvoice), i.ID }
func (s Service) auditReference() (string, int)      { return string(EntityReferenceTypeService), s.ID }
func (s Subscription) auditReference() (string, int) { return string(EntityReferenceTypeSubscription), s.ID }

func writeAudit(tx *gorm.DB, entity auditable, action AuditAction) {
	refType, refId := entity.auditReference()
	// batch statements run the hook on an empty model; no row identity, no audit
	if refId == 0 {
		return
	}

	snapshot, err := json.Marshal(entity)
	if err != nil {
		config.LogError(config.GetLogger(), "models", "writeAudit", refType, refId, err)
		return
	}

	ctx := tx.Statement.Context
	tenantId := ""
	if owned, ok := entity.(interface{ GetTenantId() string }); ok {
		tenantId = owned.GetTenantId()
	}
	userId, _ := utils.GetUserIdFromContext(ctx)
	actorName, _ := utils.GetUserNameFromContext(ctx)
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	record := AuditLog{
		TenantId:      tenantId,
		UserId:        userId,
		ActorName:     actorName,
		Action:        action,
		ReferenceType: refType,
		ReferenceId:   refId,
		Snapshot:      snapshot,
		CorrelationId: correlationId,
	}
	if err := tx.Create(&record).Error; err != nil {
		config.LogError(config.GetLogger(), "models", "writeAudit", refType, refId, err)
	}
}
