package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var invoiceSeqMutex sync.Mutex

type Invoice struct {
	ID         int             `gorm:"primary_key" json:"id"`
	TenantId   string          `gorm:"index;size:36;not null" json:"tenant_id"`
	CustomerId int             `gorm:"index;not null" json:"customer_id"`
	Customer   *Customer       `json:"customer,omitempty"`
	BudgetId   int             `gorm:"index;default:0" json:"budget_id"`
	Code       string          `gorm:"size:20;not null" json:"code"`
	SequenceNo int64           `gorm:"not null;default:0" json:"sequence_no"`
	Status     InvoiceStatus   `gorm:"type:varchar(10);not null;default:'Draft'" json:"status"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	DueDate    *time.Time      `json:"due_date"`
	PaidAt     *time.Time      `json:"paid_at"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i Invoice) GetTenantId() string    { return i.TenantId }
func (i *Invoice) SetTenantId(id string) { i.TenantId = id }

// NextInvoiceSequence hands out the next per-tenant invoice sequence number.
// A redis lock serializes concurrent issuers across instances; with redis
// down it degrades to a process-local mutex plus a MAX() read, which is
// race-prone across instances but keeps invoicing alive.
func NextInvoiceSequence(ctx context.Context, tenantId string) (int64, error) {
	invoiceSeqMutex.Lock()
	defer invoiceSeqMutex.Unlock()

	lockKey := tenantId + "-invoice_seq_lock"
	cacheKey := tenantId + "-invoice_seq"

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, lockKey, 10*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
		})
		if err == nil {
			defer lock.Release(ctx)
		}
	}

	var seqNo int64
	var err error
	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil || seqNo <= 1 {
			// fresh counter or no redis: seed from the table
			dbSeq, dbErr := maxInvoiceSequence(ctx, tenantId)
			if dbErr != nil {
				return 0, dbErr
			}
			seqNo = dbSeq + 1
			if err == nil {
				if err := config.SetRedisObject(cacheKey, &seqNo, 0); err != nil {
					return 0, err
				}
			}
		}
		if err := utils.ValidateUnique[Invoice](ctx, tenantId, "sequence_no", seqNo, 0); err == nil {
			break
		}
	}
	return seqNo, nil
}

func maxInvoiceSequence(ctx context.Context, tenantId string) (int64, error) {
	var dbSeq *int64
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Invoice{}).Select("max(sequence_no)").
		Where("tenant_id = ?", tenantId).
		Scan(&dbSeq).Error; err != nil {
		return 0, err
	}
	if dbSeq == nil {
		return 0, nil
	}
	return *dbSeq, nil
}

// invoice codes look like INV-2026-000042
func formatInvoiceCode(seqNo int64, issuedAt time.Time) string {
	return fmt.Sprintf("INV-%d-%06d", issuedAt.Year(), seqNo)
}

type NewInvoice struct {
	CustomerId int             `json:"customer_id" binding:"required"`
	BudgetId   int             `json:"budget_id"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	DueDate    *time.Time      `json:"due_date"`
}

func (input *NewInvoice) validate(ctx context.Context, tenantId string) error {
	if err := utils.ValidateResourceId[Customer](ctx, tenantId, input.CustomerId); err != nil {
		return errors.New("customer not found")
	}
	if input.BudgetId > 0 {
		if err := utils.ValidateResourceId[Budget](ctx, tenantId, input.BudgetId); err != nil {
			return errors.New("budget not found")
		}
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be positive")
	}
	return nil
}

func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := input.validate(ctx, tenantId); err != nil {
		return nil, err
	}

	seqNo, err := NextInvoiceSequence(ctx, tenantId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	invoice := Invoice{
		TenantId:   tenantId,
		CustomerId: input.CustomerId,
		BudgetId:   input.BudgetId,
		Code:       formatInvoiceCode(seqNo, now),
		SequenceNo: seqNo,
		Status:     InvoiceStatusDraft,
		Amount:     input.Amount,
		DueDate:    input.DueDate,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		return WriteOutbox(ctx, tx, tenantId, invoice.ID, EntityReferenceTypeInvoice, &invoice, nil, OutboxActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// InvoiceFromBudget issues an invoice for an approved budget's full amount.
func InvoiceFromBudget(ctx context.Context, budgetId int, dueDate *time.Time) (*Invoice, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	db := config.GetDB()
	var budget Budget
	if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&budget, budgetId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if budget.Status != BudgetStatusApproved {
		return nil, errors.New("only approved budgets can be invoiced")
	}

	return CreateInvoice(ctx, &NewInvoice{
		CustomerId: budget.CustomerId,
		BudgetId:   budget.ID,
		Amount:     budget.Amount,
		DueDate:    dueDate,
	})
}

func MarkInvoicePaid(ctx context.Context, id int) (*Invoice, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	db := config.GetDB()
	var invoice Invoice
	if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&invoice, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if invoice.Status == InvoiceStatusPaid || invoice.Status == InvoiceStatusVoid {
		return nil, errors.New("invoice is " + strings.ToLower(string(invoice.Status)))
	}

	old := invoice
	now := time.Now()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&invoice).Updates(map[string]any{
			"status":  InvoiceStatusPaid,
			"paid_at": &now,
		}).Error; err != nil {
			return err
		}
		return WriteOutbox(ctx, tx, tenantId, invoice.ID, EntityReferenceTypeInvoice, &invoice, &old, OutboxActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// MarkOverdueInvoices flips confirmed invoices past their due date. Runs
// unscoped from the background worker.
func MarkOverdueInvoices(ctx context.Context) (int64, error) {
	db := config.GetDB()
	tx := db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
		Model(&Invoice{}).
		Where("status = ?", InvoiceStatusConfirmed).
		Where("due_date IS NOT NULL AND due_date < ?", time.Now()).
		Update("status", InvoiceStatusOverdue)
	return tx.RowsAffected, tx.Error
}
