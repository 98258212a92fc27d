package models

import (
	"context"
	"errors"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/shopspring/decimal"
)

// Subscription is a recurring service agreement billed per cycle.
type Subscription struct {
	ID            int                `gorm:"primary_key" json:"id"`
	TenantId      string             `gorm:"index;size:36;not null" json:"tenant_id"`
	CustomerId    int                `gorm:"index;not null" json:"customer_id" binding:"required"`
	ServiceId     int                `gorm:"not null" json:"service_id" binding:"required"`
	Status        SubscriptionStatus `gorm:"type:varchar(10);not null;default:'Trial'" json:"status"`
	Amount        decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"amount"`
	CycleDays     int                `gorm:"not null;default:30" json:"cycle_days"`
	StartedAt     time.Time          `gorm:"not null" json:"started_at"`
	NextBillingAt *time.Time         `gorm:"index" json:"next_billing_at"`
	CancelledAt   *time.Time         `json:"cancelled_at"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s Subscription) GetTenantId() string    { return s.TenantId }
func (s *Subscription) SetTenantId(id string) { s.TenantId = id }

type NewSubscription struct {
	CustomerId int             `json:"customer_id" binding:"required"`
	ServiceId  int             `json:"service_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	CycleDays  int             `json:"cycle_days"`
	TrialDays  int             `json:"trial_days"`
}

func CreateSubscription(ctx context.Context, input *NewSubscription) (*Subscription, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := utils.ValidateResourceId[Customer](ctx, tenantId, input.CustomerId); err != nil {
		return nil, errors.New("customer not found")
	}
	service, err := getServiceById(ctx, tenantId, input.ServiceId)
	if err != nil {
		return nil, err
	}

	amount := input.Amount
	if amount.IsZero() {
		amount = service.Price
	}
	cycleDays := input.CycleDays
	if cycleDays <= 0 {
		cycleDays = 30
	}

	now := time.Now()
	status := SubscriptionStatusActive
	next := now.AddDate(0, 0, cycleDays)
	if input.TrialDays > 0 {
		status = SubscriptionStatusTrial
		next = now.AddDate(0, 0, input.TrialDays)
	}

	subscription := Subscription{
		TenantId:      tenantId,
		CustomerId:    input.CustomerId,
		ServiceId:     input.ServiceId,
		Status:        status,
		Amount:        amount,
		CycleDays:     cycleDays,
		StartedAt:     now,
		NextBillingAt: &next,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&subscription).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

// RenewSubscription rolls a due subscription into its next cycle: a renewal
// invoice for the cycle amount, trial promoted to active, billing date pushed
// one cycle forward. Zero-amount cycles advance without an invoice.
func RenewSubscription(ctx context.Context, id int) (*Invoice, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	db := config.GetDB()
	var subscription Subscription
	if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&subscription, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	switch subscription.Status {
	case SubscriptionStatusTrial, SubscriptionStatusActive, SubscriptionStatusPastDue:
	default:
		return nil, errors.New("subscription is not billable")
	}
	if subscription.NextBillingAt == nil || subscription.NextBillingAt.After(time.Now()) {
		return nil, errors.New("subscription is not due")
	}

	var invoice *Invoice
	if subscription.Amount.IsPositive() {
		due := time.Now().AddDate(0, 0, 7)
		created, err := CreateInvoice(ctx, &NewInvoice{
			CustomerId: subscription.CustomerId,
			Amount:     subscription.Amount,
			DueDate:    &due,
		})
		if err != nil {
			return nil, err
		}
		invoice = created
	}

	next := subscription.NextBillingAt.AddDate(0, 0, subscription.CycleDays)
	if err := db.WithContext(ctx).Model(&subscription).Updates(map[string]any{
		"status":          SubscriptionStatusActive,
		"next_billing_at": &next,
	}).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func CancelSubscription(ctx context.Context, id int) (*Subscription, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	db := config.GetDB()
	var subscription Subscription
	if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&subscription, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if subscription.Status == SubscriptionStatusCancelled {
		return nil, errors.New("subscription already cancelled")
	}

	now := time.Now()
	if err := db.WithContext(ctx).Model(&subscription).Updates(map[string]any{
		"status":          SubscriptionStatusCancelled,
		"cancelled_at":    &now,
		"next_billing_at": nil,
	}).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}
