package models

import (
	"context"
	"errors"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Budget struct {
	ID          int             `gorm:"primary_key" json:"id"`
	TenantId    string          `gorm:"index;size:36;not null" json:"tenant_id"`
	CustomerId  int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	Customer    *Customer       `json:"customer,omitempty"`
	Code        string          `gorm:"size:20" json:"code"`
	Title       string          `gorm:"size:150;not null" json:"title" binding:"required"`
	Description string          `gorm:"type:text" json:"description"`
	Status      BudgetStatus    `gorm:"type:varchar(10);not null;default:'DRAFT'" json:"status"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Discount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	ValidUntil  *time.Time      `json:"valid_until"`
	ApprovedAt  *time.Time      `json:"approved_at"`
	Items       []*BudgetItem   `json:"items"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b Budget) GetTenantId() string    { return b.TenantId }
func (b *Budget) SetTenantId(id string) { b.TenantId = id }

type BudgetItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	BudgetId  int             `gorm:"index;not null" json:"budget_id"`
	ServiceId int             `gorm:"not null" json:"service_id" binding:"required"`
	Name      string          `gorm:"size:150;not null" json:"name"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,4);default:1" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Total     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
}

type NewBudgetItem struct {
	ServiceId int             `json:"service_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type NewBudget struct {
	CustomerId  int              `json:"customer_id" binding:"required"`
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Discount    decimal.Decimal  `json:"discount"`
	ValidUntil  *time.Time       `json:"valid_until"`
	Items       []*NewBudgetItem `json:"items" binding:"required,min=1"`
}

func (input *NewBudget) validate(ctx context.Context, tenantId string) error {
	if err := utils.ValidateResourceId[Customer](ctx, tenantId, input.CustomerId); err != nil {
		return errors.New("customer not found")
	}
	if len(input.Items) == 0 {
		return errors.New("budget requires at least one item")
	}
	serviceIds := make([]int, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return errors.New("item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return errors.New("item unit price cannot be negative")
		}
		serviceIds = append(serviceIds, item.ServiceId)
	}
	if err := utils.ValidateResourcesId[Service](ctx, tenantId, serviceIds); err != nil {
		return errors.New("service not found")
	}
	if input.Discount.IsNegative() {
		return errors.New("discount cannot be negative")
	}
	return nil
}

// CreateBudget writes the budget, its items and the outbox record in one
// transaction. The event reaches Pub/Sub only after commit, via the
// dispatcher.
func CreateBudget(ctx context.Context, input *NewBudget) (*Budget, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := input.validate(ctx, tenantId); err != nil {
		return nil, err
	}

	items := make([]*BudgetItem, 0, len(input.Items))
	amount := decimal.Zero
	for _, in := range input.Items {
		service, err := getServiceById(ctx, tenantId, in.ServiceId)
		if err != nil {
			return nil, err
		}
		unitPrice := in.UnitPrice
		if unitPrice.IsZero() {
			unitPrice = service.Price
		}
		total := unitPrice.Mul(in.Quantity)
		items = append(items, &BudgetItem{
			ServiceId: in.ServiceId,
			Name:      service.Name,
			Quantity:  in.Quantity,
			UnitPrice: unitPrice,
			Total:     total,
		})
		amount = amount.Add(total)
	}
	if input.Discount.GreaterThan(amount) {
		return nil, errors.New("discount exceeds budget amount")
	}

	budget := Budget{
		TenantId:    tenantId,
		CustomerId:  input.CustomerId,
		Title:       input.Title,
		Description: input.Description,
		Status:      BudgetStatusDraft,
		Amount:      amount.Sub(input.Discount),
		Discount:    input.Discount,
		ValidUntil:  input.ValidUntil,
		Items:       items,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&budget).Error; err != nil {
			return err
		}
		return WriteOutbox(ctx, tx, tenantId, budget.ID, EntityReferenceTypeBudget, &budget, nil, OutboxActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// UpdateBudgetStatus enforces the lifecycle transition table; the approval
// timestamp is stamped server-side.
func UpdateBudgetStatus(ctx context.Context, id int, next BudgetStatus) (*Budget, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if !next.IsValid() {
		return nil, errors.New("invalid budget status")
	}

	db := config.GetDB()
	var budget Budget
	if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&budget, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if !budget.Status.CanTransitionTo(next) {
		return nil, errors.New("cannot move budget from " + string(budget.Status) + " to " + string(next))
	}

	old := budget
	changes := map[string]any{"status": next}
	if next == BudgetStatusApproved {
		now := time.Now()
		changes["approved_at"] = &now
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&budget).Updates(changes).Error; err != nil {
			return err
		}
		return WriteOutbox(ctx, tx, tenantId, budget.ID, EntityReferenceTypeBudget, &budget, &old, OutboxActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// ExpireBudgets marks pending/approved budgets past their valid-until date.
// Runs unscoped from the background worker, one sweep across all tenants.
func ExpireBudgets(ctx context.Context) (int64, error) {
	db := config.GetDB()
	tx := db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
		Model(&Budget{}).
		Where("status IN ?", []BudgetStatus{BudgetStatusPending, BudgetStatusApproved}).
		Where("valid_until IS NOT NULL AND valid_until < ?", time.Now()).
		Update("status", BudgetStatusExpired)
	return tx.RowsAffected, tx.Error
}

func getServiceById(ctx context.Context, tenantId string, id int) (*Service, error) {
	var service Service
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&service, id).Error; err != nil {
		return nil, errors.New("service not found")
	}
	return &service, nil
}
