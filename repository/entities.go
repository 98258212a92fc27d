package repository

import (
	"context"
	"time"

	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/shopspring/decimal"
)

// Concrete repositories pair the generic surface with per-entity allow-lists
// and the handful of queries the generic criteria cannot express.

type BudgetRepository struct {
	*Repository[models.Budget]
}

func NewBudgetRepository(scope ScopeStrategy) *BudgetRepository {
	return &BudgetRepository{NewRepository[models.Budget](scope, Options{
		Filterable: []string{"id", "customer_id", "status", "code", "amount", "valid_until", "created_at"},
		Sortable:   []string{"id", "amount", "status", "valid_until", "created_at"},
	})}
}

func (r *BudgetRepository) Stats(ctx context.Context, criteria Criteria) *Stats {
	return r.Repository.Stats(ctx, criteria, StatsOptions{
		StatusField:    "status",
		ActiveStatuses: models.BudgetActiveStatuses,
		ValueField:     "amount",
		DateField:      "created_at",
	})
}

// ExpiringBetween lists still-open budgets whose validity ends in the window.
func (r *BudgetRepository) ExpiringBetween(ctx context.Context, from time.Time, to time.Time) []*models.Budget {
	return r.FindBy(ctx, Criteria{
		"status":      []string{string(models.BudgetStatusPending), string(models.BudgetStatusApproved)},
		"valid_until": Condition{Op: OpBetween, Value: []time.Time{from, to}},
	}, map[string]string{"valid_until": "asc"}, 0, 0)
}

type CustomerTotal struct {
	CustomerId int             `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
}

// TotalsByCustomer returns the topN customers by approved budget volume.
func (r *BudgetRepository) TotalsByCustomer(ctx context.Context, topN int) []CustomerTotal {
	var rows []CustomerTotal
	dbCtx := r.session(ctx).
		Where("status = ?", models.BudgetStatusApproved).
		Select("customer_id, COALESCE(SUM(amount), 0) AS total").
		Group("customer_id").
		Order("total DESC")
	if topN > 0 {
		dbCtx = dbCtx.Limit(topN)
	}
	if err := dbCtx.Scan(&rows).Error; err != nil {
		r.logError("TotalsByCustomer", err, topN)
		return nil
	}
	return rows
}

type CustomerRepository struct {
	*Repository[models.Customer]
}

func NewCustomerRepository(scope ScopeStrategy) *CustomerRepository {
	return &CustomerRepository{NewRepository[models.Customer](scope, Options{
		Filterable: []string{"id", "name", "email", "phone", "document", "is_active", "created_at"},
		Sortable:   []string{"id", "name", "created_at"},
	})}
}

// SearchByName is a prefix search; free-text LIKE is kept out of the generic
// criteria engine on purpose.
func (r *CustomerRepository) SearchByName(ctx context.Context, name string, limit int) []*models.Customer {
	var results []*models.Customer
	dbCtx := r.session(ctx).Where("name LIKE ?", name+"%").Order("name asc")
	if limit > 0 {
		dbCtx = dbCtx.Limit(limit)
	}
	if err := dbCtx.Find(&results).Error; err != nil {
		r.logError("SearchByName", err, name)
		return []*models.Customer{}
	}
	return results
}

type ServiceRepository struct {
	*Repository[models.Service]
}

func NewServiceRepository(scope ScopeStrategy) *ServiceRepository {
	return &ServiceRepository{NewRepository[models.Service](scope, Options{
		Filterable: []string{"id", "name", "status", "price", "created_at"},
		Sortable:   []string{"id", "name", "price", "created_at"},
	})}
}

func (r *ServiceRepository) ActiveServices(ctx context.Context) []*models.Service {
	return r.FindBy(ctx, Criteria{"status": string(models.ServiceStatusActive)},
		map[string]string{"name": "asc"}, 0, 0)
}

type InvoiceRepository struct {
	*Repository[models.Invoice]
}

func NewInvoiceRepository(scope ScopeStrategy) *InvoiceRepository {
	return &InvoiceRepository{NewRepository[models.Invoice](scope, Options{
		Filterable: []string{"id", "customer_id", "budget_id", "code", "status", "amount", "due_date", "created_at"},
		Sortable:   []string{"id", "code", "amount", "due_date", "created_at"},
	})}
}

func (r *InvoiceRepository) Stats(ctx context.Context, criteria Criteria) *Stats {
	return r.Repository.Stats(ctx, criteria, StatsOptions{
		StatusField:    "status",
		ActiveStatuses: models.InvoiceActiveStatuses,
		ValueField:     "amount",
		DateField:      "created_at",
	})
}

// Overdue lists unpaid invoices past due, oldest first.
func (r *InvoiceRepository) Overdue(ctx context.Context) []*models.Invoice {
	return r.FindBy(ctx, Criteria{
		"status":   []string{string(models.InvoiceStatusConfirmed), string(models.InvoiceStatusOverdue)},
		"due_date": Condition{Op: OpLt, Value: time.Now()},
	}, map[string]string{"due_date": "asc"}, 0, 0)
}

type SubscriptionRepository struct {
	*Repository[models.Subscription]
}

func NewSubscriptionRepository(scope ScopeStrategy) *SubscriptionRepository {
	return &SubscriptionRepository{NewRepository[models.Subscription](scope, Options{
		Filterable: []string{"id", "customer_id", "service_id", "status", "next_billing_at", "created_at"},
		Sortable:   []string{"id", "next_billing_at", "created_at"},
	})}
}

func (r *SubscriptionRepository) Stats(ctx context.Context, criteria Criteria) *Stats {
	return r.Repository.Stats(ctx, criteria, StatsOptions{
		StatusField:    "status",
		ActiveStatuses: models.SubscriptionActiveStatuses,
		ValueField:     "amount",
	})
}

// DueForBilling lists live subscriptions whose billing date has passed.
func (r *SubscriptionRepository) DueForBilling(ctx context.Context, asOf time.Time) []*models.Subscription {
	return r.FindBy(ctx, Criteria{
		"status":          models.SubscriptionActiveStatuses,
		"next_billing_at": Condition{Op: OpLte, Value: asOf},
	}, map[string]string{"next_billing_at": "asc"}, 0, 0)
}

type SystemSettingRepository struct {
	*Repository[models.SystemSetting]
}

func NewSystemSettingRepository(scope ScopeStrategy) *SystemSettingRepository {
	return &SystemSettingRepository{NewRepository[models.SystemSetting](scope, Options{
		Filterable: []string{"id", "key"},
		Sortable:   []string{"id", "key"},
	})}
}

// TenantRepository is always globally scoped: tenant rows have no tenant_id
// column and are operator-facing.
type TenantRepository struct {
	*Repository[models.Tenant]
}

func NewTenantRepository() *TenantRepository {
	return &TenantRepository{NewRepository[models.Tenant](NewGlobalScope(), Options{
		Filterable: []string{"name", "email", "is_active", "created_at"},
		Sortable:   []string{"name", "created_at"},
	})}
}

// FindById covers the tenant table's uuid primary key, which the generic
// integer-id Find cannot address.
func (r *TenantRepository) FindById(ctx context.Context, id string) *models.Tenant {
	var tenant models.Tenant
	if err := r.session(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil
	}
	return &tenant
}
