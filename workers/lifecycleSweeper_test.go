package workers_test

import (
	"context"
	"testing"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/easybudgetapp/easybudget_backend/workers"
	"github.com/shopspring/decimal"
)

// A sweep over a due subscription issues the renewal invoice and pushes the
// billing date one cycle forward.
func TestSweepRenewsDueSubscriptions(t *testing.T) {
	t.Setenv("PUBSUB_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	db := setupTestDB(t)

	customer := models.Customer{TenantId: "tenant-1", Name: "Acme", IsActive: utils.NewTrue()}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	past := time.Now().AddDate(0, 0, -1)
	subscription := models.Subscription{
		TenantId:      "tenant-1",
		CustomerId:    customer.ID,
		ServiceId:     1,
		Status:        models.SubscriptionStatusTrial,
		Amount:        decimal.NewFromInt(50),
		CycleDays:     30,
		StartedAt:     past,
		NextBillingAt: &past,
	}
	if err := db.Create(&subscription).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	sweeper := workers.NewLifecycleSweeper(config.GetLogger())
	sweeper.SweepOnce(context.Background())

	var invoice models.Invoice
	if err := db.Where("customer_id = ?", customer.ID).First(&invoice).Error; err != nil {
		t.Fatalf("renewal invoice not issued: %v", err)
	}
	if !invoice.Amount.Equal(decimal.NewFromInt(50)) || invoice.TenantId != "tenant-1" {
		t.Fatalf("renewal invoice wrong: %+v", invoice)
	}

	var after models.Subscription
	if err := db.First(&after, subscription.ID).Error; err != nil {
		t.Fatalf("reload subscription: %v", err)
	}
	if after.Status != models.SubscriptionStatusActive {
		t.Fatalf("Status = %s; want Active after renewal", after.Status)
	}
	if after.NextBillingAt == nil || !after.NextBillingAt.After(time.Now()) {
		t.Fatalf("NextBillingAt = %v; want pushed into the future", after.NextBillingAt)
	}
}

// Subscriptions not yet due are left alone by the sweep.
func TestSweepSkipsSubscriptionsNotDue(t *testing.T) {
	db := setupTestDB(t)

	customer := models.Customer{TenantId: "tenant-1", Name: "Acme", IsActive: utils.NewTrue()}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	future := time.Now().AddDate(0, 0, 10)
	subscription := models.Subscription{
		TenantId:      "tenant-1",
		CustomerId:    customer.ID,
		ServiceId:     1,
		Status:        models.SubscriptionStatusActive,
		Amount:        decimal.NewFromInt(50),
		CycleDays:     30,
		StartedAt:     time.Now(),
		NextBillingAt: &future,
	}
	if err := db.Create(&subscription).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	sweeper := workers.NewLifecycleSweeper(config.GetLogger())
	sweeper.SweepOnce(context.Background())

	var count int64
	if err := db.Model(&models.Invoice{}).Count(&count).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if count != 0 {
		t.Fatalf("invoices issued = %d; want 0", count)
	}
}
