package models_test

import (
	"testing"

	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/shopspring/decimal"
)

func TestCreateBudgetComputesAmountFromItems(t *testing.T) {
	setupTestDB(t)
	ctx := tenantContext(t, "tenant-1")
	customer := seedCustomer(t, ctx, "Acme")
	service := seedService(t, ctx, "Consulting", 150)

	budget, err := models.CreateBudget(ctx, &models.NewBudget{
		CustomerId: customer.ID,
		Title:      "Q1 engagement",
		Items: []*models.NewBudgetItem{
			{ServiceId: service.ID, Quantity: decimal.NewFromInt(2)},                                   // price from service
			{ServiceId: service.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)}, // explicit price
		},
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	if budget.Status != models.BudgetStatusDraft {
		t.Fatalf("Status = %s; want DRAFT", budget.Status)
	}
	if !budget.Amount.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("Amount = %s; want 350", budget.Amount)
	}
	if len(budget.Items) != 2 || budget.Items[0].Name != "Consulting" {
		t.Fatalf("items not snapshotted: %+v", budget.Items)
	}
	if budget.TenantId != "tenant-1" {
		t.Fatalf("TenantId = %q", budget.TenantId)
	}
}

func TestCreateBudgetWritesOutboxRecord(t *testing.T) {
	db := setupTestDB(t)
	ctx := tenantContext(t, "tenant-1")
	customer := seedCustomer(t, ctx, "Acme")
	service := seedService(t, ctx, "Consulting", 100)

	budget, err := models.CreateBudget(ctx, &models.NewBudget{
		CustomerId: customer.ID,
		Title:      "with outbox",
		Items:      []*models.NewBudgetItem{{ServiceId: service.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	var record models.OutboxRecord
	err = db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", models.EntityReferenceTypeBudget, budget.ID).
		First(&record).Error
	if err != nil {
		t.Fatalf("outbox record not written: %v", err)
	}
	if record.PublishStatus != models.OutboxPublishStatusPending {
		t.Fatalf("PublishStatus = %s; want Pending", record.PublishStatus)
	}
	if record.Action != models.OutboxActionCreate || record.TenantId != "tenant-1" {
		t.Fatalf("outbox record wrong: %+v", record)
	}
	if len(record.NewObj) == 0 {
		t.Fatal("outbox record has no snapshot")
	}
}

func TestCreateBudgetRejectsCrossTenantReferences(t *testing.T) {
	setupTestDB(t)
	ctxT1 := tenantContext(t, "tenant-1")
	ctxT2 := tenantContext(t, "tenant-2")

	customer := seedCustomer(t, ctxT1, "Acme")
	foreignService := seedService(t, ctxT2, "Other", 100)

	_, err := models.CreateBudget(ctxT1, &models.NewBudget{
		CustomerId: customer.ID,
		Title:      "leaky",
		Items:      []*models.NewBudgetItem{{ServiceId: foreignService.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err == nil {
		t.Fatal("budget referencing another tenant's service was accepted")
	}
}

func TestUpdateBudgetStatusEnforcesTransitions(t *testing.T) {
	setupTestDB(t)
	ctx := tenantContext(t, "tenant-1")
	customer := seedCustomer(t, ctx, "Acme")
	service := seedService(t, ctx, "Consulting", 100)

	budget, err := models.CreateBudget(ctx, &models.NewBudget{
		CustomerId: customer.ID,
		Title:      "lifecycle",
		Items:      []*models.NewBudgetItem{{ServiceId: service.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	// draft cannot be approved directly
	if _, err := models.UpdateBudgetStatus(ctx, budget.ID, models.BudgetStatusApproved); err == nil {
		t.Fatal("DRAFT -> APPROVED was allowed")
	}

	if _, err := models.UpdateBudgetStatus(ctx, budget.ID, models.BudgetStatusPending); err != nil {
		t.Fatalf("DRAFT -> PENDING: %v", err)
	}
	approved, err := models.UpdateBudgetStatus(ctx, budget.ID, models.BudgetStatusApproved)
	if err != nil {
		t.Fatalf("PENDING -> APPROVED: %v", err)
	}
	if approved.ApprovedAt == nil {
		t.Fatal("approval timestamp not stamped")
	}
}

func TestInvoiceFromApprovedBudget(t *testing.T) {
	setupTestDB(t)
	ctx := tenantContext(t, "tenant-1")
	customer := seedCustomer(t, ctx, "Acme")
	service := seedService(t, ctx, "Consulting", 200)

	budget, err := models.CreateBudget(ctx, &models.NewBudget{
		CustomerId: customer.ID,
		Title:      "to invoice",
		Items:      []*models.NewBudgetItem{{ServiceId: service.ID, Quantity: decimal.NewFromInt(3)}},
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	// draft budgets are not invoiceable
	if _, err := models.InvoiceFromBudget(ctx, budget.ID, nil); err == nil {
		t.Fatal("draft budget was invoiced")
	}

	if _, err := models.UpdateBudgetStatus(ctx, budget.ID, models.BudgetStatusPending); err != nil {
		t.Fatal(err)
	}
	if _, err := models.UpdateBudgetStatus(ctx, budget.ID, models.BudgetStatusApproved); err != nil {
		t.Fatal(err)
	}

	invoice, err := models.InvoiceFromBudget(ctx, budget.ID, nil)
	if err != nil {
		t.Fatalf("InvoiceFromBudget: %v", err)
	}
	if !invoice.Amount.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("Amount = %s; want 600", invoice.Amount)
	}
	if invoice.BudgetId != budget.ID || invoice.CustomerId != customer.ID {
		t.Fatalf("invoice references wrong: %+v", invoice)
	}
}

func TestInvoiceSequencePerTenant(t *testing.T) {
	setupTestDB(t)
	ctxT1 := tenantContext(t, "tenant-1")
	ctxT2 := tenantContext(t, "tenant-2")

	c1 := seedCustomer(t, ctxT1, "Acme")
	c2 := seedCustomer(t, ctxT2, "Globex")

	first, err := models.CreateInvoice(ctxT1, &models.NewInvoice{CustomerId: c1.ID, Amount: decimal.NewFromInt(10)})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	second, err := models.CreateInvoice(ctxT1, &models.NewInvoice{CustomerId: c1.ID, Amount: decimal.NewFromInt(20)})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	other, err := models.CreateInvoice(ctxT2, &models.NewInvoice{CustomerId: c2.ID, Amount: decimal.NewFromInt(30)})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	if first.SequenceNo != 1 || second.SequenceNo != 2 {
		t.Fatalf("tenant-1 sequence = %d, %d; want 1, 2", first.SequenceNo, second.SequenceNo)
	}
	// each tenant numbers independently
	if other.SequenceNo != 1 {
		t.Fatalf("tenant-2 sequence = %d; want 1", other.SequenceNo)
	}
	if first.Code == "" || first.Code == second.Code {
		t.Fatalf("codes not unique: %q vs %q", first.Code, second.Code)
	}
}

func TestMarkInvoicePaidIsTerminal(t *testing.T) {
	setupTestDB(t)
	ctx := tenantContext(t, "tenant-1")
	customer := seedCustomer(t, ctx, "Acme")

	invoice, err := models.CreateInvoice(ctx, &models.NewInvoice{CustomerId: customer.ID, Amount: decimal.NewFromInt(10)})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	paid, err := models.MarkInvoicePaid(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("MarkInvoicePaid: %v", err)
	}
	if paid.Status != models.InvoiceStatusPaid || paid.PaidAt == nil {
		t.Fatalf("not marked paid: %+v", paid)
	}

	if _, err := models.MarkInvoicePaid(ctx, invoice.ID); err == nil {
		t.Fatal("paying twice was allowed")
	}
}

func TestAuditTrailOnCustomerWrites(t *testing.T) {
	db := setupTestDB(t)
	ctx := tenantContext(t, "tenant-1")
	customer := seedCustomer(t, ctx, "Acme")

	var count int64
	err := db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("reference_type = ? AND reference_id = ? AND action = ?",
			models.EntityReferenceTypeCustomer, customer.ID, models.AuditActionCreate).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("audit rows = %d; want 1", count)
	}
}
