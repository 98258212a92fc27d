package repository_test

import (
	"testing"

	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/easybudgetapp/easybudget_backend/repository"
	"github.com/shopspring/decimal"
)

func TestStatsAggregatesOnlyOwnTenant(t *testing.T) {
	setupTestDB(t)
	repo := repository.NewBudgetRepository(newTenantScope())

	ctxT1 := tenantContext("tenant-1")
	seedBudget(t, ctxT1, repo, "a", 100, models.BudgetStatusApproved)
	seedBudget(t, ctxT1, repo, "b", 200, models.BudgetStatusDraft)
	seedBudget(t, ctxT1, repo, "c", 300, models.BudgetStatusCancelled)
	seedBudget(t, tenantContext("tenant-2"), repo, "other", 500, models.BudgetStatusApproved)

	stats := repo.Stats(ctxT1, nil)

	if stats.Total != 3 {
		t.Fatalf("Total = %d; want 3", stats.Total)
	}
	if !stats.Sum.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("Sum = %s; want 600 (tenant-2's 500 must not leak)", stats.Sum)
	}
	if !stats.Average.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("Average = %s; want 200", stats.Average)
	}
	if stats.Active != 2 || stats.Inactive != 1 {
		t.Fatalf("Active/Inactive = %d/%d; want 2/1", stats.Active, stats.Inactive)
	}
}

func TestStatsByStatusBreakdown(t *testing.T) {
	setupTestDB(t)
	repo := repository.NewBudgetRepository(newTenantScope())

	ctx := tenantContext("tenant-1")
	seedBudget(t, ctx, repo, "a", 100, models.BudgetStatusApproved)
	seedBudget(t, ctx, repo, "b", 200, models.BudgetStatusApproved)
	seedBudget(t, ctx, repo, "c", 300, models.BudgetStatusDraft)

	stats := repo.Stats(ctx, nil)

	if got := stats.ByStatus[string(models.BudgetStatusApproved)]; got != 2 {
		t.Fatalf("ByStatus[APPROVED] = %d; want 2", got)
	}
	if got := stats.ByStatus[string(models.BudgetStatusDraft)]; got != 1 {
		t.Fatalf("ByStatus[DRAFT] = %d; want 1", got)
	}
	if _, ok := stats.ByStatus[string(models.BudgetStatusCancelled)]; ok {
		t.Fatal("ByStatus contains a status with no rows")
	}
}

func TestStatsRespectsCriteria(t *testing.T) {
	setupTestDB(t)
	repo := repository.NewBudgetRepository(newTenantScope())

	ctx := tenantContext("tenant-1")
	seedBudget(t, ctx, repo, "a", 100, models.BudgetStatusApproved)
	seedBudget(t, ctx, repo, "b", 400, models.BudgetStatusApproved)
	seedBudget(t, ctx, repo, "c", 300, models.BudgetStatusDraft)

	stats := repo.Stats(ctx, repository.Criteria{"status": string(models.BudgetStatusApproved)})

	if stats.Total != 2 {
		t.Fatalf("Total = %d; want 2", stats.Total)
	}
	if !stats.Sum.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("Sum = %s; want 500", stats.Sum)
	}
}

func TestStatsEmptySetYieldsZeroes(t *testing.T) {
	setupTestDB(t)
	repo := repository.NewBudgetRepository(newTenantScope())

	stats := repo.Stats(tenantContext("tenant-1"), nil)

	if stats.Total != 0 || stats.Active != 0 || stats.Inactive != 0 {
		t.Fatalf("counts not zero: %+v", stats)
	}
	if !stats.Sum.IsZero() || !stats.Average.IsZero() {
		t.Fatalf("Sum/Average not zero: %s/%s", stats.Sum, stats.Average)
	}
	if len(stats.ByStatus) != 0 {
		t.Fatalf("ByStatus not empty: %+v", stats.ByStatus)
	}
}

func TestStatsByMonthBuckets(t *testing.T) {
	setupTestDB(t)
	repo := repository.NewBudgetRepository(newTenantScope())

	ctx := tenantContext("tenant-1")
	seedBudget(t, ctx, repo, "a", 100, models.BudgetStatusDraft)
	seedBudget(t, ctx, repo, "b", 200, models.BudgetStatusDraft)

	stats := repo.Stats(ctx, nil)

	var total int64
	for _, count := range stats.ByMonth {
		total += count
	}
	if total != 2 {
		t.Fatalf("ByMonth counts sum to %d; want 2 (%+v)", total, stats.ByMonth)
	}
	if len(stats.ByMonth) != 1 {
		t.Fatalf("rows created together landed in %d buckets", len(stats.ByMonth))
	}
}
