package repository_test

import (
	"fmt"
	"testing"

	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/easybudgetapp/easybudget_backend/repository"
)

func seedPaginationBudgets(t *testing.T, n int) *repository.BudgetRepository {
	t.Helper()
	setupTestDB(t)
	repo := repository.NewBudgetRepository(newTenantScope())
	ctx := tenantContext("tenant-1")
	for i := 1; i <= n; i++ {
		seedBudget(t, ctx, repo, fmt.Sprintf("budget-%02d", i), int64(i*100), models.BudgetStatusDraft)
	}
	return repo
}

func TestPaginateEnvelopeMath(t *testing.T) {
	repo := seedPaginationBudgets(t, 7)
	ctx := tenantContext("tenant-1")

	env := repo.Paginate(ctx, nil, map[string]string{"id": "asc"}, 2, 3)

	if env.Total != 7 {
		t.Fatalf("Total = %d; want 7", env.Total)
	}
	if env.CurrentPage != 2 || env.PerPage != 3 || env.LastPage != 3 {
		t.Fatalf("page math wrong: %+v", env)
	}
	if len(env.Data) != 3 {
		t.Fatalf("Data has %d rows; want 3", len(env.Data))
	}
	if env.From == nil || env.To == nil || *env.From != 4 || *env.To != 6 {
		t.Fatalf("From/To wrong: %v/%v", env.From, env.To)
	}
	if env.Data[0].Title != "budget-04" {
		t.Fatalf("page 2 starts at %q; want budget-04", env.Data[0].Title)
	}
}

func TestPaginateBeyondLastPage(t *testing.T) {
	repo := seedPaginationBudgets(t, 3)
	ctx := tenantContext("tenant-1")

	env := repo.Paginate(ctx, nil, nil, 99, 10)

	if env.Total != 3 || len(env.Data) != 0 {
		t.Fatalf("beyond-last-page: total=%d rows=%d", env.Total, len(env.Data))
	}
	if env.From != nil || env.To != nil {
		t.Fatal("From/To must be nil on an empty page")
	}
	if env.LastPage != 1 {
		t.Fatalf("LastPage = %d; want 1", env.LastPage)
	}
}

func TestPaginateEmptyResult(t *testing.T) {
	repo := seedPaginationBudgets(t, 0)
	ctx := tenantContext("tenant-1")

	env := repo.Paginate(ctx, nil, nil, 1, 10)

	if env.Total != 0 || env.LastPage != 1 {
		t.Fatalf("empty set: total=%d lastPage=%d; want 0/1", env.Total, env.LastPage)
	}
	if env.From != nil || env.To != nil {
		t.Fatal("From/To must be nil with no rows")
	}
}

func TestPaginateDefaultsAndClamp(t *testing.T) {
	t.Setenv("PAGINATION_MAX_PER_PAGE", "5")
	repo := seedPaginationBudgets(t, 20)
	ctx := tenantContext("tenant-1")

	// zero perPage falls back to the default, then the clamp applies
	env := repo.Paginate(ctx, nil, nil, 0, 0)
	if env.CurrentPage != 1 {
		t.Fatalf("CurrentPage = %d; want 1", env.CurrentPage)
	}
	if env.PerPage != 5 {
		t.Fatalf("PerPage = %d; want clamped to 5", env.PerPage)
	}

	// an oversized request is clamped the same way
	env = repo.Paginate(ctx, nil, nil, 1, 100)
	if env.PerPage != 5 || len(env.Data) != 5 {
		t.Fatalf("clamp failed: perPage=%d rows=%d", env.PerPage, len(env.Data))
	}
	if env.LastPage != 4 {
		t.Fatalf("LastPage = %d; want 4", env.LastPage)
	}
}
