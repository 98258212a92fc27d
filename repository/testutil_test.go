package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/easybudgetapp/easybudget_backend/repository"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a per-test in-memory database with the tenant guard
// plugin installed, mirroring the production gorm setup.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Use(config.NewTenantGuardPlugin()); err != nil {
		t.Fatalf("install tenant guard: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// shared-cache in-memory dbs vanish when the last connection closes
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	config.SetDB(db)
	models.MigrateTable()
	return db
}

func tenantContext(tenantId string) context.Context {
	return utils.SetTenantIdInContext(context.Background(), tenantId)
}

func newTenantScope() *repository.TenantScoped {
	return repository.NewTenantScope(repository.NewTenantResolver(nil))
}

func seedBudget(t *testing.T, ctx context.Context, repo *repository.BudgetRepository, title string, amount int64, status models.BudgetStatus) *models.Budget {
	t.Helper()
	budget := &models.Budget{
		CustomerId: 1,
		Title:      title,
		Status:     status,
		Amount:     decimal.NewFromInt(amount),
	}
	created := repo.Create(ctx, budget)
	if created == nil {
		t.Fatalf("seed budget %q failed", title)
	}
	return created
}
