package models_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	config.SetDB(db)
	models.MigrateTable()
	return db
}

func tenantContext(t *testing.T, tenantId string) context.Context {
	t.Helper()
	ctx := utils.SetTenantIdInContext(context.Background(), tenantId)
	return utils.SetUserIdInContext(ctx, 1)
}

func seedCustomer(t *testing.T, ctx context.Context, name string) *models.Customer {
	t.Helper()
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: name})
	if err != nil {
		t.Fatalf("seed customer %q: %v", name, err)
	}
	return customer
}

func seedService(t *testing.T, ctx context.Context, name string, price int64) *models.Service {
	t.Helper()
	service, err := models.CreateService(ctx, &models.NewService{
		Name:  name,
		Price: decimal.NewFromInt(price),
	})
	if err != nil {
		t.Fatalf("seed service %q: %v", name, err)
	}
	return service
}
