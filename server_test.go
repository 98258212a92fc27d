package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	return newRouter(config.GetLogger()), db
}

// doJSON drives a request through the full middleware chain; the tenant is
// supplied the way an API client without a token would, via X-Tenant-Id.
func doJSON(t *testing.T, r *gin.Engine, method string, path string, tenant string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tenant != "" {
		req.Header.Set("X-Tenant-Id", tenant)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestUpdateServiceEndpoint(t *testing.T) {
	r, _ := setupServerTest(t)

	w := doJSON(t, r, http.MethodPost, "/api/services", "tenant-1", `{"name":"Consulting","price":100}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create service: status %d body %s", w.Code, w.Body.String())
	}
	var created models.Service
	decodeBody(t, w, &created)

	path := fmt.Sprintf("/api/services/%d", created.ID)
	w = doJSON(t, r, http.MethodPut, path, "tenant-1", `{"name":"Advisory","price":120}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update service: status %d body %s", w.Code, w.Body.String())
	}
	var updated models.Service
	decodeBody(t, w, &updated)
	if updated.Name != "Advisory" || !updated.Price.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("service not updated: %+v", updated)
	}

	// another tenant cannot reach the row
	if w = doJSON(t, r, http.MethodPut, path, "tenant-2", `{"name":"Stolen","price":1}`); w.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant update: status %d; want 404", w.Code)
	}
}

func TestDeactivateServiceEndpoint(t *testing.T) {
	r, _ := setupServerTest(t)

	w := doJSON(t, r, http.MethodPost, "/api/services", "tenant-1", `{"name":"Hosting","price":30}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create service: status %d body %s", w.Code, w.Body.String())
	}
	var created models.Service
	decodeBody(t, w, &created)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/services/%d/deactivate", created.ID), "tenant-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate service: status %d body %s", w.Code, w.Body.String())
	}

	var after models.Service
	decodeBody(t, w, &after)
	if after.Status != models.ServiceStatusInactive {
		t.Fatalf("Status = %s; want Inactive", after.Status)
	}
}

func TestToggleCustomerEndpoint(t *testing.T) {
	r, _ := setupServerTest(t)

	w := doJSON(t, r, http.MethodPost, "/api/customers", "tenant-1", `{"name":"Acme"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create customer: status %d body %s", w.Code, w.Body.String())
	}
	var created models.Customer
	decodeBody(t, w, &created)

	path := fmt.Sprintf("/api/customers/%d/toggle", created.ID)
	w = doJSON(t, r, http.MethodPut, path, "tenant-1", `{"is_active":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle customer: status %d body %s", w.Code, w.Body.String())
	}
	var toggled models.Customer
	decodeBody(t, w, &toggled)
	if toggled.IsActive == nil || *toggled.IsActive {
		t.Fatalf("IsActive = %v; want false", toggled.IsActive)
	}

	if w = doJSON(t, r, http.MethodPut, path, "tenant-1", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("toggle without body: status %d; want 400", w.Code)
	}
	if w = doJSON(t, r, http.MethodPut, path, "tenant-2", `{"is_active":true}`); w.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant toggle: status %d; want 404", w.Code)
	}
}

func TestBudgetStatsPeriodFilter(t *testing.T) {
	r, db := setupServerTest(t)

	old := models.Budget{TenantId: "tenant-1", CustomerId: 1, Title: "old",
		Status: models.BudgetStatusDraft, Amount: decimal.NewFromInt(100),
		CreatedAt: time.Now().AddDate(0, -2, 0)}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("seed old budget: %v", err)
	}
	current := models.Budget{TenantId: "tenant-1", CustomerId: 1, Title: "current",
		Status: models.BudgetStatusDraft, Amount: decimal.NewFromInt(200)}
	if err := db.Create(&current).Error; err != nil {
		t.Fatalf("seed current budget: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/budgets/stats?period=this_month", "tenant-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status %d body %s", w.Code, w.Body.String())
	}
	var stats struct {
		Total int64 `json:"total"`
	}
	decodeBody(t, w, &stats)
	if stats.Total != 1 {
		t.Fatalf("Total = %d; want only this month's budget", stats.Total)
	}
}
