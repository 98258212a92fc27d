package workers_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/easybudgetapp/easybudget_backend/workers"
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

// With no broker configured a dispatch pass must record the failure and
// bump the attempt counter instead of losing or looping on the row.
func TestDispatchMarksFailedWithoutBroker(t *testing.T) {
	t.Setenv("PUBSUB_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	db := setupTestDB(t)

	record := models.OutboxRecord{
		TenantId:      "tenant-1",
		OccurredAt:    time.Now(),
		ReferenceId:   1,
		ReferenceType: models.EntityReferenceTypeBudget,
		Action:        models.OutboxActionCreate,
		PublishStatus: models.OutboxPublishStatusPending,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed outbox record: %v", err)
	}

	dispatcher := workers.NewOutboxDispatcher(config.GetLogger())
	dispatcher.DispatchOnce(context.Background())

	var after models.OutboxRecord
	if err := db.First(&after, record.ID).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if after.PublishStatus != models.OutboxPublishStatusFailed {
		t.Fatalf("PublishStatus = %s; want Failed", after.PublishStatus)
	}
	if after.AttemptCount != 1 {
		t.Fatalf("AttemptCount = %d; want 1", after.AttemptCount)
	}
	if after.LastError == "" {
		t.Fatal("LastError not recorded")
	}
}

// Records at the attempt ceiling are left alone.
func TestDispatchSkipsExhaustedRecords(t *testing.T) {
	t.Setenv("PUBSUB_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	db := setupTestDB(t)

	record := models.OutboxRecord{
		TenantId:      "tenant-1",
		OccurredAt:    time.Now(),
		ReferenceId:   1,
		ReferenceType: models.EntityReferenceTypeBudget,
		Action:        models.OutboxActionCreate,
		PublishStatus: models.OutboxPublishStatusFailed,
		AttemptCount:  10,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed outbox record: %v", err)
	}

	dispatcher := workers.NewOutboxDispatcher(config.GetLogger())
	dispatcher.DispatchOnce(context.Background())

	var after models.OutboxRecord
	if err := db.First(&after, record.ID).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if after.AttemptCount != 10 {
		t.Fatalf("AttemptCount = %d; exhausted record was retried", after.AttemptCount)
	}
}
