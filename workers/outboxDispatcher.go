package workers

import (
	"context"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OutboxDispatcher drains pending outbox rows to Pub/Sub. Every poll runs
// unscoped across tenants; delivery is at-least-once and consumers must
// dedupe by record id.
type OutboxDispatcher struct {
	Logger      *logrus.Logger
	BatchSize   int
	Interval    time.Duration
	MaxAttempts int
}

func NewOutboxDispatcher(logger *logrus.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		Logger:      logger,
		BatchSize:   50,
		Interval:    2 * time.Second,
		MaxAttempts: 10,
	}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.DispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.Interval):
		}
	}
}

func (d *OutboxDispatcher) DispatchOnce(ctx context.Context) {
	scanCtx := utils.SetSkipTenantScopeInContext(ctx, true)
	db := config.GetDB()

	var pending []models.OutboxRecord
	err := db.WithContext(scanCtx).
		Where("publish_status IN ?", []models.OutboxPublishStatus{
			models.OutboxPublishStatusPending,
			models.OutboxPublishStatusFailed,
		}).
		Where("attempt_count < ?", d.MaxAttempts).
		Order("id ASC").
		Limit(d.BatchSize).
		Find(&pending).Error
	if err != nil {
		config.LogError(d.Logger, "workers", "OutboxDispatcher.DispatchOnce", "scan", nil, err)
		return
	}

	for _, rec := range pending {
		event := &config.EntityEvent{
			ID:            rec.ID,
			TenantId:      rec.TenantId,
			OccurredAt:    rec.OccurredAt,
			ReferenceId:   rec.ReferenceId,
			ReferenceType: string(rec.ReferenceType),
			Action:        string(rec.Action),
			OldObj:        rec.OldObj,
			NewObj:        rec.NewObj,
			CorrelationId: rec.CorrelationId,
		}

		if _, err := config.PublishEntityEvent(ctx, event); err != nil {
			d.markFailed(scanCtx, db, rec, err)
			continue
		}

		now := time.Now()
		if err := db.WithContext(scanCtx).Model(&models.OutboxRecord{}).
			Where("id = ?", rec.ID).
			Updates(map[string]any{
				"publish_status": models.OutboxPublishStatusPublished,
				"published_at":   &now,
				"attempt_count":  gorm.Expr("attempt_count + 1"),
				"last_error":     "",
			}).Error; err != nil {
			config.LogError(d.Logger, "workers", "OutboxDispatcher.DispatchOnce", "mark published", rec.ID, err)
		}
	}
}

func (d *OutboxDispatcher) markFailed(ctx context.Context, db *gorm.DB, rec models.OutboxRecord, publishErr error) {
	errMsg := publishErr.Error()
	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}
	if err := db.WithContext(ctx).Model(&models.OutboxRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]any{
			"publish_status": models.OutboxPublishStatusFailed,
			"attempt_count":  gorm.Expr("attempt_count + 1"),
			"last_error":     errMsg,
		}).Error; err != nil {
		config.LogError(d.Logger, "workers", "OutboxDispatcher.markFailed", "update", rec.ID, err)
	}
	d.Logger.WithFields(logrus.Fields{
		"record_id":      rec.ID,
		"tenant_id":      rec.TenantId,
		"reference_type": rec.ReferenceType,
		"reference_id":   rec.ReferenceId,
	}).Error("outbox publish failed: " + errMsg)
}
