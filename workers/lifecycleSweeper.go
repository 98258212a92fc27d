package workers

import (
	"context"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/easybudgetapp/easybudget_backend/repository"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/sirupsen/logrus"
)

// LifecycleSweeper runs the time-driven status changes nothing else
// triggers: budgets past their validity window expire, confirmed invoices
// past due flip to overdue, due subscriptions roll into their next cycle.
// One sweep covers all tenants.
type LifecycleSweeper struct {
	Logger        *logrus.Logger
	Interval      time.Duration
	subscriptions *repository.SubscriptionRepository
}

func NewLifecycleSweeper(logger *logrus.Logger) *LifecycleSweeper {
	return &LifecycleSweeper{
		Logger:        logger,
		Interval:      time.Hour,
		subscriptions: repository.NewSubscriptionRepository(repository.NewGlobalScope()),
	}
}

func (s *LifecycleSweeper) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.Interval):
		}
	}
}

func (s *LifecycleSweeper) SweepOnce(ctx context.Context) {
	expired, err := models.ExpireBudgets(ctx)
	if err != nil {
		config.LogError(s.Logger, "workers", "LifecycleSweeper.SweepOnce", "expire budgets", nil, err)
	} else if expired > 0 {
		s.Logger.WithFields(logrus.Fields{"count": expired}).Info("budgets expired")
	}

	overdue, err := models.MarkOverdueInvoices(ctx)
	if err != nil {
		config.LogError(s.Logger, "workers", "LifecycleSweeper.SweepOnce", "mark overdue invoices", nil, err)
	} else if overdue > 0 {
		s.Logger.WithFields(logrus.Fields{"count": overdue}).Info("invoices marked overdue")
	}

	// The unscoped listing spans tenants; each renewal runs under the
	// subscription's own tenant so invoice numbering and validation stay
	// tenant-local.
	renewed := 0
	for _, sub := range s.subscriptions.DueForBilling(ctx, time.Now()) {
		tenantCtx := utils.SetTenantIdInContext(ctx, sub.TenantId)
		if _, err := models.RenewSubscription(tenantCtx, sub.ID); err != nil {
			config.LogError(s.Logger, "workers", "LifecycleSweeper.SweepOnce", "renew subscription", sub.ID, err)
			continue
		}
		renewed++
	}
	if renewed > 0 {
		s.Logger.WithFields(logrus.Fields{"count": renewed}).Info("subscriptions renewed")
	}
}
