// outbox-dispatcher runs the Pub/Sub outbox drain as a standalone process,
// for deployments that publish from a worker instead of the API server
// (set OUTBOX_DISPATCHER_IN_SERVER=false there).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/workers"
)

func main() {
	logger := config.GetLogger()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		logger.Fatal("database not initialized; set DB_* env vars")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("outbox dispatcher started")
	workers.NewOutboxDispatcher(logger).Run(ctx)
	logger.Info("outbox dispatcher stopped")
}
