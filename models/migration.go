package models

import (
	"log"

	"github.com/easybudgetapp/easybudget_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Tenant{}, &User{},
		&Customer{}, &Service{},
		&Budget{}, &BudgetItem{},
		&Invoice{}, &Subscription{},
		&AuditLog{}, &OutboxRecord{}, &SystemSetting{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
