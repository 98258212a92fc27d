package models

import "gorm.io/gorm"

// gorm lifecycle hooks feeding the audit trail. Hooks run inside the
// statement's transaction; a failed write rolls the audit row back too.
// Errors while auditing are logged, never propagated, so a broken audit
// table cannot block business writes.

func (b *Budget) AfterCreate(tx *gorm.DB) error {
	writeAudit(tx, *b, AuditActionCreate)
	return nil
}

func (b *Budget) AfterUpdate(tx *gorm.DB) error {
	writeAudit(tx, *b, AuditActionUpdate)
	return nil
}

func (b *Budget) AfterDelete(tx *gorm.DB) error {
	writeAudit(tx, *b, AuditActionDelete)
	return nil
}

func (c *Customer) AfterCreate(tx *gorm.DB) error {
	writeAudit(tx, *c, AuditActionCreate)
	return nil
}

func (c *Customer) AfterUpdate(tx *gorm.DB) error {
	writeAudit(tx, *c, AuditActionUpdate)
	return nil
}

func (c *Customer) AfterDelete(tx *gorm.DB) error {
	writeAudit(tx, *c, AuditActionDelete)
	return nil
}

func (i *Invoice) AfterCreate(tx *gorm.DB) error {
	writeAudit(tx, *i, AuditActionCreate)
	return nil
}

func (i *Invoice) AfterUpdate(tx *gorm.DB) error {
	writeAudit(tx, *i, AuditActionUpdate)
	return nil
}

func (s *Subscription) AfterCreate(tx *gorm.DB) error {
	writeAudit(tx, *s, AuditActionCreate)
	return nil
}

func (s *Subscription) AfterUpdate(tx *gorm.DB) error {
	writeAudit(tx, *s, AuditActionUpdate)
	return nil
}
