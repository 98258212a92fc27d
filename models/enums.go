package models

type BudgetStatus string

const (
	BudgetStatusDraft     BudgetStatus = "DRAFT"
	BudgetStatusPending   BudgetStatus = "PENDING"
	BudgetStatusApproved  BudgetStatus = "APPROVED"
	BudgetStatusRejected  BudgetStatus = "REJECTED"
	BudgetStatusCancelled BudgetStatus = "CANCELLED"
	BudgetStatusCompleted BudgetStatus = "COMPLETED"
	BudgetStatusExpired   BudgetStatus = "EXPIRED"
)

// BudgetActiveStatuses are the states counted as "active" in dashboards.
var BudgetActiveStatuses = []string{
	string(BudgetStatusDraft),
	string(BudgetStatusPending),
	string(BudgetStatusApproved),
}

var budgetTransitions = map[BudgetStatus][]BudgetStatus{
	BudgetStatusDraft:    {BudgetStatusPending, BudgetStatusCancelled},
	BudgetStatusPending:  {BudgetStatusApproved, BudgetStatusRejected, BudgetStatusCancelled, BudgetStatusExpired},
	BudgetStatusApproved: {BudgetStatusCompleted, BudgetStatusCancelled, BudgetStatusExpired},
	BudgetStatusRejected: {BudgetStatusPending},
}

func (s BudgetStatus) IsValid() bool {
	switch s {
	case BudgetStatusDraft, BudgetStatusPending, BudgetStatusApproved,
		BudgetStatusRejected, BudgetStatusCancelled, BudgetStatusCompleted, BudgetStatusExpired:
		return true
	}
	return false
}

func (s BudgetStatus) IsActive() bool {
	for _, a := range BudgetActiveStatuses {
		if string(s) == a {
			return true
		}
	}
	return false
}

// IsFinished reports whether the budget reached a terminal state.
// Rejected is not terminal: a rejected budget can be resubmitted.
func (s BudgetStatus) IsFinished() bool {
	switch s {
	case BudgetStatusCancelled, BudgetStatusCompleted, BudgetStatusExpired:
		return true
	}
	return false
}

func (s BudgetStatus) CanTransitionTo(next BudgetStatus) bool {
	for _, allowed := range budgetTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "Draft"
	InvoiceStatusConfirmed InvoiceStatus = "Confirmed"
	InvoiceStatusPaid      InvoiceStatus = "Paid"
	InvoiceStatusOverdue   InvoiceStatus = "Overdue"
	InvoiceStatusVoid      InvoiceStatus = "Void"
)

var InvoiceActiveStatuses = []string{
	string(InvoiceStatusDraft),
	string(InvoiceStatusConfirmed),
	string(InvoiceStatusOverdue),
}

type ServiceStatus string

const (
	ServiceStatusActive   ServiceStatus = "Active"
	ServiceStatusInactive ServiceStatus = "Inactive"
)

type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "Trial"
	SubscriptionStatusActive    SubscriptionStatus = "Active"
	SubscriptionStatusPastDue   SubscriptionStatus = "PastDue"
	SubscriptionStatusCancelled SubscriptionStatus = "Cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "Expired"
)

var SubscriptionActiveStatuses = []string{
	string(SubscriptionStatusTrial),
	string(SubscriptionStatusActive),
	string(SubscriptionStatusPastDue),
}

type UserRole string

const (
	UserRoleOwner  UserRole = "Owner"
	UserRoleStaff  UserRole = "Staff"
	UserRoleAdmin  UserRole = "Admin" // platform operator, cross tenant
	UserRoleViewer UserRole = "Viewer"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "Create"
	AuditActionUpdate AuditAction = "Update"
	AuditActionDelete AuditAction = "Delete"
)

type OutboxPublishStatus string

const (
	OutboxPublishStatusPending   OutboxPublishStatus = "Pending"
	OutboxPublishStatusPublished OutboxPublishStatus = "Published"
	OutboxPublishStatusFailed    OutboxPublishStatus = "Failed"
)

type EntityReferenceType string

const (
	EntityReferenceTypeBudget       EntityReferenceType = "Budget"
	EntityReferenceTypeCustomer     EntityReferenceType = "Customer"
	EntityReferenceTypeInvoice      EntityReferenceType = "Invoice"
	EntityReferenceTypeService      EntityReferenceType = "Service"
	EntityReferenceTypeSubscription EntityReferenceType = "Subscription"
)
