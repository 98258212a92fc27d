package models

import (
	"context"
	"errors"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/utils"
)

type Customer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"index;size:36;not null" json:"tenant_id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:100" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Mobile    string    `gorm:"size:20" json:"mobile"`
	Document  string    `gorm:"size:20" json:"document"`
	Notes     string    `gorm:"type:text" json:"notes"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Customer) GetTenantId() string    { return c.TenantId }
func (c *Customer) SetTenantId(id string) { c.TenantId = id }

type NewCustomer struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Mobile   string `json:"mobile"`
	Document string `json:"document"`
	Notes    string `json:"notes"`
}

func (input *NewCustomer) validate(ctx context.Context, tenantId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, tenantId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Customer](ctx, tenantId, "name", input.Name, id); err != nil {
		return err
	}
	if input.Email != "" {
		if !utils.IsValidEmail(input.Email) {
			return errors.New("invalid email")
		}
		if err := utils.ValidateUnique[Customer](ctx, tenantId, "email", input.Email, id); err != nil {
			return err
		}
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	if input.Mobile != "" {
		if err := utils.ValidatePhoneNumber(input.Mobile, utils.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

func (input *NewCustomer) toCustomer(tenantId string) Customer {
	return Customer{
		TenantId: tenantId,
		Name:     input.Name,
		Email:    input.Email,
		Phone:    utils.NormalizePhoneNumber(input.Phone, utils.CountryCode),
		Mobile:   utils.NormalizePhoneNumber(input.Mobile, utils.CountryCode),
		Document: input.Document,
		Notes:    input.Notes,
		IsActive: utils.NewTrue(),
	}
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := input.validate(ctx, tenantId, 0); err != nil {
		return nil, err
	}

	customer := input.toCustomer(tenantId)
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := input.validate(ctx, tenantId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var customer Customer
	if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&customer, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updated := input.toCustomer(tenantId)
	updated.ID = customer.ID
	updated.IsActive = customer.IsActive
	updated.CreatedAt = customer.CreatedAt
	if err := db.WithContext(ctx).Save(&updated).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

func ToggleActiveCustomer(ctx context.Context, id int, isActive bool) (*Customer, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	db := config.GetDB()
	var customer Customer
	if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&customer, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := db.WithContext(ctx).Model(&customer).Update("is_active", isActive).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}
