package models

import (
	"context"
	"errors"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/shopspring/decimal"
)

type Service struct {
	ID          int             `gorm:"primary_key" json:"id"`
	TenantId    string          `gorm:"index;size:36;not null" json:"tenant_id"`
	Name        string          `gorm:"size:150;not null" json:"name" binding:"required"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	Status      ServiceStatus   `gorm:"type:varchar(10);not null;default:'Active'" json:"status"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s Service) GetTenantId() string    { return s.TenantId }
func (s *Service) SetTenantId(id string) { s.TenantId = id }

type NewService struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func (input *NewService) validate(ctx context.Context, tenantId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Service](ctx, tenantId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Service](ctx, tenantId, "name", input.Name, id); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	return nil
}

func CreateService(ctx context.Context, input *NewService) (*Service, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := input.validate(ctx, tenantId, 0); err != nil {
		return nil, err
	}

	service := Service{
		TenantId:    tenantId,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Status:      ServiceStatusActive,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&service).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

func UpdateService(ctx context.Context, id int, input *NewService) (*Service, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := input.validate(ctx, tenantId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var service Service
	if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&service, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := db.WithContext(ctx).Model(&service).Updates(map[string]any{
		"name":        input.Name,
		"description": input.Description,
		"price":       input.Price,
	}).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

// DeactivateService hides a service from new budgets. Existing budget items
// keep their copied name and price.
func DeactivateService(ctx context.Context, id int) (*Service, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	db := config.GetDB()
	var service Service
	if err := db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&service, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := db.WithContext(ctx).Model(&service).Update("status", ServiceStatusInactive).Error; err != nil {
		return nil, err
	}
	return &service, nil
}
