package models

import (
	"context"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"gorm.io/gorm"
)

// SystemSetting is a per-tenant key/value setting with a redis read-through.
type SystemSetting struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"size:36;not null;uniqueIndex:idx_setting_tenant_key" json:"tenant_id"`
	Key       string    `gorm:"size:100;not null;uniqueIndex:idx_setting_tenant_key" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s SystemSetting) GetTenantId() string    { return s.TenantId }
func (s *SystemSetting) SetTenantId(id string) { s.TenantId = id }

func settingCacheKey(tenantId string, key string) string {
	return "Setting:" + tenantId + ":" + key
}

// GetSetting returns the value or the fallback, consulting redis first.
func GetSetting(ctx context.Context, tenantId string, key string, fallback string) string {
	cacheKey := settingCacheKey(tenantId, key)

	cached, exists, err := config.GetRedisValue(cacheKey)
	if err == nil && exists {
		return cached
	}

	var setting SystemSetting
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND `key` = ?", tenantId, key).
		First(&setting).Error; err != nil {
		return fallback
	}
	if err := config.SetRedisValue(cacheKey, setting.Value, 0); err != nil {
		config.LogError(config.GetLogger(), "models", "GetSetting", key, tenantId, err)
	}
	return setting.Value
}

// PutSetting upserts the value and drops the cache entry.
func PutSetting(ctx context.Context, tenantId string, key string, value string) error {
	db := config.GetDB()
	var setting SystemSetting
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND `key` = ?", tenantId, key).
		First(&setting).Error
	switch {
	case err == nil:
		err = db.WithContext(ctx).Model(&setting).Update("value", value).Error
	case err == gorm.ErrRecordNotFound:
		err = db.WithContext(ctx).Create(&SystemSetting{
			TenantId: tenantId,
			Key:      key,
			Value:    value,
		}).Error
	}
	if err != nil {
		return err
	}
	return config.RemoveRedisKey(settingCacheKey(tenantId, key))
}
