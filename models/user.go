package models

import (
	"context"
	"errors"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/utils"
)

type User struct {
	ID        int        `gorm:"primary_key" json:"id"`
	TenantId  string     `gorm:"index;size:36;not null" json:"tenant_id"`
	Name      string     `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string     `gorm:"size:100;uniqueIndex;not null" json:"email" binding:"required"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Role      UserRole   `gorm:"type:varchar(10);not null;default:'Staff'" json:"role"`
	IsActive  *bool      `gorm:"not null;default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u User) GetTenantId() string    { return u.TenantId }
func (u *User) SetTenantId(id string) { u.TenantId = id }

// TenantIdForUser backs the resolver's principal lookup. The incoming
// context already carries the resolving marker, so any query issued here is
// answered unscoped instead of recursing into resolution.
func TenantIdForUser(ctx context.Context) (string, bool) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return "", false
	}

	var tenantId string
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userId).
		Select("tenant_id").Scan(&tenantId).Error
	if err != nil || tenantId == "" {
		return "", false
	}
	return tenantId, true
}

// SignIn verifies credentials and returns a signed token carrying the user's
// tenant id and role.
func SignIn(ctx context.Context, email string, password string) (string, *User, error) {
	var user User
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return "", nil, errors.New("invalid credentials")
	}
	if user.IsActive != nil && !*user.IsActive {
		return "", nil, errors.New("account disabled")
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	token, err := utils.JwtGenerate(user.ID, user.TenantId, string(user.Role))
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	if err := db.WithContext(ctx).Model(&user).Update("last_login", &now).Error; err != nil {
		config.LogError(config.GetLogger(), "models", "SignIn", "update last_login", user.ID, err)
	}
	return token, &user, nil
}
