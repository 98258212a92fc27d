package utils

import (
	"context"
	"errors"
	"reflect"

	"github.com/easybudgetapp/easybudget_backend/config"
)

// check if id exists, using tenant_id in WHERE, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, tenantId string, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, tenantId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// check if ALL ids exist, using tenant_id in WHERE, return RecordNotFound error
func ValidateResourcesId[M any, ID comparable](ctx context.Context, tenantId string, ids []ID) error {
	unqIds := UniqueSlice(ids)

	count, err := ResourceCountWhere[M](ctx, tenantId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, tenantId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, tenantId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, tenantId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE tenant_id = ? AND $condition
// tenant_id can be blank for admin user
func ResourceCountWhere[T any](ctx context.Context, tenantId string, condition string, value ...interface{}) (int64, error) {
	var model T
	var count int64

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	if tenantId != "" {
		dbCtx = dbCtx.Where("tenant_id = ?", tenantId)
	}
	if err := dbCtx.Where(condition, value...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
