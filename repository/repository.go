package repository

import (
	"context"
	"errors"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"gorm.io/gorm"
)

// Options declares what a concrete repository permits callers to do.
// Fields outside the allow-lists are silently ignored by the criteria engine.
type Options struct {
	Filterable []string
	Sortable   []string
}

// Repository is the generic data-access surface shared by every entity.
// The injected ScopeStrategy decides tenant isolation: construct with
// NewTenantScope for tenant-facing code, NewGlobalScope for admin-only
// cross-tenant access.
//
// Failure policy: this layer is a boundary. Backing-store errors are logged
// with the operation name and absorbed — reads return nil/empty/zero, writes
// report false/nil. "Not found", "belongs to another tenant" and (for reads)
// "store failure" are deliberately indistinguishable from the return value;
// the logs carry the distinction.
type Repository[T any] struct {
	scope ScopeStrategy
	opts  Options
	name  string
}

// NewRepository builds a repository for one entity type. A nil scope is a
// programming error and aborts initialization.
func NewRepository[T any](scope ScopeStrategy, opts Options) *Repository[T] {
	if scope == nil {
		utils.ErrorPanic(errors.New("repository: scope strategy must be set"))
	}
	return &Repository[T]{
		scope: scope,
		opts:  opts,
		name:  utils.GetTypeName[T](),
	}
}

func (r *Repository[T]) Scope() ScopeStrategy { return r.scope }

func (r *Repository[T]) session(ctx context.Context) *gorm.DB {
	ctx = r.scope.Context(ctx)
	dbCtx := config.GetDB().WithContext(ctx).Model(new(T))
	return r.scope.Apply(ctx, dbCtx)
}

// Find returns the entity or nil. Absent and wrong-tenant lookups are
// structurally identical.
func (r *Repository[T]) Find(ctx context.Context, id int) *T {
	var result T
	if err := r.session(ctx).First(&result, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logError("Find", err, id)
		}
		return nil
	}
	return &result
}

// FindMany returns the subset of ids visible to the active tenant.
func (r *Repository[T]) FindMany(ctx context.Context, ids []int) []*T {
	results := make([]*T, 0, len(ids))
	if len(ids) == 0 {
		return results
	}
	if err := r.session(ctx).Where("id IN ?", utils.UniqueSlice(ids)).Find(&results).Error; err != nil {
		r.logError("FindMany", err, ids)
		return []*T{}
	}
	return results
}

// GetAll returns every entity for the active tenant.
func (r *Repository[T]) GetAll(ctx context.Context) []*T {
	var results []*T
	if err := r.session(ctx).Find(&results).Error; err != nil {
		r.logError("GetAll", err, nil)
		return []*T{}
	}
	return results
}

// FindBy filters with criteria and ordering; limit/offset of zero mean
// "no limit"/"no offset".
func (r *Repository[T]) FindBy(ctx context.Context, criteria Criteria, orderBy map[string]string, limit int, offset int) []*T {
	var results []*T
	dbCtx := ApplyCriteria(r.session(ctx), criteria, r.opts.Filterable)
	dbCtx = ApplyOrderBy(dbCtx, orderBy, r.opts.Sortable)
	if limit > 0 {
		dbCtx = dbCtx.Limit(limit)
	}
	if offset > 0 {
		dbCtx = dbCtx.Offset(offset)
	}
	if err := dbCtx.Find(&results).Error; err != nil {
		r.logError("FindBy", err, criteria)
		return []*T{}
	}
	return results
}

func (r *Repository[T]) FindOneBy(ctx context.Context, criteria Criteria) *T {
	var result T
	dbCtx := ApplyCriteria(r.session(ctx), criteria, r.opts.Filterable)
	if err := dbCtx.First(&result).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logError("FindOneBy", err, criteria)
		}
		return nil
	}
	return &result
}

// Create inserts the entity. The scope strategy stamps the resolved tenant
// id before insert; with a tenant-scoped strategy callers cannot skip the
// stamp by presetting the field.
func (r *Repository[T]) Create(ctx context.Context, entity *T) *T {
	ctx = r.scope.Context(ctx)
	r.scope.Stamp(ctx, entity)
	if err := config.GetDB().WithContext(ctx).Create(entity).Error; err != nil {
		r.logError("Create", err, nil)
		return nil
	}
	return entity
}

// Update is find-then-mutate. Nil means not-found, wrong tenant, or a store
// failure; a row deleted between the find and the mutate also yields nil.
func (r *Repository[T]) Update(ctx context.Context, id int, changes map[string]any) *T {
	found := r.Find(ctx, id)
	if found == nil {
		return nil
	}

	changes = stripTenantColumn(changes)
	if len(changes) == 0 {
		return found
	}

	sctx := r.scope.Context(ctx)
	if err := config.GetDB().WithContext(sctx).Model(found).Updates(changes).Error; err != nil {
		r.logError("Update", err, id)
		return nil
	}
	return r.Find(ctx, id)
}

// Delete is find-then-delete; false under the same not-found/wrong-tenant
// ambiguity as Update.
func (r *Repository[T]) Delete(ctx context.Context, id int) bool {
	found := r.Find(ctx, id)
	if found == nil {
		return false
	}
	sctx := r.scope.Context(ctx)
	tx := config.GetDB().WithContext(sctx).Delete(found)
	if tx.Error != nil {
		r.logError("Delete", tx.Error, id)
		return false
	}
	return tx.RowsAffected > 0
}

// DeleteMany removes the visible subset of ids and reports how many rows went.
func (r *Repository[T]) DeleteMany(ctx context.Context, ids []int) int64 {
	if len(ids) == 0 {
		return 0
	}
	sctx := r.scope.Context(ctx)
	dbCtx := r.scope.Apply(sctx, config.GetDB().WithContext(sctx))
	tx := dbCtx.Where("id IN ?", utils.UniqueSlice(ids)).Delete(new(T))
	if tx.Error != nil {
		r.logError("DeleteMany", tx.Error, ids)
		return 0
	}
	return tx.RowsAffected
}

// UpdateMany applies the same changes to every row matching the criteria.
func (r *Repository[T]) UpdateMany(ctx context.Context, criteria Criteria, changes map[string]any) int64 {
	changes = stripTenantColumn(changes)
	if len(changes) == 0 {
		return 0
	}
	dbCtx := ApplyCriteria(r.session(ctx), criteria, r.opts.Filterable)
	tx := dbCtx.Updates(changes)
	if tx.Error != nil {
		r.logError("UpdateMany", tx.Error, criteria)
		return 0
	}
	return tx.RowsAffected
}

func (r *Repository[T]) Count(ctx context.Context, criteria Criteria) int64 {
	var count int64
	dbCtx := ApplyCriteria(r.session(ctx), criteria, r.opts.Filterable)
	if err := dbCtx.Count(&count).Error; err != nil {
		r.logError("Count", err, criteria)
		return 0
	}
	return count
}

func (r *Repository[T]) Exists(ctx context.Context, criteria Criteria) bool {
	return r.Count(ctx, criteria) > 0
}

// stripTenantColumn copies the changes without tenant_id; the tenant column
// is never writable through the update paths, and the caller's map is left
// untouched.
func stripTenantColumn(changes map[string]any) map[string]any {
	out := make(map[string]any, len(changes))
	for k, v := range changes {
		if k == "tenant_id" {
			continue
		}
		out[k] = v
	}
	return out
}

func (r *Repository[T]) logError(operation string, err error, data any) {
	config.LogError(config.GetLogger(), "repository", r.name+"."+operation, r.scope.Name(), data, err)
}
