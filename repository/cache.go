package repository

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/utils"
)

func cacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

func cacheItemKey[T any](id int) string {
	return utils.GetTypeName[T]() + ":" + fmt.Sprint(id)
}

func cacheListKey[T any](tenantId string) string {
	if tenantId == "" {
		return utils.GetTypeName[T]() + "List"
	}
	return utils.GetTypeName[T]() + "List:" + tenantId
}

// GetCached is the read-through variant of Find. Cache keys are global per
// type and id, so a cached hit is re-checked against the scope's resolved
// tenant before it is returned; a hit owned by another tenant behaves exactly
// like a miss on the database path.
func (r *Repository[T]) GetCached(ctx context.Context, scope *TenantScoped, id int) *T {
	key := cacheItemKey[T](id)

	var cached *T
	exists, err := config.GetRedisObject(key, &cached)
	if err != nil {
		r.logError("GetCached", err, id)
	}
	if exists && cached != nil {
		if owned, ok := any(*cached).(TenantOwned); ok {
			if tenantId, resolved := scope.Resolver().Resolve(ctx); resolved && owned.GetTenantId() != tenantId {
				return nil
			}
		}
		return cached
	}

	result := r.Find(ctx, id)
	if result == nil {
		return nil
	}
	if err := config.SetRedisObject(key, result, cacheLifespan()); err != nil {
		r.logError("GetCached", err, id)
	}
	return result
}

// GetAllCached serves lists from redis keyed per tenant, falling back to the
// database and caching the fetched list. Unresolved tenants skip the cache
// entirely; an unscoped list must never be cached under a tenant key.
func (r *Repository[T]) GetAllCached(ctx context.Context, scope *TenantScoped) []*T {
	tenantId, resolved := scope.Resolver().Resolve(ctx)
	if !resolved {
		return r.GetAll(ctx)
	}

	key := cacheListKey[T](tenantId)
	var cached []*T
	exists, err := config.GetRedisObject(key, &cached)
	if err != nil {
		r.logError("GetAllCached", err, tenantId)
	}
	if exists {
		return cached
	}

	results := r.GetAll(ctx)
	if err := config.SetRedisObject(key, &results, cacheLifespan()); err != nil {
		r.logError("GetAllCached", err, tenantId)
	}
	return results
}

// InvalidateCache drops the item key and the tenant's list key. Write paths
// call this after Create/Update/Delete; a failed drop is logged and the
// entry ages out via CACHE_LIFESPAN.
func (r *Repository[T]) InvalidateCache(ctx context.Context, id int) {
	if err := config.RemoveRedisKey(cacheItemKey[T](id)); err != nil {
		r.logError("InvalidateCache", err, id)
	}
	tenantId := ""
	if scoped, ok := r.scope.(*TenantScoped); ok {
		tenantId, _ = scoped.Resolver().Resolve(ctx)
	}
	if err := config.RemoveRedisKey(cacheListKey[T](tenantId)); err != nil {
		r.logError("InvalidateCache", err, tenantId)
	}
}
