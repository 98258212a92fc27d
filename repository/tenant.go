package repository

import (
	"context"

	"github.com/easybudgetapp/easybudget_backend/appctx"
	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/easybudgetapp/easybudget_backend/utils"
)

// PrincipalTenantFunc loads the tenant id for the authenticated principal
// when the middleware has not already placed it on the context. It may hit
// the database; resolution guards against the recursion that would cause.
type PrincipalTenantFunc func(ctx context.Context) (string, bool)

// TenantResolver determines the active tenant id for a request.
//
// Resolution order (first match wins):
//  1. test-mode override (TEST_TENANT_OVERRIDE)
//  2. tenant id attached to the authenticated principal
//  3. tenant id supplied explicitly on the request (header/param)
//  4. none — scoping is skipped; "unscoped", never "tenant zero"
//
// Resolve never returns an error; absence of a tenant is a valid state that
// callers must check before trusting scoped results.
type TenantResolver struct {
	principalFn PrincipalTenantFunc
}

func NewTenantResolver(principalFn PrincipalTenantFunc) *TenantResolver {
	return &TenantResolver{principalFn: principalFn}
}

func (r *TenantResolver) Resolve(ctx context.Context) (string, bool) {
	if override := config.TestTenantOverride(); override != "" {
		return override, true
	}

	// A resolution already in flight means this call came from a query the
	// principal lookup itself issued. Answer "no tenant" instead of recursing.
	if resolving, _ := appctx.GetBool(ctx, appctx.ContextKeyTenantResolving); resolving {
		return "", false
	}

	if id, ok := utils.GetTenantIdFromContext(ctx); ok && id != "" {
		return id, true
	}

	if r.principalFn != nil {
		if id, ok := r.resolveFromPrincipal(ctx); ok && id != "" {
			return id, true
		}
	}

	if id, ok := utils.GetTenantHeaderFromContext(ctx); ok && id != "" {
		return id, true
	}

	return "", false
}

// resolveFromPrincipal runs the principal lookup under a context-local
// "resolving" marker. The marker lives only on the derived context handed to
// the lookup, so it is cleared the moment the call returns and never leaks
// into concurrent requests.
func (r *TenantResolver) resolveFromPrincipal(ctx context.Context) (string, bool) {
	guarded := appctx.Set(ctx, appctx.ContextKeyTenantResolving, true)
	return r.principalFn(guarded)
}
