package repository

import (
	"context"

	"github.com/easybudgetapp/easybudget_backend/appctx"
	"gorm.io/gorm"
)

// TenantOwned is implemented by every row type that carries a tenant column.
type TenantOwned interface {
	GetTenantId() string
}

// TenantAssignable lets the tenant-scoped strategy stamp the resolved tenant
// id on entities at create time.
type TenantAssignable interface {
	SetTenantId(id string)
}

// ScopeStrategy decides how a repository constrains queries to a tenant.
// A repository is constructed with exactly one strategy; swapping the
// strategy is the only way to change scoping behavior, so every unscoped
// call site is a visible NewGlobalScope() in the code.
type ScopeStrategy interface {
	Name() string
	// Context adjusts the request context before any statement runs
	// (the global strategy disables the tenant guard plugin here).
	Context(ctx context.Context) context.Context
	// Apply appends the scope predicate to a query.
	Apply(ctx context.Context, dbCtx *gorm.DB) *gorm.DB
	// Stamp sets the tenant id on an entity about to be inserted.
	Stamp(ctx context.Context, entity any)
}

// TenantScoped restricts every statement to the resolved tenant. With no
// tenant resolved the query proceeds unscoped — callers must treat that as
// dangerous and check resolution explicitly, never as "tenant zero".
type TenantScoped struct {
	resolver *TenantResolver
}

func NewTenantScope(resolver *TenantResolver) *TenantScoped {
	return &TenantScoped{resolver: resolver}
}

func (s *TenantScoped) Name() string { return "tenant" }

func (s *TenantScoped) Context(ctx context.Context) context.Context { return ctx }

func (s *TenantScoped) Apply(ctx context.Context, dbCtx *gorm.DB) *gorm.DB {
	if tenantId, ok := s.resolver.Resolve(ctx); ok {
		return dbCtx.Where("tenant_id = ?", tenantId)
	}
	return dbCtx
}

func (s *TenantScoped) Stamp(ctx context.Context, entity any) {
	tenantId, ok := s.resolver.Resolve(ctx)
	if !ok {
		return
	}
	if assignable, ok := entity.(TenantAssignable); ok {
		assignable.SetTenantId(tenantId)
	}
}

func (s *TenantScoped) Resolver() *TenantResolver { return s.resolver }

// GlobalScoped bypasses tenant scoping entirely. Reserved for admin and
// internal call sites; must never be reachable from tenant-facing paths.
type GlobalScoped struct{}

func NewGlobalScope() *GlobalScoped { return &GlobalScoped{} }

func (s *GlobalScoped) Name() string { return "global" }

func (s *GlobalScoped) Context(ctx context.Context) context.Context {
	return appctx.Set(ctx, appctx.ContextKeySkipTenantScope, true)
}

func (s *GlobalScoped) Apply(ctx context.Context, dbCtx *gorm.DB) *gorm.DB {
	return dbCtx
}

func (s *GlobalScoped) Stamp(ctx context.Context, entity any) {}
