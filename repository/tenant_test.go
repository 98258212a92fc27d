package repository_test

import (
	"context"
	"testing"

	"github.com/easybudgetapp/easybudget_backend/repository"
	"github.com/easybudgetapp/easybudget_backend/utils"
)

func TestResolvePrefersContextTenantOverPrincipalAndHint(t *testing.T) {
	resolver := repository.NewTenantResolver(func(ctx context.Context) (string, bool) {
		return "from-principal", true
	})

	ctx := utils.SetTenantIdInContext(context.Background(), "from-context")
	ctx = utils.SetTenantHeaderInContext(ctx, "from-header")

	got, ok := resolver.Resolve(ctx)
	if !ok || got != "from-context" {
		t.Fatalf("Resolve = %q, %v; want from-context", got, ok)
	}
}

func TestResolvePrefersPrincipalOverHint(t *testing.T) {
	resolver := repository.NewTenantResolver(func(ctx context.Context) (string, bool) {
		return "from-principal", true
	})

	ctx := utils.SetTenantHeaderInContext(context.Background(), "from-header")

	got, ok := resolver.Resolve(ctx)
	if !ok || got != "from-principal" {
		t.Fatalf("Resolve = %q, %v; want from-principal", got, ok)
	}
}

func TestResolveFallsBackToRequestHint(t *testing.T) {
	resolver := repository.NewTenantResolver(nil)

	ctx := utils.SetTenantHeaderInContext(context.Background(), "from-header")

	got, ok := resolver.Resolve(ctx)
	if !ok || got != "from-header" {
		t.Fatalf("Resolve = %q, %v; want from-header", got, ok)
	}
}

func TestResolveWithNothingReturnsNoTenant(t *testing.T) {
	resolver := repository.NewTenantResolver(nil)

	got, ok := resolver.Resolve(context.Background())
	if ok || got != "" {
		t.Fatalf("Resolve = %q, %v; want empty, false", got, ok)
	}
}

func TestResolveOverrideWinsOverEverything(t *testing.T) {
	t.Setenv("TEST_TENANT_OVERRIDE", "override-tenant")

	resolver := repository.NewTenantResolver(func(ctx context.Context) (string, bool) {
		return "from-principal", true
	})
	ctx := utils.SetTenantIdInContext(context.Background(), "from-context")

	got, ok := resolver.Resolve(ctx)
	if !ok || got != "override-tenant" {
		t.Fatalf("Resolve = %q, %v; want override-tenant", got, ok)
	}
}

// The principal lookup may itself run queries that trigger resolution. The
// nested call must see "no tenant" instead of recursing.
func TestResolveGuardsAgainstReentrantResolution(t *testing.T) {
	var resolver *repository.TenantResolver
	var nestedOk bool
	var nestedCalls int

	resolver = repository.NewTenantResolver(func(ctx context.Context) (string, bool) {
		nestedCalls++
		if nestedCalls > 1 {
			t.Fatal("principal lookup re-entered")
		}
		_, nestedOk = resolver.Resolve(ctx)
		return "from-principal", true
	})

	got, ok := resolver.Resolve(context.Background())
	if !ok || got != "from-principal" {
		t.Fatalf("Resolve = %q, %v; want from-principal", got, ok)
	}
	if nestedOk {
		t.Fatal("nested Resolve reported a tenant during resolution")
	}
}

// The resolving marker must not leak: a second top-level Resolve on the same
// base context goes through the principal lookup again.
func TestResolveGuardClearsAfterResolution(t *testing.T) {
	calls := 0
	resolver := repository.NewTenantResolver(func(ctx context.Context) (string, bool) {
		calls++
		return "from-principal", true
	})

	ctx := context.Background()
	resolver.Resolve(ctx)
	resolver.Resolve(ctx)

	if calls != 2 {
		t.Fatalf("principal lookup ran %d times; want 2", calls)
	}
}
