package config

import (
	"os"
	"strconv"
	"strings"
)

const defaultMaxPerPage = 100

// MaxPerPage is the hard ceiling applied to every paginated query,
// regardless of what the caller or the concrete repository asks for.
//
// Set via env:
// - PAGINATION_MAX_PER_PAGE=100
func MaxPerPage() int {
	v := strings.TrimSpace(os.Getenv("PAGINATION_MAX_PER_PAGE"))
	if v == "" {
		return defaultMaxPerPage
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultMaxPerPage
	}
	return n
}

// StrictFilterFields logs criteria/order-by fields rejected by a
// repository's allow-list instead of dropping them silently. It never turns
// the rejection into an error; the compatibility contract is that unknown
// fields have no effect on the query.
//
// Set via env:
// - STRICT_FILTER_FIELDS=true
func StrictFilterFields() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_FILTER_FIELDS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// TestTenantOverride pins the resolved tenant id for test execution.
// Takes precedence over every other resolution source. Empty means unset.
//
// Set via env:
// - TEST_TENANT_OVERRIDE=<tenant uuid>
func TestTenantOverride() string {
	return strings.TrimSpace(os.Getenv("TEST_TENANT_OVERRIDE"))
}
