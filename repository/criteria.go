package repository

import (
	"reflect"
	"sort"
	"strings"

	"github.com/easybudgetapp/easybudget_backend/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Criteria maps a column to either a literal value (equality), a slice
// (set membership) or a Condition (explicit operator).
type Criteria map[string]any

// Condition is an explicit comparison against a column.
// Between expects a two-element [low, high] slice, inclusive on both ends.
type Condition struct {
	Op    string
	Value any
}

const (
	OpEq      = "="
	OpNeq     = "!="
	OpLt      = "<"
	OpGt      = ">"
	OpLte     = "<="
	OpGte     = ">="
	OpIn      = "in"
	OpBetween = "between"
)

// ApplyCriteria translates a criteria map into WHERE predicates. Fields not
// on the allow-list have no effect on the query; with STRICT_FILTER_FIELDS
// set the rejection is logged, never surfaced as an error.
// Fields are applied in sorted order so generated SQL is deterministic.
func ApplyCriteria(dbCtx *gorm.DB, criteria Criteria, allowedFields []string) *gorm.DB {
	if len(criteria) == 0 {
		return dbCtx
	}

	fields := make([]string, 0, len(criteria))
	for field := range criteria {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if !fieldAllowed(allowedFields, field) {
			logRejectedField("criteria", field)
			continue
		}
		dbCtx = applyPredicate(dbCtx, field, criteria[field])
	}
	return dbCtx
}

func applyPredicate(dbCtx *gorm.DB, field string, value any) *gorm.DB {
	switch v := value.(type) {
	case Condition:
		return applyCondition(dbCtx, field, v)
	case *Condition:
		if v == nil {
			return dbCtx
		}
		return applyCondition(dbCtx, field, *v)
	default:
		if isSliceValue(value) {
			return dbCtx.Where(field+" IN ?", value)
		}
		return dbCtx.Where(field+" = ?", value)
	}
}

func applyCondition(dbCtx *gorm.DB, field string, cond Condition) *gorm.DB {
	switch strings.ToLower(cond.Op) {
	case OpEq:
		return dbCtx.Where(field+" = ?", cond.Value)
	case OpNeq:
		return dbCtx.Where(field+" <> ?", cond.Value)
	case OpLt:
		return dbCtx.Where(field+" < ?", cond.Value)
	case OpGt:
		return dbCtx.Where(field+" > ?", cond.Value)
	case OpLte:
		return dbCtx.Where(field+" <= ?", cond.Value)
	case OpGte:
		return dbCtx.Where(field+" >= ?", cond.Value)
	case OpIn:
		return dbCtx.Where(field+" IN ?", cond.Value)
	case OpBetween:
		low, high, ok := rangeBounds(cond.Value)
		if !ok {
			logRejectedField("criteria (malformed between)", field)
			return dbCtx
		}
		return dbCtx.Where(field+" BETWEEN ? AND ?", low, high)
	default:
		logRejectedField("criteria (unknown operator "+cond.Op+")", field)
		return dbCtx
	}
}

// ApplyOrderBy appends ORDER BY clauses, allow-listed the same way as
// criteria. Any direction other than case-insensitive "desc" sorts ascending.
func ApplyOrderBy(dbCtx *gorm.DB, orderBy map[string]string, sortableFields []string) *gorm.DB {
	if len(orderBy) == 0 {
		return dbCtx
	}

	fields := make([]string, 0, len(orderBy))
	for field := range orderBy {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if !fieldAllowed(sortableFields, field) {
			logRejectedField("orderBy", field)
			continue
		}
		direction := "asc"
		if strings.EqualFold(orderBy[field], "desc") {
			direction = "desc"
		}
		dbCtx = dbCtx.Order(field + " " + direction)
	}
	return dbCtx
}

func fieldAllowed(allowed []string, field string) bool {
	for _, f := range allowed {
		if f == field {
			return true
		}
	}
	return false
}

func isSliceValue(value any) bool {
	if value == nil {
		return false
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		// []byte is a scalar as far as SQL bindings go.
		return reflect.TypeOf(value).Elem().Kind() != reflect.Uint8
	default:
		return false
	}
}

func rangeBounds(value any) (any, any, bool) {
	if value == nil {
		return nil, nil, false
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, nil, false
	}
	if v.Len() != 2 {
		return nil, nil, false
	}
	return v.Index(0).Interface(), v.Index(1).Interface(), true
}

func logRejectedField(where string, field string) {
	if !config.StrictFilterFields() {
		return
	}
	config.GetLogger().WithFields(logrus.Fields{
		"module": "repository",
		"where":  where,
		"field":  field,
	}).Warn("field rejected by allow-list")
}
