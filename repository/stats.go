package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// StatsOptions names the columns the aggregation runs over. Zero values skip
// the corresponding figures: no ValueField means Sum/Average stay zero, no
// DateField means no ByMonth breakdown.
type StatsOptions struct {
	StatusField    string
	ActiveStatuses []string
	ValueField     string
	DateField      string
}

// Stats is the aggregate snapshot for one entity under the active scope.
type Stats struct {
	Total    int64            `json:"total"`
	Active   int64            `json:"active"`
	Inactive int64            `json:"inactive"`
	ByStatus map[string]int64 `json:"by_status"`
	ByMonth  map[string]int64 `json:"by_month,omitempty"`
	Sum      decimal.Decimal  `json:"sum"`
	Average  decimal.Decimal  `json:"average"`
}

type statusCountRow struct {
	Status string
	Count  int64
}

type monthCountRow struct {
	Month string
	Count int64
}

type sumAvgRow struct {
	Sum decimal.Decimal
	Avg decimal.Decimal
}

// Stats aggregates over rows matching the criteria, tenant scope included.
// The counts run as independent queries, not a transaction; under concurrent
// writes the figures can drift by the rows written in between, which is
// acceptable for a dashboard snapshot.
func (r *Repository[T]) Stats(ctx context.Context, criteria Criteria, opts StatsOptions) *Stats {
	stats := &Stats{
		ByStatus: map[string]int64{},
		Sum:      decimal.Zero,
		Average:  decimal.Zero,
	}

	stats.Total = r.Count(ctx, criteria)

	if opts.StatusField != "" {
		r.statsByStatus(ctx, criteria, opts, stats)
	}
	if opts.ValueField != "" {
		r.statsSumAverage(ctx, criteria, opts, stats)
	}
	if opts.DateField != "" {
		r.statsByMonth(ctx, criteria, opts, stats)
	}
	return stats
}

func (r *Repository[T]) statsByStatus(ctx context.Context, criteria Criteria, opts StatsOptions, stats *Stats) {
	var rows []statusCountRow
	dbCtx := ApplyCriteria(r.session(ctx), criteria, r.opts.Filterable)
	err := dbCtx.
		Select(opts.StatusField + " AS status, COUNT(*) AS count").
		Group(opts.StatusField).
		Scan(&rows).Error
	if err != nil {
		r.logError("Stats.byStatus", err, criteria)
		return
	}

	active := map[string]bool{}
	for _, s := range opts.ActiveStatuses {
		active[s] = true
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		if active[row.Status] {
			stats.Active += row.Count
		} else {
			stats.Inactive += row.Count
		}
	}
}

func (r *Repository[T]) statsSumAverage(ctx context.Context, criteria Criteria, opts StatsOptions, stats *Stats) {
	var row sumAvgRow
	dbCtx := ApplyCriteria(r.session(ctx), criteria, r.opts.Filterable)
	err := dbCtx.
		Select("COALESCE(SUM(" + opts.ValueField + "), 0) AS sum, COALESCE(AVG(" + opts.ValueField + "), 0) AS avg").
		Scan(&row).Error
	if err != nil {
		r.logError("Stats.sumAverage", err, criteria)
		return
	}
	stats.Sum = row.Sum
	stats.Average = row.Avg
}

func (r *Repository[T]) statsByMonth(ctx context.Context, criteria Criteria, opts StatsOptions, stats *Stats) {
	var rows []monthCountRow
	dbCtx := ApplyCriteria(r.session(ctx), criteria, r.opts.Filterable)
	monthExpr := monthExpression(dbCtx.Dialector.Name(), opts.DateField)
	err := dbCtx.
		Select(monthExpr + " AS month, COUNT(*) AS count").
		Group(monthExpr).
		Scan(&rows).Error
	if err != nil {
		r.logError("Stats.byMonth", err, criteria)
		return
	}
	stats.ByMonth = map[string]int64{}
	for _, row := range rows {
		stats.ByMonth[row.Month] = row.Count
	}
}

// monthExpression yields "2006-01" style buckets on both production MySQL
// and the sqlite used in tests.
func monthExpression(dialect string, dateField string) string {
	if dialect == "sqlite" {
		return "strftime('%Y-%m', " + dateField + ")"
	}
	return "DATE_FORMAT(" + dateField + ", '%Y-%m')"
}
