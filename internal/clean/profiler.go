// Package clean implements the data-quality stages: missingness profiling,
// chained-equation imputation, consistency repair and Tukey-fence outlier
// reporting. Every stage takes a table and returns a new one plus a report;
// nothing is dropped without its count appearing in a report.
package clean

import (
	"sort"

	"schoolscope/domain/clean"
	"schoolscope/domain/table"
	"schoolscope/internal"
)

// ProfilerOptions configures the two-phase missingness filter
type ProfilerOptions struct {
	// DropThreshold drops a column outright when its missing-or-blank
	// fraction strictly exceeds it.
	DropThreshold float64
	// KeyColumns must be observed for a row to survive phase two.
	KeyColumns []string
	// ProtectKeyColumns exempts key columns from phase-one pruning. When
	// false and a key column is pruned, phase two skips it and the skip is
	// surfaced in the report.
	ProtectKeyColumns bool
}

// Profiler characterizes missingness and applies the column-then-row filter
type Profiler struct {
	opts ProfilerOptions
	log  *internal.Logger
}

// NewProfiler creates a profiler with the given options
func NewProfiler(opts ProfilerOptions, log *internal.Logger) *Profiler {
	return &Profiler{opts: opts, log: log.Stage("profiler")}
}

// Run profiles every column, drops columns over the threshold, then drops
// rows missing a retained key column. Columns are filtered before rows, so a
// row's survival depends only on the retained key columns.
func (p *Profiler) Run(t *table.Table) (*table.Table, *clean.ProfileReport, error) {
	report := &clean.ProfileReport{RowsBefore: t.Rows()}

	keySet := make(map[string]bool, len(p.opts.KeyColumns))
	for _, k := range p.opts.KeyColumns {
		keySet[k] = true
	}

	// Phase one: per-column profiles and column drops.
	for _, name := range t.ColumnNames() {
		col, err := t.Column(name)
		if err != nil {
			return nil, nil, err
		}
		missing := col.MissingCount()
		prof := clean.ColumnProfile{
			Name:            name,
			Kind:            string(col.Kind),
			MissingCount:    missing,
			MissingFraction: float64(missing) / float64(t.Rows()),
		}
		switch {
		case prof.MissingFraction > p.opts.DropThreshold && !(p.opts.ProtectKeyColumns && keySet[name]):
			prof.Decision = clean.DecisionDropColumn
			report.ColumnsDropped = append(report.ColumnsDropped, name)
		case keySet[name]:
			prof.Decision = clean.DecisionRequireRow
		default:
			prof.Decision = clean.DecisionKeep
		}
		report.Profiles = append(report.Profiles, prof)
	}

	sort.SliceStable(report.Profiles, func(i, j int) bool {
		a, b := report.Profiles[i], report.Profiles[j]
		if a.MissingFraction != b.MissingFraction {
			return a.MissingFraction > b.MissingFraction
		}
		return a.Name < b.Name
	})

	out := t.DropColumns(report.ColumnsDropped...)

	// Phase two: row retention on the key columns that survived phase one.
	keep := make([]bool, out.Rows())
	for i := range keep {
		keep[i] = true
	}
	for _, key := range p.opts.KeyColumns {
		if !out.HasColumn(key) {
			report.SkippedKeyColumns = append(report.SkippedKeyColumns, key)
			p.log.Warn("key column %s was pruned in phase one; row retention skips it", key)
			continue
		}
		col, err := out.Column(key)
		if err != nil {
			return nil, nil, err
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsMissing(i) {
				keep[i] = false
			}
		}
	}
	out = out.Filter(keep)

	report.RowsAfter = out.Rows()
	report.RowsDropped = report.RowsBefore - report.RowsAfter
	p.log.Info("dropped %d columns and %d rows (%d -> %d)",
		len(report.ColumnsDropped), report.RowsDropped, report.RowsBefore, report.RowsAfter)
	return out, report, nil
}
