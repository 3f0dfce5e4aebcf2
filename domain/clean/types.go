// Package clean holds the artifact types produced by the data-quality stages:
// missingness profiles, imputation diagnostics, repair tallies and outlier
// summaries. Reporting collaborators consume these as-is.
package clean

import "schoolscope/domain/core"

// DropDecision is the profiler's verdict for one column
type DropDecision string

const (
	DecisionKeep       DropDecision = "keep"
	DecisionDropColumn DropDecision = "drop_column"
	DecisionRequireRow DropDecision = "require_non_null"
)

// ColumnProfile describes missingness for a single column
type ColumnProfile struct {
	Name            string       `json:"name"`
	Kind            string       `json:"kind"`
	MissingCount    int          `json:"missing_count"`
	MissingFraction float64      `json:"missing_fraction"`
	Decision        DropDecision `json:"decision"`
}

// ProfileReport is the profiler's output: per-column profiles sorted
// descending by missing fraction, plus the drop bookkeeping. Nothing is
// dropped without a count appearing here.
type ProfileReport struct {
	RowsBefore        int             `json:"rows_before"`
	RowsAfter         int             `json:"rows_after"`
	RowsDropped       int             `json:"rows_dropped"`
	ColumnsDropped    []string        `json:"columns_dropped"`
	SkippedKeyColumns []string        `json:"skipped_key_columns,omitempty"`
	Profiles          []ColumnProfile `json:"profiles"`
}

// ChainVariance is the between-completion dispersion of one imputed numeric
// column, a byproduct of running several imputation chains
type ChainVariance struct {
	Column   string  `json:"column"`
	Variance float64 `json:"variance"`
}

// ImputationReport records what the imputer filled and how the chains spread
type ImputationReport struct {
	Chains        int             `json:"chains"`
	Sweeps        int             `json:"sweeps"`
	Seed          int64           `json:"seed"`
	FilledCounts  map[string]int  `json:"filled_counts"`
	ChainSpread   []ChainVariance `json:"chain_spread,omitempty"`
}

// RepairReport tallies the consistency repairer's corrections
type RepairReport struct {
	CountMismatches   int `json:"count_mismatches"`
	CountsRewritten   int `json:"counts_rewritten"`
	GenderConflicts   int `json:"gender_conflicts"`
	CountsForcedZero  int `json:"counts_forced_zero"`
	RatiosUndefined   int `json:"ratios_undefined"`
	RowsDroppedZeroes int `json:"rows_dropped_zeroes"`
}

// OutlierSummary is the Tukey-fence diagnostic for one numeric column
type OutlierSummary struct {
	Column       string  `json:"column"`
	Q1           float64 `json:"q1"`
	Q3           float64 `json:"q3"`
	IQR          float64 `json:"iqr"`
	LowerFence   float64 `json:"lower_fence"`
	UpperFence   float64 `json:"upper_fence"`
	OutlierCount int     `json:"outlier_count"`
}

// OutlierReport ranks columns by outlier count descending. It is diagnostic
// only; the record set is never mutated by outlier detection.
type OutlierReport struct {
	RunID     core.RunID       `json:"run_id"`
	Summaries []OutlierSummary `json:"summaries"`
}
