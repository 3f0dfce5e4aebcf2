package clean

import (
	"sort"

	"github.com/montanaflynn/stats"

	"schoolscope/domain/clean"
	"schoolscope/domain/table"
	"schoolscope/internal"
)

// OutlierReporter computes Tukey-fence diagnostics for every numeric column
// except the excluded ones (identifier and raw coordinates). It reads the
// table and never mutates it.
type OutlierReporter struct {
	exclude map[string]bool
	log     *internal.Logger
}

// NewOutlierReporter creates a reporter that skips the excluded columns
func NewOutlierReporter(exclude []string, log *internal.Logger) *OutlierReporter {
	ex := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		ex[name] = true
	}
	return &OutlierReporter{exclude: ex, log: log.Stage("outliers")}
}

// Run produces per-column fence summaries ranked by outlier count descending
func (o *OutlierReporter) Run(t *table.Table) (*clean.OutlierReport, error) {
	report := &clean.OutlierReport{}

	for _, name := range t.ColumnNames() {
		if o.exclude[name] {
			continue
		}
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if col.Kind != table.KindNumeric {
			continue
		}
		observed := col.Observed()
		if len(observed) < 4 {
			continue // quartiles are meaningless below four values
		}
		summary, err := tukeySummary(name, observed)
		if err != nil {
			return nil, err
		}
		report.Summaries = append(report.Summaries, summary)
	}

	sort.SliceStable(report.Summaries, func(i, j int) bool {
		a, b := report.Summaries[i], report.Summaries[j]
		if a.OutlierCount != b.OutlierCount {
			return a.OutlierCount > b.OutlierCount
		}
		return a.Column < b.Column
	})

	o.log.Info("summarized %d numeric columns", len(report.Summaries))
	return report, nil
}

// tukeySummary computes quartiles, 1.5*IQR fences and the outside count
func tukeySummary(name string, observed []float64) (clean.OutlierSummary, error) {
	quartiles, err := stats.Quartile(observed)
	if err != nil {
		return clean.OutlierSummary{}, err
	}
	iqr := quartiles.Q3 - quartiles.Q1
	lower := quartiles.Q1 - 1.5*iqr
	upper := quartiles.Q3 + 1.5*iqr

	count := 0
	for _, v := range observed {
		if v < lower || v > upper {
			count++
		}
	}
	return clean.OutlierSummary{
		Column:       name,
		Q1:           quartiles.Q1,
		Q3:           quartiles.Q3,
		IQR:          iqr,
		LowerFence:   lower,
		UpperFence:   upper,
		OutlierCount: count,
	}, nil
}
