package clean

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolscope/domain/core"
	"schoolscope/domain/table"
	"schoolscope/internal"
	"schoolscope/internal/rng"
)

func imputerTable(t *testing.T) *table.Table {
	t.Helper()
	nan := math.NaN()
	ids := make([]core.RecordID, 12)
	for i := range ids {
		ids[i] = core.RecordID(i + 1)
	}
	tbl := table.New(ids)
	require.NoError(t, tbl.AddColumn(table.NumericColumn("score",
		[]float64{10, 12, nan, 14, 16, 18, nan, 22, 24, 26, 28, 30})))
	require.NoError(t, tbl.AddColumn(table.NumericColumn("rate",
		[]float64{1, 1.2, 1.4, 1.6, 1.8, 2, 2.2, 2.4, 2.6, 2.8, 3, 3.2})))
	require.NoError(t, tbl.AddColumn(table.CategoricalColumn("band",
		[]string{"low", "low", "low", "low", "low", "", "high", "high", "high", "high", "high", ""})))
	return tbl
}

func testImputer(seed int64) *Imputer {
	return NewImputer(ImputerOptions{
		NumericColumns:     []string{"score", "rate"},
		CategoricalColumns: []string{"band"},
		Chains:             3,
		Sweeps:             3,
		Donors:             3,
	}, rng.NewSource(seed), internal.NewLogger(internal.LogLevelError))
}

func TestImputer_FillsDesignatedColumns(t *testing.T) {
	out, report, err := testImputer(1).Run(imputerTable(t))
	require.NoError(t, err)

	score, err := out.Column("score")
	require.NoError(t, err)
	assert.Zero(t, score.MissingCount())
	band, err := out.Column("band")
	require.NoError(t, err)
	assert.Zero(t, band.MissingCount())

	assert.Equal(t, 2, report.FilledCounts["score"])
	assert.Equal(t, 0, report.FilledCounts["rate"])
	assert.Equal(t, 2, report.FilledCounts["band"])
}

func TestImputer_DonorsComeFromObservedValues(t *testing.T) {
	// Predictive matching copies observed values; nothing synthetic appears.
	out, _, err := testImputer(1).Run(imputerTable(t))
	require.NoError(t, err)

	observed := map[float64]bool{}
	orig, _ := imputerTable(t).Numeric("score")
	for _, v := range orig {
		if !math.IsNaN(v) {
			observed[v] = true
		}
	}
	filled, _ := out.Numeric("score")
	for i, v := range filled {
		if math.IsNaN(orig[i]) {
			assert.True(t, observed[v], "imputed value %v at row %d is not an observed donor value", v, i)
		}
	}

	levels := map[string]bool{"low": true, "high": true}
	bands, _ := out.Categorical("band")
	for _, v := range bands {
		assert.True(t, levels[v], "imputed level %q is not an observed level", v)
	}
}

func TestImputer_UntouchedColumnsStayIdentical(t *testing.T) {
	src := imputerTable(t)
	require.NoError(t, src.AddColumn(table.NumericColumn("untouched",
		[]float64{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9})))

	out, _, err := testImputer(1).Run(src)
	require.NoError(t, err)
	vals, err := out.Numeric("untouched")
	require.NoError(t, err)
	for _, v := range vals {
		assert.Equal(t, 9.0, v)
	}
}

func TestImputer_DeterministicForSeed(t *testing.T) {
	a, _, err := testImputer(42).Run(imputerTable(t))
	require.NoError(t, err)
	b, _, err := testImputer(42).Run(imputerTable(t))
	require.NoError(t, err)

	sa, _ := a.Numeric("score")
	sb, _ := b.Numeric("score")
	assert.Equal(t, sa, sb)
	ba, _ := a.Categorical("band")
	bb, _ := b.Categorical("band")
	assert.Equal(t, ba, bb)
}

func TestImputer_SingleLevelCategoricalIsFatal(t *testing.T) {
	tbl := table.New([]core.RecordID{1, 2, 3})
	require.NoError(t, tbl.AddColumn(table.CategoricalColumn("flat", []string{"only", "only", ""})))
	require.NoError(t, tbl.AddColumn(table.NumericColumn("x", []float64{1, 2, 3})))

	im := NewImputer(ImputerOptions{
		NumericColumns:     []string{"x"},
		CategoricalColumns: []string{"flat"},
		Chains:             2, Sweeps: 2, Donors: 2,
	}, rng.NewSource(1), internal.NewLogger(internal.LogLevelError))

	_, _, err := im.Run(tbl)
	require.Error(t, err)
	assert.True(t, core.IsImputeError(err))
	assert.Contains(t, err.Error(), "flat")
}

func TestImputer_AllMissingNumericIsFatal(t *testing.T) {
	nan := math.NaN()
	tbl := table.New([]core.RecordID{1, 2, 3})
	require.NoError(t, tbl.AddColumn(table.NumericColumn("void", []float64{nan, nan, nan})))

	im := NewImputer(ImputerOptions{
		NumericColumns: []string{"void"},
		Chains:         2, Sweeps: 2, Donors: 2,
	}, rng.NewSource(1), internal.NewLogger(internal.LogLevelError))

	_, _, err := im.Run(tbl)
	require.Error(t, err)
	assert.True(t, core.IsImputeError(err))
}
