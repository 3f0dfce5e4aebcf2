package clean

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolscope/domain/clean"
	"schoolscope/domain/core"
	"schoolscope/domain/table"
	"schoolscope/internal"
)

func profilerTable(t *testing.T) *table.Table {
	t.Helper()
	nan := math.NaN()
	tbl := table.New([]core.RecordID{1, 2, 3, 4, 5})
	require.NoError(t, tbl.AddColumn(table.NumericColumn("attainment", []float64{50, nan, 60, 70, 80})))
	require.NoError(t, tbl.AddColumn(table.NumericColumn("sparse", []float64{nan, nan, nan, 1, 2})))
	require.NoError(t, tbl.AddColumn(table.CategoricalColumn("borough", []string{"Camden", "", "Camden", "Newham", "Newham"})))
	return tbl
}

func TestProfiler_MissingFractions(t *testing.T) {
	p := NewProfiler(ProfilerOptions{DropThreshold: 0.30}, internal.NewLogger(internal.LogLevelError))
	_, report, err := p.Run(profilerTable(t))
	require.NoError(t, err)

	byName := make(map[string]clean.ColumnProfile)
	for _, prof := range report.Profiles {
		byName[prof.Name] = prof
	}
	assert.InDelta(t, 0.2, byName["attainment"].MissingFraction, 1e-12)
	assert.InDelta(t, 0.6, byName["sparse"].MissingFraction, 1e-12)
	assert.InDelta(t, 0.2, byName["borough"].MissingFraction, 1e-12)

	// sorted descending by fraction
	assert.Equal(t, "sparse", report.Profiles[0].Name)
}

func TestProfiler_ColumnThenRowDrops(t *testing.T) {
	p := NewProfiler(ProfilerOptions{
		DropThreshold: 0.30,
		KeyColumns:    []string{"attainment"},
	}, internal.NewLogger(internal.LogLevelError))

	out, report, err := p.Run(profilerTable(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"sparse"}, report.ColumnsDropped)
	assert.False(t, out.HasColumn("sparse"))
	// row 2 lost its key column value
	assert.Equal(t, 4, out.Rows())
	assert.Equal(t, 1, report.RowsDropped)
	for _, id := range out.IDs() {
		assert.NotEqual(t, core.RecordID(2), id)
	}
}

func TestProfiler_Idempotent(t *testing.T) {
	p := NewProfiler(ProfilerOptions{
		DropThreshold: 0.30,
		KeyColumns:    []string{"attainment"},
	}, internal.NewLogger(internal.LogLevelError))

	once, _, err := p.Run(profilerTable(t))
	require.NoError(t, err)
	twice, report, err := p.Run(once)
	require.NoError(t, err)

	assert.Equal(t, once.Rows(), twice.Rows())
	assert.Empty(t, report.ColumnsDropped)
	assert.Zero(t, report.RowsDropped)
}

func TestProfiler_SkipsDroppedKeyColumn(t *testing.T) {
	// "sparse" is both a key column and over the threshold: phase one drops
	// it, phase two skips it and says so.
	p := NewProfiler(ProfilerOptions{
		DropThreshold: 0.30,
		KeyColumns:    []string{"sparse"},
	}, internal.NewLogger(internal.LogLevelError))

	out, report, err := p.Run(profilerTable(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"sparse"}, report.SkippedKeyColumns)
	assert.Equal(t, 5, out.Rows())
}

func TestProfiler_ProtectKeyColumns(t *testing.T) {
	p := NewProfiler(ProfilerOptions{
		DropThreshold:     0.30,
		KeyColumns:        []string{"sparse"},
		ProtectKeyColumns: true,
	}, internal.NewLogger(internal.LogLevelError))

	out, report, err := p.Run(profilerTable(t))
	require.NoError(t, err)
	assert.Empty(t, report.ColumnsDropped)
	assert.True(t, out.HasColumn("sparse"))
	// the key requirement now bites: three rows lack sparse
	assert.Equal(t, 2, out.Rows())
}
