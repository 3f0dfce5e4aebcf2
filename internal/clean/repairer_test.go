package clean

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolscope/domain/core"
	"schoolscope/domain/schools"
	"schoolscope/domain/table"
	"schoolscope/internal"
)

func repairerTable(t *testing.T) *table.Table {
	t.Helper()
	nan := math.NaN()
	tbl := table.New([]core.RecordID{1, 2, 3, 4, 5, 6})
	require.NoError(t, tbl.AddColumn(table.NumericColumn(schools.ColNumBoys,
		[]float64{5, 100, 0, nan, 300, 0})))
	require.NoError(t, tbl.AddColumn(table.NumericColumn(schools.ColNumGirls,
		[]float64{3, 7, 200, 80, 0, 0})))
	require.NoError(t, tbl.AddColumn(table.NumericColumn(schools.ColNumPupils,
		[]float64{10, 107, 200, 80, 300, 0})))
	require.NoError(t, tbl.AddColumn(table.CategoricalColumn(schools.ColGender,
		[]string{
			schools.GenderMixed, // 1: mismatch 5+3 != 10
			schools.GenderBoys,  // 2: conflict, girls=7
			schools.GenderGirls, // 3: consistent single-gender
			schools.GenderMixed, // 4: unknown boys, unresolved
			schools.GenderBoys,  // 5: consistent single-gender
			schools.GenderMixed, // 6: zero pupils, dropped
		})))
	require.NoError(t, tbl.AddColumn(table.NumericColumn(schools.ColPupilsPerTeacher,
		[]float64{15, 16, 17, 18, 19, 20})))
	return tbl
}

func runRepairer(t *testing.T, tbl *table.Table) (*table.Table, map[core.RecordID]int) {
	t.Helper()
	out, _, err := NewRepairer(internal.NewLogger(internal.LogLevelError)).Run(tbl)
	require.NoError(t, err)
	rows := make(map[core.RecordID]int)
	for i, id := range out.IDs() {
		rows[id] = i
	}
	return out, rows
}

func TestRepairer_CountsReconciled(t *testing.T) {
	out, rows := runRepairer(t, repairerTable(t))

	boys, _ := out.Numeric(schools.ColNumBoys)
	girls, _ := out.Numeric(schools.ColNumGirls)
	pupils, _ := out.Numeric(schools.ColNumPupils)

	// record 1: total rewritten from known gender counts
	assert.Equal(t, 8.0, pupils[rows[1]])

	// every retained record with known counts satisfies the identity,
	// including the conflict record whose girl count was forced to zero
	for i := range pupils {
		if !math.IsNaN(boys[i]) && !math.IsNaN(girls[i]) && !math.IsNaN(pupils[i]) {
			assert.Equal(t, pupils[i], boys[i]+girls[i], "row %d", i)
		}
	}
}

func TestRepairer_SingleGenderForcedZero(t *testing.T) {
	out, rows := runRepairer(t, repairerTable(t))

	girls, _ := out.Numeric(schools.ColNumGirls)
	gender, _ := out.Categorical(schools.ColGender)

	assert.Equal(t, 0.0, girls[rows[2]], "boys school keeps a zero girl count")
	for i, g := range gender {
		switch g {
		case schools.GenderBoys:
			assert.Equal(t, 0.0, girls[i])
		case schools.GenderGirls:
			boys, _ := out.Numeric(schools.ColNumBoys)
			assert.Equal(t, 0.0, boys[i])
		}
	}
}

func TestRepairer_RatioUndefinedIffGirlsZero(t *testing.T) {
	out, _ := runRepairer(t, repairerTable(t))

	boys, _ := out.Numeric(schools.ColNumBoys)
	girls, _ := out.Numeric(schools.ColNumGirls)
	ratio, _ := out.Numeric(schools.ColBoyGirlRatio)

	for i := range ratio {
		if girls[i] == 0 || math.IsNaN(girls[i]) || math.IsNaN(boys[i]) {
			assert.True(t, math.IsNaN(ratio[i]), "row %d should be undefined", i)
			continue
		}
		assert.Equal(t, boys[i]/girls[i], ratio[i], "row %d", i)
		assert.False(t, math.IsInf(ratio[i], 0))
	}
}

func TestRepairer_ZeroRecordsDropped(t *testing.T) {
	out, rows := runRepairer(t, repairerTable(t))

	_, present := rows[6]
	assert.False(t, present, "zero-pupil record should be dropped")

	pupils, _ := out.Numeric(schools.ColNumPupils)
	ppt, _ := out.Numeric(schools.ColPupilsPerTeacher)
	for i := range pupils {
		assert.NotZero(t, pupils[i])
		assert.NotZero(t, ppt[i])
	}
}

func TestRepairer_MissingTotalFilledFromCounts(t *testing.T) {
	nan := math.NaN()
	tbl := table.New([]core.RecordID{1, 2, 3})
	require.NoError(t, tbl.AddColumn(table.NumericColumn(schools.ColNumBoys,
		[]float64{5, nan, 200})))
	require.NoError(t, tbl.AddColumn(table.NumericColumn(schools.ColNumGirls,
		[]float64{3, 40, nan})))
	require.NoError(t, tbl.AddColumn(table.NumericColumn(schools.ColNumPupils,
		[]float64{nan, nan, nan})))
	require.NoError(t, tbl.AddColumn(table.CategoricalColumn(schools.ColGender,
		[]string{schools.GenderMixed, schools.GenderMixed, schools.GenderBoys})))
	require.NoError(t, tbl.AddColumn(table.NumericColumn(schools.ColPupilsPerTeacher,
		[]float64{15, 16, 17})))

	out, report, err := NewRepairer(internal.NewLogger(internal.LogLevelError)).Run(tbl)
	require.NoError(t, err)
	rows := make(map[core.RecordID]int)
	for i, id := range out.IDs() {
		rows[id] = i
	}

	pupils, _ := out.Numeric(schools.ColNumPupils)
	// record 1: both counts known, missing total filled as 5+3
	assert.Equal(t, 8.0, pupils[rows[1]])
	// record 2: unknown boy count stays unresolved
	assert.True(t, math.IsNaN(pupils[rows[2]]))
	// record 3: the forced zero makes both counts known, so the total fills
	assert.Equal(t, 200.0, pupils[rows[3]])

	assert.Equal(t, 1, report.CountMismatches)
	assert.Equal(t, 1, report.CountsForcedZero)
	assert.Equal(t, 2, report.CountsRewritten)
}

func TestRepairer_ReportTallies(t *testing.T) {
	_, report, err := NewRepairer(internal.NewLogger(internal.LogLevelError)).Run(repairerTable(t))
	require.NoError(t, err)

	assert.Equal(t, 1, report.CountMismatches)
	// record 1's mismatch plus record 2's rewrite after its forced zero
	assert.Equal(t, 2, report.CountsRewritten)
	assert.Equal(t, 1, report.GenderConflicts)
	assert.Equal(t, 1, report.CountsForcedZero)
	assert.Equal(t, 1, report.RowsDroppedZeroes)
}
