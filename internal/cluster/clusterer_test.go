package cluster

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolscope/domain/cluster"
	"schoolscope/domain/core"
	"schoolscope/domain/table"
	"schoolscope/internal"
	"schoolscope/internal/rng"
)

// groupedTable builds four well-separated ten-point groups in two features.
// Record ids encode the generated group: 100..109 are group 0, 110..119
// group 1, and so on.
func groupedTable(t *testing.T) *table.Table {
	t.Helper()
	rnd := rand.New(rand.NewSource(99))

	var ids []core.RecordID
	var f1, f2 []float64
	for g := 0; g < 4; g++ {
		for i := 0; i < 10; i++ {
			ids = append(ids, core.RecordID(100+g*10+i))
			f1 = append(f1, float64(g*10)+rnd.NormFloat64()*0.3)
			f2 = append(f2, float64(g*10)+rnd.NormFloat64()*0.3)
		}
	}
	tbl := table.New(ids)
	require.NoError(t, tbl.AddColumn(table.NumericColumn("f1", f1)))
	require.NoError(t, tbl.AddColumn(table.NumericColumn("f2", f2)))
	return tbl
}

func testClusterer(seed int64) *Clusterer {
	return NewClusterer(rng.NewSource(seed), internal.NewLogger(internal.LogLevelError))
}

func groupOf(id core.RecordID) int {
	return (int(id) - 100) / 10
}

func TestClusterer_RecoversSeparatedGroups(t *testing.T) {
	run, err := testClusterer(5).Run(groupedTable(t), Options{
		Name:     "grid",
		Features: []string{"f1", "f2"},
		K:        4,
		Restarts: 10,
		UsePCA:   true,
	})
	require.NoError(t, err)
	require.Len(t, run.Assignments, 40)
	assert.Equal(t, cluster.SpacePCA, run.Space)

	// every generated group maps to exactly one ordinal label
	groupLabel := map[int]int{}
	for _, a := range run.Assignments {
		g := groupOf(a.RecordID)
		if prev, seen := groupLabel[g]; seen {
			assert.Equal(t, prev, a.Ordinal, "group %d split across labels", g)
		} else {
			groupLabel[g] = a.Ordinal
		}
	}
	labels := map[int]bool{}
	for _, l := range groupLabel {
		labels[l] = true
	}
	assert.Len(t, labels, 4, "four distinct ordinal labels")
}

func TestClusterer_OrdinalsFollowMeanPC1(t *testing.T) {
	run, err := testClusterer(5).Run(groupedTable(t), Options{
		Name:     "grid",
		Features: []string{"f1", "f2"},
		K:        4,
		Restarts: 10,
		UsePCA:   true,
	})
	require.NoError(t, err)

	sums := map[int]float64{}
	counts := map[int]int{}
	for i, a := range run.Assignments {
		sums[a.Ordinal] += run.Projection[i].X
		counts[a.Ordinal]++
	}
	for ordinal := 1; ordinal < 4; ordinal++ {
		lower := sums[ordinal] / float64(counts[ordinal])
		higher := sums[ordinal+1] / float64(counts[ordinal+1])
		assert.Less(t, lower, higher, "ordinal %d should sit below %d on PC1", ordinal, ordinal+1)
	}
}

func TestClusterer_DeterministicForSeed(t *testing.T) {
	opts := Options{
		Name:     "grid",
		Features: []string{"f1", "f2"},
		K:        4,
		Restarts: 10,
		UsePCA:   true,
	}
	a, err := testClusterer(7).Run(groupedTable(t), opts)
	require.NoError(t, err)
	b, err := testClusterer(7).Run(groupedTable(t), opts)
	require.NoError(t, err)

	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.Centroids, b.Centroids)
	assert.Equal(t, a.Inertia, b.Inertia)
}

func TestClusterer_ListwiseDeletionSkipsRows(t *testing.T) {
	tbl := groupedTable(t)
	f1, _ := tbl.Numeric("f1")
	mutated := append([]float64(nil), f1...)
	mutated[0] = math.NaN()
	mutated[5] = math.NaN()
	tbl, err := tbl.WithNumeric("f1", mutated)
	require.NoError(t, err)

	run, err := testClusterer(5).Run(tbl, Options{
		Name:     "grid",
		Features: []string{"f1", "f2"},
		K:        4,
		Restarts: 5,
		UsePCA:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 38, run.RowsUsed)
	assert.Equal(t, 2, run.RowsSkipped)
	labels := run.Labels()
	_, has := labels[core.RecordID(100)]
	assert.False(t, has, "deleted rows receive no assignment at all")
}

func TestClusterer_EmptySubsetIsFatal(t *testing.T) {
	tbl := groupedTable(t)
	void := make([]float64, tbl.Rows())
	for i := range void {
		void[i] = math.NaN()
	}
	tbl, err := tbl.WithNumeric("void", void)
	require.NoError(t, err)

	_, err = testClusterer(5).Run(tbl, Options{
		Name:     "bad",
		Features: []string{"void"},
		K:        2,
		Restarts: 5,
	})
	require.Error(t, err)
	assert.True(t, core.IsClusteringError(err))
}

func TestClusterer_DegenerateKIsFatal(t *testing.T) {
	_, err := testClusterer(5).Run(groupedTable(t), Options{
		Name:     "huge",
		Features: []string{"f1", "f2"},
		K:        41,
		Restarts: 2,
	})
	require.Error(t, err)
	assert.True(t, core.IsClusteringError(err))
}

func TestClusterer_ElbowScanIsDiagnostic(t *testing.T) {
	run, err := testClusterer(5).Run(groupedTable(t), Options{
		Name:     "grid",
		Features: []string{"f1", "f2"},
		K:        4,
		Restarts: 5,
		UsePCA:   true,
		ElbowMin: 2,
		ElbowMax: 6,
	})
	require.NoError(t, err)

	require.Len(t, run.Elbow, 5)
	for i, point := range run.Elbow {
		assert.Equal(t, i+2, point.K)
	}
	// inertia can only fall as k grows on this data
	for i := 1; i < len(run.Elbow); i++ {
		assert.LessOrEqual(t, run.Elbow[i].Inertia, run.Elbow[i-1].Inertia+1e-9)
	}
	assert.Equal(t, 4, run.K, "the scan never overrides the chosen k")
}
