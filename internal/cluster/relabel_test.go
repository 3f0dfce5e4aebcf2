package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolscope/domain/cluster"
)

func relabelFixture() ([]cluster.Assignment, []float64) {
	// raw cluster 2 sits lowest on PC1, then 0, then 1
	assignments := []cluster.Assignment{
		{RecordID: 1, RawID: 0},
		{RecordID: 2, RawID: 0},
		{RecordID: 3, RawID: 1},
		{RecordID: 4, RawID: 1},
		{RecordID: 5, RawID: 2},
		{RecordID: 6, RawID: 2},
	}
	pc1 := []float64{0.0, 1.0, 5.0, 6.0, -4.0, -3.0}
	return assignments, pc1
}

func TestRelabel_OrdersByMeanPC1(t *testing.T) {
	assignments, pc1 := relabelFixture()
	mapping, err := Relabel(assignments, pc1)
	require.NoError(t, err)

	assert.Equal(t, map[int]int{2: 1, 0: 2, 1: 3}, mapping)
	for _, a := range assignments {
		assert.Equal(t, mapping[a.RawID], a.Ordinal)
	}
}

func TestRelabel_PermutationInvariant(t *testing.T) {
	assignments, pc1 := relabelFixture()
	_, err := Relabel(assignments, pc1)
	require.NoError(t, err)

	// permute the raw ids (0->7, 1->3, 2->9); the grouping is unchanged, so
	// per-record ordinals must be identical
	permuted, _ := relabelFixture()
	perm := map[int]int{0: 7, 1: 3, 2: 9}
	for i := range permuted {
		permuted[i].RawID = perm[permuted[i].RawID]
	}
	_, err = Relabel(permuted, pc1)
	require.NoError(t, err)

	for i := range assignments {
		assert.Equal(t, assignments[i].Ordinal, permuted[i].Ordinal, "record %d", assignments[i].RecordID)
	}
}

func TestRelabel_Deterministic(t *testing.T) {
	a, pc1 := relabelFixture()
	b, _ := relabelFixture()
	_, err := Relabel(a, pc1)
	require.NoError(t, err)
	_, err = Relabel(b, pc1)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRelabel_TiesBreakByRawID(t *testing.T) {
	assignments := []cluster.Assignment{
		{RecordID: 1, RawID: 5},
		{RecordID: 2, RawID: 1},
	}
	// identical means; lower raw id wins label 1
	mapping, err := Relabel(assignments, []float64{2.0, 2.0})
	require.NoError(t, err)
	assert.Equal(t, 1, mapping[1])
	assert.Equal(t, 2, mapping[5])
}

func TestRelabel_LengthMismatch(t *testing.T) {
	assignments, _ := relabelFixture()
	_, err := Relabel(assignments, []float64{1, 2})
	assert.Error(t, err)
}
