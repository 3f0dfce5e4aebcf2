package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolscope/domain/cluster"
	"schoolscope/domain/core"
)

// transitionRun builds a PCA-space run with one centroid at the origin and
// twenty points at distances 1..20 along the first axis, so the 85th
// percentile of the distances is exactly (17+18)/2 = 17.5.
func transitionRun() *cluster.Run {
	run := &cluster.Run{
		Name:      "synthetic",
		Space:     cluster.SpacePCA,
		Centroids: [][]float64{{0, 0}},
	}
	for i := 1; i <= 20; i++ {
		run.Assignments = append(run.Assignments, cluster.Assignment{
			RecordID: core.RecordID(i),
			RawID:    0,
		})
		run.Projection = append(run.Projection, cluster.Point{X: float64(i), Y: 0})
	}
	return run
}

func TestDetectTransitions_ExactThreshold(t *testing.T) {
	report, err := DetectTransitions(transitionRun(), 0.85)
	require.NoError(t, err)

	assert.Equal(t, 17.5, report.Threshold)
	flagged := report.Flagged()
	assert.Equal(t, []core.RecordID{18, 19, 20}, flagged, "strictly greater than the threshold")

	// 17.5 is exceeded strictly; distance 17 stays unflagged
	for _, f := range report.Flags {
		if f.RecordID == 17 {
			assert.False(t, f.Flagged)
		}
	}
}

func TestDetectTransitions_RequiresPCASpace(t *testing.T) {
	run := transitionRun()
	run.Space = cluster.SpaceStandardized
	_, err := DetectTransitions(run, 0.85)
	assert.Error(t, err)
}

func TestDetectTransitions_DistancesAreEuclidean(t *testing.T) {
	run := &cluster.Run{
		Name:        "tiny",
		Space:       cluster.SpacePCA,
		Centroids:   [][]float64{{1, 1}},
		Assignments: []cluster.Assignment{{RecordID: 1, RawID: 0}, {RecordID: 2, RawID: 0}},
		Projection:  []cluster.Point{{X: 4, Y: 5}, {X: 1, Y: 1}},
	}
	report, err := DetectTransitions(run, 0.85)
	require.NoError(t, err)
	assert.Equal(t, 5.0, report.Flags[0].Distance) // 3-4-5 triangle
	assert.Equal(t, 0.0, report.Flags[1].Distance)
}
