package cluster

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"schoolscope/domain/cluster"
)

// DetectTransitions flags boundary cases in a PCA-space clustering: records
// whose Euclidean distance to their own cluster's centroid strictly exceeds
// the given percentile of all such distances. The threshold is global across
// clusters and data-dependent, so a different sample moves the cut point.
func DetectTransitions(run *cluster.Run, percentile float64) (*cluster.TransitionReport, error) {
	if run.Space != cluster.SpacePCA {
		return nil, fmt.Errorf("transition detection needs a PCA-space run, got %s", run.Space)
	}
	if len(run.Projection) != len(run.Assignments) {
		return nil, fmt.Errorf("run %s has %d projected points for %d assignments",
			run.Name, len(run.Projection), len(run.Assignments))
	}

	distances := make([]float64, len(run.Assignments))
	for i, a := range run.Assignments {
		centroid := run.Centroids[a.RawID]
		dx := run.Projection[i].X - centroid[0]
		dy := run.Projection[i].Y - centroid[1]
		distances[i] = math.Sqrt(dx*dx + dy*dy)
	}

	threshold, err := stats.Percentile(distances, percentile*100)
	if err != nil {
		return nil, fmt.Errorf("percentile threshold: %w", err)
	}

	report := &cluster.TransitionReport{
		RunName:    run.Name,
		Percentile: percentile,
		Threshold:  threshold,
		Flags:      make([]cluster.TransitionFlag, len(distances)),
	}
	for i, d := range distances {
		report.Flags[i] = cluster.TransitionFlag{
			RecordID: run.Assignments[i].RecordID,
			Distance: d,
			Flagged:  d > threshold,
		}
	}
	return report, nil
}
