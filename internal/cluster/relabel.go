package cluster

import (
	"fmt"
	"sort"

	"schoolscope/domain/cluster"
)

// Relabel imposes a canonical order on arbitrary k-means ids: clusters are
// ranked by their mean position along the first principal component and
// assigned ordinal labels 1..k in ascending order, so label 1 always names
// the cluster lowest on PC1. Ties in the mean break by raw cluster id
// ascending rather than relying on sort stability. pc1 is parallel to
// assignments.
func Relabel(assignments []cluster.Assignment, pc1 []float64) (map[int]int, error) {
	if len(assignments) != len(pc1) {
		return nil, fmt.Errorf("relabel: %d assignments but %d component scores", len(assignments), len(pc1))
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i, a := range assignments {
		sums[a.RawID] += pc1[i]
		counts[a.RawID]++
	}

	type clusterMean struct {
		rawID int
		mean  float64
	}
	means := make([]clusterMean, 0, len(sums))
	for rawID, sum := range sums {
		means = append(means, clusterMean{rawID: rawID, mean: sum / float64(counts[rawID])})
	}
	sort.Slice(means, func(i, j int) bool {
		if means[i].mean != means[j].mean {
			return means[i].mean < means[j].mean
		}
		return means[i].rawID < means[j].rawID
	})

	mapping := make(map[int]int, len(means))
	for ordinal, m := range means {
		mapping[m.rawID] = ordinal + 1
	}
	for i := range assignments {
		assignments[i].Ordinal = mapping[assignments[i].RawID]
	}
	return mapping, nil
}
