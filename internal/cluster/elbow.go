package cluster

import (
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"schoolscope/domain/cluster"
	"schoolscope/internal/rng"
)

// elbowScan records total within-cluster sum of squares for every candidate
// k in [min, max]. The candidates are independent, so they fan out on an
// errgroup; each k draws its own named streams and the output is ordered by
// k, which keeps the scan deterministic for a given seed. The scan is
// diagnostic output only; it never selects k.
func elbowScan(X [][]float64, min, max, restarts int, src *rng.Source, runName string) ([]cluster.ElbowPoint, error) {
	if max > len(X) {
		max = len(X)
	}
	if min < 1 || min > max {
		return nil, nil
	}

	points := make([]cluster.ElbowPoint, max-min+1)
	var g errgroup.Group
	for k := min; k <= max; k++ {
		k := k
		g.Go(func() error {
			stream := func(restart int) *rand.Rand {
				return src.Stream(fmt.Sprintf("elbow/%s/k%d/restart%d", runName, k, restart))
			}
			best := bestOfRestarts(X, k, restarts, stream)
			points[k-min] = cluster.ElbowPoint{K: k, Inertia: best.inertia}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
