package cluster

import (
	"math"
	"math/rand"
)

const maxKMeansIterations = 300

// kmeansResult is one converged k-means solution
type kmeansResult struct {
	centroids   [][]float64
	assignments []int
	inertia     float64
}

// runKMeans runs one seeded k-means++ initialization followed by Lloyd
// iterations until assignments stop changing.
func runKMeans(X [][]float64, k int, rnd *rand.Rand) kmeansResult {
	n, d := len(X), len(X[0])
	centroids := seedCentroids(X, k, rnd)
	assign := make([]int, n)

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, x := range X {
			best, bestDist := 0, math.MaxFloat64
			for c, centroid := range centroids {
				if dist := euclidSquared(x, centroid); dist < bestDist {
					best, bestDist = c, dist
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, d)
		}
		for i, x := range X {
			counts[assign[i]]++
			for j, v := range x {
				sums[assign[i]][j] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue // empty cluster keeps its centroid
			}
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	inertia := 0.0
	for i, x := range X {
		inertia += euclidSquared(x, centroids[assign[i]])
	}
	return kmeansResult{centroids: centroids, assignments: assign, inertia: inertia}
}

// bestOfRestarts runs several initializations and keeps the lowest-inertia
// solution; equal inertia keeps the earliest restart.
func bestOfRestarts(X [][]float64, k, restarts int, stream func(restart int) *rand.Rand) kmeansResult {
	best := runKMeans(X, k, stream(0))
	for r := 1; r < restarts; r++ {
		if candidate := runKMeans(X, k, stream(r)); candidate.inertia < best.inertia {
			best = candidate
		}
	}
	return best
}

// seedCentroids picks k starting centroids with k-means++ weighting: the
// first uniformly, the rest proportional to squared distance from the
// nearest centroid chosen so far.
func seedCentroids(X [][]float64, k int, rnd *rand.Rand) [][]float64 {
	n := len(X)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), X[rnd.Intn(n)]...))

	for len(centroids) < k {
		weights := make([]float64, n)
		total := 0.0
		for i, x := range X {
			nearest := math.MaxFloat64
			for _, c := range centroids {
				if dist := euclidSquared(x, c); dist < nearest {
					nearest = dist
				}
			}
			weights[i] = nearest
			total += nearest
		}

		if total == 0 {
			// all remaining points coincide with a centroid
			centroids = append(centroids, append([]float64(nil), X[rnd.Intn(n)]...))
			continue
		}
		target := rnd.Float64() * total
		cumulative := 0.0
		picked := n - 1
		for i, w := range weights {
			cumulative += w
			if cumulative >= target {
				picked = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), X[picked]...))
	}
	return centroids
}

func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
