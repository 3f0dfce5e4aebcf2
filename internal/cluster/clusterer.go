package cluster

import (
	"fmt"
	"math/rand"

	"schoolscope/domain/cluster"
	"schoolscope/domain/core"
	"schoolscope/domain/table"
	"schoolscope/internal"
	"schoolscope/internal/rng"
)

// Options configures one independent clustering run. Runs with different
// feature subsets produce unrelated labelings that never share numbering.
type Options struct {
	Name     string
	Features []string
	K        int
	Restarts int
	// UsePCA clusters in the 2-D principal-component space instead of the
	// full standardized space. Transition detection requires it.
	UsePCA bool
	// ElbowMin/ElbowMax bound the diagnostic inertia scan; ElbowMin == 0
	// disables it.
	ElbowMin int
	ElbowMax int
}

// Clusterer runs standardized k-means over a feature subset with listwise
// deletion: rows missing any chosen feature are excluded from clustering and
// receive no assignment at all, while remaining in the full table.
type Clusterer struct {
	src *rng.Source
	log *internal.Logger
}

// NewClusterer creates a clusterer drawing randomness from the given source
func NewClusterer(src *rng.Source, log *internal.Logger) *Clusterer {
	return &Clusterer{src: src, log: log.Stage("clusterer")}
}

// Run executes one clustering run and relabels the result ordinally
func (c *Clusterer) Run(t *table.Table, opts Options) (*cluster.Run, error) {
	mask, err := t.Complete(opts.Features)
	if err != nil {
		return nil, err
	}
	subset := t.Filter(mask)
	if subset.Rows() == 0 {
		return nil, core.NewEmptySubsetError(opts.Features, t.Rows())
	}
	if opts.K > subset.Rows() {
		return nil, core.NewDegenerateClusteringError(opts.K, subset.Rows())
	}

	X, err := featureMatrix(subset, opts.Features)
	if err != nil {
		return nil, err
	}
	Z := standardize(X)

	// The projection always exists: relabeling ranks clusters along the
	// first component even when clustering runs in standardized space.
	projection, err := projectPCA(Z)
	if err != nil {
		return nil, err
	}

	data := Z
	space := cluster.SpaceStandardized
	if opts.UsePCA {
		data = projection
		space = cluster.SpacePCA
	}

	run := &cluster.Run{
		Name:        opts.Name,
		Features:    opts.Features,
		K:           opts.K,
		Seed:        c.src.Seed(),
		Space:       space,
		RowsUsed:    subset.Rows(),
		RowsSkipped: t.Rows() - subset.Rows(),
	}

	if opts.ElbowMin > 0 {
		run.Elbow, err = elbowScan(data, opts.ElbowMin, opts.ElbowMax, opts.Restarts, c.src, opts.Name)
		if err != nil {
			return nil, err
		}
	}

	stream := func(restart int) *rand.Rand {
		return c.src.Stream(fmt.Sprintf("kmeans/%s/restart%d", opts.Name, restart))
	}
	best := bestOfRestarts(data, opts.K, opts.Restarts, stream)

	run.Inertia = best.inertia
	run.Centroids = best.centroids
	run.Assignments = make([]cluster.Assignment, subset.Rows())
	pc1 := make([]float64, subset.Rows())
	for i := range run.Assignments {
		run.Assignments[i] = cluster.Assignment{
			RecordID: subset.ID(i),
			RawID:    best.assignments[i],
		}
		pc1[i] = projection[i][0]
	}
	run.Projection = make([]cluster.Point, subset.Rows())
	for i, p := range projection {
		run.Projection[i] = cluster.Point{X: p[0], Y: p[1]}
	}

	if _, err := Relabel(run.Assignments, pc1); err != nil {
		return nil, err
	}

	c.log.Info("run %s: clustered %d rows into k=%d (%s space), skipped %d, inertia %.4f",
		opts.Name, run.RowsUsed, opts.K, space, run.RowsSkipped, run.Inertia)
	return run, nil
}

// featureMatrix extracts the numeric feature columns as row vectors
func featureMatrix(t *table.Table, features []string) ([][]float64, error) {
	cols := make([][]float64, len(features))
	for j, name := range features {
		vals, err := t.Numeric(name)
		if err != nil {
			return nil, err
		}
		cols[j] = vals
	}
	X := make([][]float64, t.Rows())
	for i := range X {
		X[i] = make([]float64, len(features))
		for j := range features {
			X[i][j] = cols[j][i]
		}
	}
	return X, nil
}
