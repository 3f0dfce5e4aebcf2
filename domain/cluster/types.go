// Package cluster holds the derived artifacts of a clustering run: raw
// assignments, ordinal labelings and transition flags. These are recomputed
// every run from the current seed and never written back to the record store.
package cluster

import "schoolscope/domain/core"

// Space names the coordinate space a clustering ran in
type Space string

const (
	SpaceStandardized Space = "standardized"
	SpacePCA          Space = "pca"
)

// Point is a 2-D projection coordinate for one clustered record
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Assignment links a record to its raw k-means cluster id. Raw ids are
// arbitrary; only the relabeled ordinal has meaning across runs.
type Assignment struct {
	RecordID core.RecordID `json:"record_id"`
	RawID    int           `json:"raw_id"`
	Ordinal  int           `json:"ordinal"` // 1..k after relabeling, 0 before
}

// ElbowPoint records total within-cluster sum of squares for one candidate k
type ElbowPoint struct {
	K       int     `json:"k"`
	Inertia float64 `json:"inertia"`
}

// Run is the full artifact set of one independent clustering run. Runs with
// different feature subsets never share cluster numbering.
type Run struct {
	RunID       core.RunID   `json:"run_id"`
	Name        string       `json:"name"`
	Features    []string     `json:"features"`
	K           int          `json:"k"`
	Seed        int64        `json:"seed"`
	Space       Space        `json:"space"`
	Inertia     float64      `json:"inertia"`
	Centroids   [][]float64  `json:"centroids"` // in Space coordinates
	Assignments []Assignment `json:"assignments"`
	Projection  []Point      `json:"projection,omitempty"` // parallel to Assignments when Space == SpacePCA
	Elbow       []ElbowPoint `json:"elbow,omitempty"`
	RowsUsed    int          `json:"rows_used"`
	RowsSkipped int          `json:"rows_skipped"` // removed by listwise deletion, never assigned
}

// Labels returns the record-id to ordinal-label mapping
func (r *Run) Labels() map[core.RecordID]int {
	out := make(map[core.RecordID]int, len(r.Assignments))
	for _, a := range r.Assignments {
		out[a.RecordID] = a.Ordinal
	}
	return out
}

// TransitionFlag marks a record whose centroid distance exceeds the
// run-level percentile threshold
type TransitionFlag struct {
	RecordID core.RecordID `json:"record_id"`
	Distance float64       `json:"distance"`
	Flagged  bool          `json:"flagged"`
}

// TransitionReport is the boundary-case artifact of one PCA clustering run
type TransitionReport struct {
	RunName    string           `json:"run_name"`
	Percentile float64          `json:"percentile"`
	Threshold  float64          `json:"threshold"`
	Flags      []TransitionFlag `json:"flags"`
}

// Flagged returns only the records marked as transition cases
func (r *TransitionReport) Flagged() []core.RecordID {
	var out []core.RecordID
	for _, f := range r.Flags {
		if f.Flagged {
			out = append(out, f.RecordID)
		}
	}
	return out
}
