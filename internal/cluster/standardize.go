// Package cluster implements the standardized k-means stage and its
// derived steps: PCA projection, elbow scanning, ordinal relabeling and
// transition-case detection.
package cluster

import "gonum.org/v1/gonum/stat"

// standardize z-scores each feature column in place-of (returns a new
// matrix). Moments come from the given rows only, which is always the
// clustering subset after listwise deletion.
func standardize(X [][]float64) [][]float64 {
	if len(X) == 0 {
		return nil
	}
	n, d := len(X), len(X[0])

	col := make([]float64, n)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, d)
	}
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			col[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		for i := 0; i < n; i++ {
			if std == 0 {
				out[i][j] = 0 // constant feature carries no signal
				continue
			}
			out[i][j] = (X[i][j] - mean) / std
		}
	}
	return out
}
