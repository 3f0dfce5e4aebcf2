package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// projectPCA fits a principal-component decomposition on the standardized
// matrix and returns the scores on the first two components. A single-feature
// matrix projects onto one component with a zero second coordinate.
func projectPCA(X [][]float64) ([][]float64, error) {
	n, d := len(X), len(X[0])

	dense := mat.NewDense(n, d, nil)
	for i, row := range X {
		dense.SetRow(i, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(dense, nil); !ok {
		return nil, fmt.Errorf("principal component decomposition failed for %dx%d matrix", n, d)
	}
	var vectors mat.Dense
	pc.VectorsTo(&vectors)

	components := 2
	if d < components {
		components = d
	}
	var scores mat.Dense
	scores.Mul(dense, vectors.Slice(0, d, 0, components))

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, 2)
		out[i][0] = scores.At(i, 0)
		if components > 1 {
			out[i][1] = scores.At(i, 1)
		}
	}
	return out, nil
}
