package clean

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// linearPredict fits ordinary least squares of y on X over the training rows
// and returns fitted values for every row. X must already carry an intercept
// column. A rank-deficient fit falls back to the training mean, which keeps a
// sweep going when a predictor is constant.
func linearPredict(X *mat.Dense, y []float64, train []int) []float64 {
	rows, cols := X.Dims()

	Xt := mat.NewDense(len(train), cols, nil)
	yt := mat.NewVecDense(len(train), nil)
	for i, r := range train {
		Xt.SetRow(i, mat.Row(nil, r, X))
		yt.SetVec(i, y[r])
	}

	var qr mat.QR
	qr.Factorize(Xt)
	beta := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(beta, false, yt); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			mean := 0.0
			for _, r := range train {
				mean += y[r]
			}
			mean /= float64(len(train))
			out := make([]float64, rows)
			for i := range out {
				out[i] = mean
			}
			return out
		}
		// ill-conditioned but solvable; keep the estimate
	}

	pred := make([]float64, rows)
	fitted := mat.NewVecDense(rows, nil)
	fitted.MulVec(X, beta)
	for i := range pred {
		pred[i] = fitted.AtVec(i)
	}
	return pred
}

// matchDonor implements predictive-mean matching: among the observed rows,
// find the donors whose fitted value is nearest to the target row's fitted
// value and copy one of their observed values at random. Drawing an observed
// value, rather than the fitted one, preserves the empirical distribution
// instead of shrinking toward the mean.
func matchDonor(pred []float64, y []float64, observed []int, target int, donors int, rnd *rand.Rand) float64 {
	type candidate struct {
		row  int
		dist float64
	}
	cands := make([]candidate, 0, len(observed))
	for _, r := range observed {
		d := pred[r] - pred[target]
		if d < 0 {
			d = -d
		}
		cands = append(cands, candidate{row: r, dist: d})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].row < cands[j].row
	})
	if donors > len(cands) {
		donors = len(cands)
	}
	pick := cands[rnd.Intn(donors)]
	return y[pick.row]
}
