package clean

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// polyreg is a multinomial softmax regression used to impute categorical
// columns conditioned on the other designated columns. Weights start at zero
// and train by batch gradient descent, so a fit is deterministic for a given
// design matrix; only the draw from the fitted class probabilities consumes
// randomness.
type polyreg struct {
	levels  []string
	weights *mat.Dense // classes x features
	epochs  int
	lr      float64
}

func newPolyreg(levels []string, features int) *polyreg {
	return &polyreg{
		levels:  levels,
		weights: mat.NewDense(len(levels), features, nil),
		epochs:  200,
		lr:      0.1,
	}
}

// fit trains on the rows in train, whose labels index into levels
func (p *polyreg) fit(X *mat.Dense, labels []int, train []int) {
	classes, features := p.weights.Dims()
	n := float64(len(train))

	for epoch := 0; epoch < p.epochs; epoch++ {
		grad := mat.NewDense(classes, features, nil)
		for _, r := range train {
			row := mat.Row(nil, r, X)
			probs := p.probsFor(row)
			for k := 0; k < classes; k++ {
				indicator := 0.0
				if labels[r] == k {
					indicator = 1.0
				}
				coeff := probs[k] - indicator
				for j := 0; j < features; j++ {
					grad.Set(k, j, grad.At(k, j)+coeff*row[j])
				}
			}
		}
		for k := 0; k < classes; k++ {
			for j := 0; j < features; j++ {
				p.weights.Set(k, j, p.weights.At(k, j)-p.lr*grad.At(k, j)/n)
			}
		}
	}
}

// probsFor returns softmax class probabilities for one feature row
func (p *polyreg) probsFor(row []float64) []float64 {
	classes, features := p.weights.Dims()
	scores := make([]float64, classes)
	maxScore := math.Inf(-1)
	for k := 0; k < classes; k++ {
		s := 0.0
		for j := 0; j < features; j++ {
			s += p.weights.At(k, j) * row[j]
		}
		scores[k] = s
		if s > maxScore {
			maxScore = s
		}
	}
	// shift by the max score before exponentiating
	total := 0.0
	for k := range scores {
		scores[k] = math.Exp(scores[k] - maxScore)
		total += scores[k]
	}
	for k := range scores {
		scores[k] /= total
	}
	return scores
}

// draw samples a level from the fitted probabilities for row r
func (p *polyreg) draw(X *mat.Dense, r int, rnd *rand.Rand) string {
	probs := p.probsFor(mat.Row(nil, r, X))
	u := rnd.Float64()
	cum := 0.0
	for k, pr := range probs {
		cum += pr
		if u < cum {
			return p.levels[k]
		}
	}
	return p.levels[len(p.levels)-1]
}
