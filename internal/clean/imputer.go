package clean

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"schoolscope/domain/clean"
	"schoolscope/domain/core"
	"schoolscope/domain/table"
	"schoolscope/internal"
	"schoolscope/internal/rng"
)

// ImputerOptions designates the columns to fill and the chain settings
type ImputerOptions struct {
	NumericColumns     []string
	CategoricalColumns []string
	Chains             int // independent completions; chain 0 is the output
	Sweeps             int // chained-equation passes per completion
	Donors             int // nearest-prediction donor pool for numeric targets
}

// Imputer fills the designated columns by chained equations: numeric targets
// by predictive-mean matching, categorical targets by multinomial regression
// conditioned on the other designated columns. Several complete chains run
// for dispersion diagnostics, but only the first completed dataset becomes
// the output; chains are never pooled.
type Imputer struct {
	opts ImputerOptions
	src  *rng.Source
	log  *internal.Logger
}

// NewImputer creates an imputer drawing randomness from the given source
func NewImputer(opts ImputerOptions, src *rng.Source, log *internal.Logger) *Imputer {
	return &Imputer{opts: opts, src: src, log: log.Stage("imputer")}
}

// chain is one working completion of the designated columns
type chain struct {
	numeric     map[string][]float64
	categorical map[string][]string
}

// Run fills every designated column and reports what was filled. Columns not
// designated are untouched.
func (im *Imputer) Run(t *table.Table) (*table.Table, *clean.ImputationReport, error) {
	missNum, missCat, err := im.validate(t)
	if err != nil {
		return nil, nil, err
	}

	report := &clean.ImputationReport{
		Chains:       im.opts.Chains,
		Sweeps:       im.opts.Sweeps,
		Seed:         im.src.Seed(),
		FilledCounts: make(map[string]int),
	}
	for name, mask := range missNum {
		report.FilledCounts[name] = countTrue(mask)
	}
	for name, mask := range missCat {
		report.FilledCounts[name] = countTrue(mask)
	}

	chains := make([]*chain, im.opts.Chains)
	for c := 0; c < im.opts.Chains; c++ {
		rnd := im.src.Stream(fmt.Sprintf("impute/chain%d", c))
		chains[c], err = im.runChain(t, missNum, missCat, rnd)
		if err != nil {
			return nil, nil, err
		}
	}

	// Between-chain dispersion of the imputed numeric cells, as a diagnostic
	// for how much the completions disagree.
	for _, name := range im.opts.NumericColumns {
		mask := missNum[name]
		if countTrue(mask) == 0 || im.opts.Chains < 2 {
			continue
		}
		means := make([]float64, im.opts.Chains)
		for c, ch := range chains {
			sum, n := 0.0, 0
			for i, miss := range mask {
				if miss {
					sum += ch.numeric[name][i]
					n++
				}
			}
			means[c] = sum / float64(n)
		}
		report.ChainSpread = append(report.ChainSpread, clean.ChainVariance{
			Column:   name,
			Variance: stat.Variance(means, nil),
		})
	}

	// Only the first completed dataset is kept.
	out := t
	first := chains[0]
	for _, name := range im.opts.NumericColumns {
		if out, err = out.WithNumeric(name, first.numeric[name]); err != nil {
			return nil, nil, err
		}
	}
	for _, name := range im.opts.CategoricalColumns {
		if out, err = out.WithCategorical(name, first.categorical[name]); err != nil {
			return nil, nil, err
		}
	}

	im.log.Info("filled %d columns over %d chains of %d sweeps",
		len(report.FilledCounts), im.opts.Chains, im.opts.Sweeps)
	return out, report, nil
}

// validate checks feasibility and returns the original missingness masks
func (im *Imputer) validate(t *table.Table) (map[string][]bool, map[string][]bool, error) {
	missNum := make(map[string][]bool)
	missCat := make(map[string][]bool)

	for _, name := range im.opts.NumericColumns {
		col, err := t.Column(name)
		if err != nil {
			return nil, nil, err
		}
		if col.Kind != table.KindNumeric {
			return nil, nil, fmt.Errorf("%w: %s designated numeric but is %s", core.ErrColumnType, name, col.Kind)
		}
		if len(col.Observed()) == 0 {
			return nil, nil, core.NewImputeInfeasibleError(name, "no observed values")
		}
		missNum[name] = missingMask(col)
	}
	for _, name := range im.opts.CategoricalColumns {
		col, err := t.Column(name)
		if err != nil {
			return nil, nil, err
		}
		if col.Kind != table.KindCategorical {
			return nil, nil, fmt.Errorf("%w: %s designated categorical but is %s", core.ErrColumnType, name, col.Kind)
		}
		if len(col.Levels()) < 2 {
			return nil, nil, core.NewImputeInfeasibleError(name, "fewer than two observed levels")
		}
		missCat[name] = missingMask(col)
	}
	return missNum, missCat, nil
}

// runChain produces one completion: initialize missing cells with random
// observed draws, then sweep the chained equations in declared column order.
func (im *Imputer) runChain(t *table.Table, missNum, missCat map[string][]bool, rnd *rand.Rand) (*chain, error) {
	ch := &chain{
		numeric:     make(map[string][]float64),
		categorical: make(map[string][]string),
	}

	for _, name := range im.opts.NumericColumns {
		col, _ := t.Column(name)
		vals := append([]float64(nil), col.Floats()...)
		obs := col.Observed()
		for i, miss := range missNum[name] {
			if miss {
				vals[i] = obs[rnd.Intn(len(obs))]
			}
		}
		ch.numeric[name] = vals
	}
	for _, name := range im.opts.CategoricalColumns {
		col, _ := t.Column(name)
		vals := append([]string(nil), col.Strings()...)
		var obs []string
		for _, v := range col.Strings() {
			if v != "" {
				obs = append(obs, v)
			}
		}
		for i, miss := range missCat[name] {
			if miss {
				vals[i] = obs[rnd.Intn(len(obs))]
			}
		}
		ch.categorical[name] = vals
	}

	for sweep := 0; sweep < im.opts.Sweeps; sweep++ {
		for _, name := range im.opts.NumericColumns {
			if countTrue(missNum[name]) == 0 {
				continue
			}
			im.sweepNumeric(ch, name, missNum[name], rnd)
		}
		for _, name := range im.opts.CategoricalColumns {
			if countTrue(missCat[name]) == 0 {
				continue
			}
			im.sweepCategorical(ch, name, missCat[name], rnd)
		}
	}
	return ch, nil
}

// sweepNumeric refreshes one numeric target via OLS + predictive-mean matching
func (im *Imputer) sweepNumeric(ch *chain, target string, miss []bool, rnd *rand.Rand) {
	X := im.designMatrix(ch, target, len(miss))
	y := ch.numeric[target]

	var observedRows []int
	for i, m := range miss {
		if !m {
			observedRows = append(observedRows, i)
		}
	}
	pred := linearPredict(X, y, observedRows)
	for i, m := range miss {
		if m {
			y[i] = matchDonor(pred, y, observedRows, i, im.opts.Donors, rnd)
		}
	}
}

// sweepCategorical refreshes one categorical target via multinomial draws
func (im *Imputer) sweepCategorical(ch *chain, target string, miss []bool, rnd *rand.Rand) {
	X := im.designMatrix(ch, target, len(miss))

	levels := distinctObserved(ch.categorical[target], miss)
	levelIndex := make(map[string]int, len(levels))
	for k, lv := range levels {
		levelIndex[lv] = k
	}
	labels := make([]int, len(miss))
	var observedRows []int
	for i, m := range miss {
		if !m {
			labels[i] = levelIndex[ch.categorical[target][i]]
			observedRows = append(observedRows, i)
		}
	}

	_, features := X.Dims()
	model := newPolyreg(levels, features)
	model.fit(X, labels, observedRows)
	for i, m := range miss {
		if m {
			ch.categorical[target][i] = model.draw(X, i, rnd)
		}
	}
}

// designMatrix builds the predictor matrix for one target: every other
// designated column at its current working values, categoricals one-hot
// encoded with the first level as baseline, plus an intercept.
func (im *Imputer) designMatrix(ch *chain, target string, rows int) *mat.Dense {
	var cols [][]float64

	intercept := make([]float64, rows)
	for i := range intercept {
		intercept[i] = 1
	}
	cols = append(cols, intercept)

	for _, name := range im.opts.NumericColumns {
		if name == target {
			continue
		}
		cols = append(cols, ch.numeric[name])
	}
	for _, name := range im.opts.CategoricalColumns {
		if name == target {
			continue
		}
		vals := ch.categorical[name]
		levels := distinctObserved(vals, nil)
		for _, lv := range levels[1:] { // first level is the baseline
			ind := make([]float64, rows)
			for i, v := range vals {
				if v == lv {
					ind[i] = 1
				}
			}
			cols = append(cols, ind)
		}
	}

	X := mat.NewDense(rows, len(cols), nil)
	for j, col := range cols {
		X.SetCol(j, col)
	}
	return X
}

// distinctObserved lists distinct values in first-seen order, restricted to
// originally-observed rows when a mask is given
func distinctObserved(vals []string, miss []bool) []string {
	seen := make(map[string]bool)
	var out []string
	for i, v := range vals {
		if v == "" || (miss != nil && miss[i]) {
			continue
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func missingMask(col *table.Column) []bool {
	mask := make([]bool, col.Len())
	for i := range mask {
		mask[i] = col.IsMissing(i)
	}
	return mask
}

func countTrue(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}
