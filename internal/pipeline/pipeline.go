// Package pipeline wires the data-quality and clustering stages into one
// deterministic batch run. Each stage consumes the previous stage's table and
// returns a new one; the table is threaded explicitly and row identity
// travels with it, so no stage depends on positional alignment.
package pipeline

import (
	"context"

	"schoolscope/domain/clean"
	"schoolscope/domain/cluster"
	"schoolscope/domain/core"
	"schoolscope/domain/schools"
	"schoolscope/domain/table"
	"schoolscope/internal"
	cleanstage "schoolscope/internal/clean"
	clusterstage "schoolscope/internal/cluster"
	"schoolscope/internal/config"
	"schoolscope/internal/rng"
)

// Run names for the two default independent clusterings
const (
	RunGeneral     = "general"
	RunDeprivation = "deprivation"
)

// Result bundles every artifact of one pipeline run for the reporting
// collaborators: the cleaned table, the diagnostic reports, and one labeling
// plus transition report per clustering run.
type Result struct {
	RunID       core.RunID                  `json:"run_id"`
	StartedAt   core.Timestamp              `json:"started_at"`
	Cleaned     *table.Table                `json:"-"`
	Profile     *clean.ProfileReport        `json:"profile"`
	Imputation  *clean.ImputationReport     `json:"imputation"`
	Repair      *clean.RepairReport         `json:"repair"`
	Outliers    *clean.OutlierReport        `json:"outliers"`
	Clusterings []*cluster.Run              `json:"clusterings"`
	Transitions []*cluster.TransitionReport `json:"transitions"`
}

// Clustering returns the named run, or nil
func (r *Result) Clustering(name string) *cluster.Run {
	for _, run := range r.Clusterings {
		if run.Name == name {
			return run
		}
	}
	return nil
}

// Pipeline executes Profiler -> Imputer -> Repairer -> (Outlier Reporter) ->
// Clusterer -> Relabeler -> Transition Detector over one input table.
type Pipeline struct {
	cfg *config.Config
	log *internal.Logger
}

// New creates a pipeline for the given configuration
func New(cfg *config.Config, log *internal.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log}
}

// Run executes every stage. The same seed and input always produce
// bit-identical imputed values, assignments, labels and flags.
func (p *Pipeline) Run(ctx context.Context, raw *table.Table) (*Result, error) {
	if err := p.checkSchema(raw); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     core.NewRunID(),
		StartedAt: core.Now(),
	}
	src := rng.NewSource(p.cfg.Seed)

	profiler := cleanstage.NewProfiler(cleanstage.ProfilerOptions{
		DropThreshold:     p.cfg.Profile.DropThreshold,
		KeyColumns:        p.cfg.Profile.KeyColumns,
		ProtectKeyColumns: p.cfg.Profile.ProtectKeyColumns,
	}, p.log)
	t, profile, err := profiler.Run(raw)
	if err != nil {
		return nil, err
	}
	result.Profile = profile

	imputer := cleanstage.NewImputer(cleanstage.ImputerOptions{
		NumericColumns:     retained(t, p.cfg.Impute.NumericColumns),
		CategoricalColumns: retained(t, p.cfg.Impute.CategoricalColumns),
		Chains:             p.cfg.Impute.Chains,
		Sweeps:             p.cfg.Impute.Sweeps,
		Donors:             p.cfg.Impute.Donors,
	}, src, p.log)
	t, imputation, err := imputer.Run(t)
	if err != nil {
		return nil, err
	}
	result.Imputation = imputation

	repairer := cleanstage.NewRepairer(p.log)
	t, repair, err := repairer.Run(t)
	if err != nil {
		return nil, err
	}
	result.Repair = repair
	result.Cleaned = t

	// Side branch: diagnostic only, reads the cleaned table.
	reporter := cleanstage.NewOutlierReporter(schools.IdentityColumns(), p.log)
	outliers, err := reporter.Run(t)
	if err != nil {
		return nil, err
	}
	outliers.RunID = result.RunID
	result.Outliers = outliers

	clusterer := clusterstage.NewClusterer(src, p.log)
	for _, opts := range p.clusteringPlan(t) {
		run, err := clusterer.Run(t, opts)
		if err != nil {
			return nil, err
		}
		run.RunID = result.RunID
		result.Clusterings = append(result.Clusterings, run)

		if run.Space == cluster.SpacePCA {
			transitions, err := clusterstage.DetectTransitions(run, p.cfg.Cluster.TransitionPercentile)
			if err != nil {
				return nil, err
			}
			result.Transitions = append(result.Transitions, transitions)
		}
	}

	p.log.Info("run %s complete: %d rows cleaned, %d clusterings", result.RunID, t.Rows(), len(result.Clusterings))
	return result, nil
}

// clusteringPlan builds the configured independent runs. A run with no
// feature list gets every numeric non-identity column; explicit lists are
// filtered to the columns that survived profiling. Every run executes in PCA
// space so transition flags exist for each.
func (p *Pipeline) clusteringPlan(t *table.Table) []clusterstage.Options {
	identity := make(map[string]bool)
	for _, name := range schools.IdentityColumns() {
		identity[name] = true
	}
	var general []string
	for _, name := range t.ColumnNames() {
		col, err := t.Column(name)
		if err != nil || col.Kind != table.KindNumeric || identity[name] {
			continue
		}
		general = append(general, name)
	}

	shared := clusterstage.Options{
		K:        p.cfg.Cluster.K,
		Restarts: p.cfg.Cluster.Restarts,
		UsePCA:   true,
		ElbowMin: p.cfg.Cluster.ElbowMin,
		ElbowMax: p.cfg.Cluster.ElbowMax,
	}

	plan := make([]clusterstage.Options, 0, len(p.cfg.Cluster.Runs))
	for _, run := range p.cfg.Cluster.Runs {
		opts := shared
		opts.Name = run.Name
		if len(run.Features) == 0 {
			opts.Features = general
		} else {
			opts.Features = retained(t, run.Features)
		}
		plan = append(plan, opts)
	}
	return plan
}

// checkSchema verifies every column any stage needs before the first stage
// executes, so a malformed extract aborts the run outright.
func (p *Pipeline) checkSchema(t *table.Table) error {
	required := []string{
		schools.ColNumBoys, schools.ColNumGirls, schools.ColNumPupils,
		schools.ColGender, schools.ColPupilsPerTeacher,
	}
	required = append(required, p.cfg.Profile.KeyColumns...)
	required = append(required, p.cfg.Impute.NumericColumns...)
	required = append(required, p.cfg.Impute.CategoricalColumns...)
	for _, name := range required {
		if !t.HasColumn(name) {
			return core.NewColumnMissingError(name)
		}
	}
	return nil
}

// retained filters a designated column list down to the columns that
// survived profiling. A designated column pruned for missingness is simply
// no longer anyone's responsibility.
func retained(t *table.Table, names []string) []string {
	var out []string
	for _, name := range names {
		if t.HasColumn(name) {
			out = append(out, name)
		}
	}
	return out
}
