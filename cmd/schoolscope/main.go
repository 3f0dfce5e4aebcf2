// schoolscope runs the London-schools data-quality and clustering pipeline
// end to end: profile, impute, repair, report outliers, cluster, relabel and
// flag transition cases, then hand the artifacts to whoever consumes them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"schoolscope/adapters/api"
	"schoolscope/adapters/ingest"
	"schoolscope/adapters/postgres"
	"schoolscope/domain/table"
	"schoolscope/internal"
	"schoolscope/internal/config"
	"schoolscope/internal/pipeline"
	"schoolscope/internal/testkit"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "schoolscope",
		Short: "Data-quality and clustering pipeline for the London schools dataset",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newProfileCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// pipelineFlags are the configuration overrides shared by every command
type pipelineFlags struct {
	input       string
	seed        int64
	k           int
	restarts    int
	threshold   float64
	percentile  float64
	protectKey  bool
	demo        bool
	clusterRuns string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "input", "", "input file (.xlsx or .csv); overrides SCOPE_INPUT_FILE")
	cmd.Flags().Int64Var(&f.seed, "seed", -1, "base random seed; overrides SCOPE_SEED")
	cmd.Flags().IntVar(&f.k, "k", 0, "cluster count; overrides SCOPE_CLUSTER_K")
	cmd.Flags().IntVar(&f.restarts, "restarts", 0, "k-means initializations; overrides SCOPE_CLUSTER_RESTARTS")
	cmd.Flags().Float64Var(&f.threshold, "drop-threshold", 0, "column-drop missing fraction; overrides SCOPE_DROP_THRESHOLD")
	cmd.Flags().Float64Var(&f.percentile, "transition-percentile", 0, "transition-flag percentile; overrides SCOPE_TRANSITION_PERCENTILE")
	cmd.Flags().BoolVar(&f.protectKey, "protect-key-columns", false, "exempt key columns from column pruning")
	cmd.Flags().BoolVar(&f.demo, "demo", false, "run on a synthetic dataset instead of reading input")
	cmd.Flags().StringVar(&f.clusterRuns, "cluster-runs", "",
		"clustering runs as name:col1,col2;... (bare names are presets); overrides SCOPE_CLUSTER_RUNS")
}

func (f *pipelineFlags) apply(cfg *config.Config) error {
	if f.input != "" {
		cfg.Data.InputFile = f.input
	}
	if f.seed >= 0 {
		cfg.Seed = f.seed
	}
	if f.k > 0 {
		cfg.Cluster.K = f.k
	}
	if f.restarts > 0 {
		cfg.Cluster.Restarts = f.restarts
	}
	if f.threshold > 0 {
		cfg.Profile.DropThreshold = f.threshold
	}
	if f.percentile > 0 {
		cfg.Cluster.TransitionPercentile = f.percentile
	}
	if f.protectKey {
		cfg.Profile.ProtectKeyColumns = true
	}
	if f.clusterRuns != "" {
		runs, err := config.ParseClusterRuns(f.clusterRuns)
		if err != nil {
			return err
		}
		cfg.Cluster.Runs = runs
	}
	return nil
}

// loadTable reads the input file, or generates the demo table
func (f *pipelineFlags) loadTable(ctx context.Context, cfg *config.Config, log *internal.Logger) (*table.Table, error) {
	if f.demo {
		opts := testkit.DefaultOptions()
		opts.Seed = cfg.Seed
		return testkit.Generate(opts), nil
	}
	return ingest.NewReader(cfg.Data.InputFile, cfg.Data.Sheet, log).Read(ctx)
}

func runPipeline(ctx context.Context, f *pipelineFlags) (*pipeline.Result, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := f.apply(cfg); err != nil {
		return nil, nil, err
	}

	log := internal.NewDefaultLogger()
	t, err := f.loadTable(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	result, err := pipeline.New(cfg, log).Run(ctx, t)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.URL != "" {
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("artifact store: %w", err)
		}
		defer db.Close()
		if err := postgres.Bootstrap(ctx, db); err != nil {
			return nil, nil, err
		}
		if err := postgres.NewArtifactRepository(db).SaveResult(ctx, result); err != nil {
			return nil, nil, fmt.Errorf("artifact store: %w", err)
		}
		log.Info("artifacts for run %s persisted", result.RunID)
	}
	return result, cfg, nil
}

func newRunCmd() *cobra.Command {
	flags := &pipelineFlags{}
	var outFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline and print (or write) the run artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := runPipeline(cmd.Context(), flags)
			if err != nil {
				return err
			}

			out := os.Stdout
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&outFile, "out", "", "write artifacts to this file instead of stdout")
	return cmd
}

func newProfileCmd() *cobra.Command {
	flags := &pipelineFlags{}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Run the pipeline and print only the missingness and outlier diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := runPipeline(cmd.Context(), flags)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"profile":  result.Profile,
				"outliers": result.Outliers,
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newServeCmd() *cobra.Command {
	flags := &pipelineFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline, then serve the artifacts over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, cfg, err := runPipeline(cmd.Context(), flags)
			if err != nil {
				return err
			}
			server := api.NewServer(result, internal.NewDefaultLogger())
			return server.ListenAndServe(cfg.Server.Port)
		},
	}
	flags.register(cmd)
	return cmd
}
