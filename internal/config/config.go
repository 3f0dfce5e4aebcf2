// Package config assembles the pipeline configuration from environment
// variables (optionally a .env file) with sane defaults. CLI flags override
// whatever is loaded here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"schoolscope/domain/core"
	"schoolscope/domain/schools"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Profile  ProfileConfig
	Impute   ImputeConfig
	Cluster  ClusterConfig
	Database DatabaseConfig
	Server   ServerConfig
	Seed     int64
}

// DataConfig holds input settings
type DataConfig struct {
	InputFile string // .xlsx or .csv
	Sheet     string
}

// ProfileConfig holds missingness-profiler settings
type ProfileConfig struct {
	DropThreshold     float64  // column dropped when missing fraction exceeds this
	KeyColumns        []string // rows must have these observed
	ProtectKeyColumns bool     // exempt key columns from column pruning
}

// ImputeConfig holds the imputer's column designation and chain settings
type ImputeConfig struct {
	NumericColumns     []string
	CategoricalColumns []string
	Chains             int
	Sweeps             int
	Donors             int
}

// ClusterConfig holds the clustering settings shared by every run
type ClusterConfig struct {
	K                    int
	Restarts             int
	ElbowMin             int
	ElbowMax             int
	TransitionPercentile float64
	Runs                 []ClusterRun
}

// ClusterRun names one independent clustering run over a feature subset.
// An empty feature list means every numeric non-identity column.
type ClusterRun struct {
	Name     string
	Features []string
}

// Named feature subsets usable in SCOPE_CLUSTER_RUNS without spelling the
// columns out
var runPresets = map[string][]string{
	"general":     nil,
	"deprivation": schools.DeprivationColumns(),
	"performance": schools.PerformanceColumns(),
}

// DefaultClusterRuns returns the two standard runs: the general grouping and
// the deprivation-only grouping
func DefaultClusterRuns() []ClusterRun {
	return []ClusterRun{
		{Name: "general"},
		{Name: "deprivation", Features: schools.DeprivationColumns()},
	}
}

// ParseClusterRuns parses a run list of the form
// "name:col1,col2;name2:col3" — a bare name with no colon must be one of the
// presets (general, deprivation, performance).
func ParseClusterRuns(v string) ([]ClusterRun, error) {
	var runs []ClusterRun
	seen := make(map[string]bool)
	for _, entry := range strings.Split(v, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, cols, hasCols := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("cluster run %q has no name", entry)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate cluster run %q", name)
		}
		seen[name] = true

		run := ClusterRun{Name: name}
		if hasCols {
			for _, c := range strings.Split(cols, ",") {
				if c = strings.TrimSpace(c); c != "" {
					run.Features = append(run.Features, c)
				}
			}
		} else {
			preset, ok := runPresets[name]
			if !ok {
				return nil, fmt.Errorf("cluster run %q is not a preset and lists no columns", name)
			}
			run.Features = preset
		}
		runs = append(runs, run)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("cluster run list %q is empty", v)
	}
	return runs, nil
}

// DatabaseConfig holds the optional artifact store connection
type DatabaseConfig struct {
	URL string // empty disables persistence
}

// ServerConfig holds the artifact API settings
type ServerConfig struct {
	Port string
}

// Load reads configuration from the environment, consulting .env when present
func Load() (*Config, error) {
	// .env is optional; absence is not an error
	_ = godotenv.Load()

	clusterRuns := DefaultClusterRuns()
	if v := os.Getenv("SCOPE_CLUSTER_RUNS"); v != "" {
		parsed, err := ParseClusterRuns(v)
		if err != nil {
			return nil, fmt.Errorf("configuration invalid: %w", err)
		}
		clusterRuns = parsed
	}

	cfg := &Config{
		Data: DataConfig{
			InputFile: getEnv("SCOPE_INPUT_FILE", "data/london_schools.xlsx"),
			Sheet:     getEnv("SCOPE_SHEET", "Sheet1"),
		},
		Profile: ProfileConfig{
			DropThreshold:     getEnvFloat("SCOPE_DROP_THRESHOLD", 0.30),
			KeyColumns:        getEnvList("SCOPE_KEY_COLUMNS", schools.KeyColumns()),
			ProtectKeyColumns: getEnvBool("SCOPE_PROTECT_KEY_COLUMNS", false),
		},
		Impute: ImputeConfig{
			NumericColumns: getEnvList("SCOPE_IMPUTE_NUMERIC", []string{
				schools.ColNumBoys, schools.ColNumGirls, schools.ColPctAbsence, schools.ColOfsted,
			}),
			CategoricalColumns: getEnvList("SCOPE_IMPUTE_CATEGORICAL", []string{
				schools.ColDenom, schools.ColAdmissions,
			}),
			Chains: getEnvInt("SCOPE_IMPUTE_CHAINS", 5),
			Sweeps: getEnvInt("SCOPE_IMPUTE_SWEEPS", 5),
			Donors: getEnvInt("SCOPE_IMPUTE_DONORS", 5),
		},
		Cluster: ClusterConfig{
			K:                    getEnvInt("SCOPE_CLUSTER_K", 3),
			Restarts:             getEnvInt("SCOPE_CLUSTER_RESTARTS", 25),
			ElbowMin:             getEnvInt("SCOPE_ELBOW_MIN", 2),
			ElbowMax:             getEnvInt("SCOPE_ELBOW_MAX", 20),
			TransitionPercentile: getEnvFloat("SCOPE_TRANSITION_PERCENTILE", 0.85),
			Runs:                 clusterRuns,
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port: getEnv("SCOPE_PORT", "8087"),
		},
		Seed: int64(getEnvInt("SCOPE_SEED", 1)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings no stage can run with
func (c *Config) Validate() error {
	if c.Profile.DropThreshold <= 0 || c.Profile.DropThreshold > 1 {
		return fmt.Errorf("drop threshold %.2f outside (0, 1]", c.Profile.DropThreshold)
	}
	if c.Cluster.K < 1 {
		return fmt.Errorf("cluster count %d < 1", c.Cluster.K)
	}
	if c.Cluster.Restarts < 1 {
		return fmt.Errorf("restart count %d < 1", c.Cluster.Restarts)
	}
	if c.Cluster.TransitionPercentile <= 0 || c.Cluster.TransitionPercentile >= 1 {
		return fmt.Errorf("transition percentile %.2f outside (0, 1)", c.Cluster.TransitionPercentile)
	}
	if c.Impute.Chains < 1 || c.Impute.Sweeps < 1 || c.Impute.Donors < 1 {
		return fmt.Errorf("imputation chains/sweeps/donors must be >= 1")
	}
	if len(c.Cluster.Runs) == 0 {
		return fmt.Errorf("at least one clustering run required")
	}
	if c.Seed < 0 {
		return fmt.Errorf("%w: seed %d is negative", core.ErrSeedRequired, c.Seed)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
