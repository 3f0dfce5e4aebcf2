package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Schema errors
	ErrSchema        = errors.New("schema error")
	ErrColumnMissing = fmt.Errorf("%w: required column absent", ErrSchema)
	ErrColumnType    = fmt.Errorf("%w: column has wrong type", ErrSchema)

	// Imputation errors
	ErrImputeInfeasible = errors.New("imputation infeasible")

	// Clustering errors
	ErrDegenerateClustering = errors.New("cluster count exceeds available rows")
	ErrEmptySubset          = errors.New("feature subset empty after listwise deletion")

	// Determinism errors
	ErrSeedRequired = errors.New("seed required for randomized stage")
)

// Error constructors with context

// NewColumnMissingError reports a required column absent from the input table
func NewColumnMissingError(column string) error {
	return fmt.Errorf("%w: %s", ErrColumnMissing, column)
}

// NewImputeInfeasibleError reports a column the imputer cannot fill
func NewImputeInfeasibleError(column, reason string) error {
	return fmt.Errorf("%w: column %s: %s", ErrImputeInfeasible, column, reason)
}

// NewDegenerateClusteringError reports k exceeding the usable row count
func NewDegenerateClusteringError(k, rows int) error {
	return fmt.Errorf("%w: k=%d, rows=%d", ErrDegenerateClustering, k, rows)
}

// NewEmptySubsetError reports listwise deletion removing every row
func NewEmptySubsetError(features []string, beforeRows int) error {
	return fmt.Errorf("%w: features %v, %d rows before deletion", ErrEmptySubset, features, beforeRows)
}

// Error checking helpers

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsImputeError(err error) bool {
	return errors.Is(err, ErrImputeInfeasible)
}

func IsClusteringError(err error) bool {
	return errors.Is(err, ErrDegenerateClustering) || errors.Is(err, ErrEmptySubset)
}
