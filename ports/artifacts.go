package ports

import (
	"context"

	"schoolscope/internal/pipeline"
)

// ArtifactStore persists the derived artifacts of a pipeline run for the
// reporting collaborators. Artifacts only: the source record store is never
// written back.
type ArtifactStore interface {
	SaveResult(ctx context.Context, result *pipeline.Result) error
}
