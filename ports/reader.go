package ports

import (
	"context"

	"schoolscope/domain/table"
)

// TableReader loads the raw schools extract into the in-memory table.
// Parsing whatever the source format is stays on this side of the boundary;
// the pipeline only ever sees the typed table.
type TableReader interface {
	Read(ctx context.Context) (*table.Table, error)
}
