package executor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"vexec/pkg/engine/planner"
	"vexec/pkg/engine/types"
)

type Config struct {
	BaseDir       string
	ChunkSize     uint64
	MaxRowsInFile uint64
	// Parallelism caps the number of fragments of a select.
	Parallelism int
}

type Executor struct {
	tablesDir     string
	chunkSize     uint64
	maxRowsInFile uint64
	parallelism   int
	logger        *slog.Logger
}

func NewExecutor(cfg Config, logger *slog.Logger) (*Executor, error) {
	tablesDir := filepath.Join(cfg.BaseDir, "tables")
	if err := os.MkdirAll(tablesDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating tables directory %s", tablesDir)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}

	return &Executor{
		tablesDir:     tablesDir,
		chunkSize:     cfg.ChunkSize,
		maxRowsInFile: cfg.MaxRowsInFile,
		parallelism:   cfg.Parallelism,
		logger:        logger,
	}, nil
}

func (e *Executor) Parallelism() int { return e.parallelism }

func (e *Executor) Execute(ctx context.Context, queryID string, plan planner.QueryPlan) (*types.ColumnarResult, error) {
	switch p := plan.(type) {
	case *planner.CopyPlan:
		return nil, e.ExecuteCopy(ctx, p)
	case *planner.SelectPlan:
		defer p.Release()
		return e.ExecuteSelect(ctx, queryID, p.Snapshot, p.Plan)
	default:
		return nil, errors.AssertionFailedf("unknown plan type %T", plan)
	}
}
