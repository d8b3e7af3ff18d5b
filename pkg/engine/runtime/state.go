// Package runtime carries the per-fragment execution state.
package runtime

import (
	"log/slog"

	"vexec/pkg/descriptors"
)

const DefaultBatchSize = 4096

// State is owned by a single fragment. The descriptor table it points to is
// shared read-only across fragments of the same query.
type State struct {
	queryID    string
	fragmentID int
	descTbl    *descriptors.DescriptorTable
	batchSize  int
	logger     *slog.Logger
}

func NewState(queryID string, fragmentID int, descTbl *descriptors.DescriptorTable, batchSize int, logger *slog.Logger) *State {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		queryID:    queryID,
		fragmentID: fragmentID,
		descTbl:    descTbl,
		batchSize:  batchSize,
		logger:     logger.With("query_id", queryID, "fragment", fragmentID),
	}
}

func (s *State) QueryID() string                       { return s.queryID }
func (s *State) FragmentID() int                       { return s.fragmentID }
func (s *State) DescTbl() *descriptors.DescriptorTable { return s.descTbl }
func (s *State) BatchSize() int                        { return s.batchSize }
func (s *State) Logger() *slog.Logger                  { return s.logger }
