package retrieval

import (
	"github.com/pulsemed/protosearch/core"
)

// SearchMonitor provides hooks to observe the search pipeline.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(rawQuery string)
	AfterNormalize(query *core.NormalizedQuery)
	AfterEmbedding(cached bool)
	AfterVectorSearch(candidates []core.ChunkMatch)
	Degrading(reason error)
	AfterKeywordSearch(candidates []core.ChunkMatch)
	ContentGap(signal *core.ContentGapSignal)
	Finish(results []core.RankedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterNormalize(_ *core.NormalizedQuery)  {}
func (n *noopMonitor) AfterEmbedding(_ bool)                   {}
func (n *noopMonitor) AfterVectorSearch(_ []core.ChunkMatch)   {}
func (n *noopMonitor) Degrading(_ error)                       {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.ChunkMatch)  {}
func (n *noopMonitor) ContentGap(_ *core.ContentGapSignal)     {}
func (n *noopMonitor) Finish(_ []core.RankedResult)            {}
