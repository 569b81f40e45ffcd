package retrieval

import (
	"context"
	"log/slog"

	"github.com/pulsemed/protosearch/core"
)

// LogSink records content gap signals to a structured logger. It is the
// default sink for deployments without a dedicated gap collector.
type LogSink struct {
	logger *slog.Logger
}

var _ GapSink = (*LogSink)(nil)

// NewLogSink creates a gap sink that writes to the given logger.
// A nil logger falls back to slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "gapsink")}
}

// Record logs the gap signal.
func (s *LogSink) Record(ctx context.Context, signal *core.ContentGapSignal) error {
	s.logger.Info("content gap detected",
		"query", signal.Query.CanonicalText,
		"intent", signal.Query.Intent.String(),
		"state", signal.Scope.StateCode,
		"county", signal.Scope.CountyId,
		"agency", signal.Scope.AgencyId)
	return nil
}
