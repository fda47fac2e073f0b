// Package events provides the audit event sinks: every committed execution
// is appended to an externally-observable log.
package events

import (
	"go.uber.org/zap"

	"github.com/jonasrmichel/swap-agent/pkg/lamports"
	"github.com/jonasrmichel/swap-agent/pkg/types"
)

// Sink receives execution results. Emit must not mutate the event.
type Sink interface {
	Emit(result *types.ExecutionResult) error
}

// MultiSink fans an event out to several sinks. The first error is
// returned after every sink has been given the event.
type MultiSink []Sink

// Emit delivers the event to all sinks.
func (m MultiSink) Emit(result *types.ExecutionResult) error {
	var firstErr error
	for _, s := range m {
		if err := s.Emit(result); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LogSink writes execution results to a structured log.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a sink over log. A nil logger disables output.
func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log.Named("audit")}
}

// Emit logs the event.
func (s *LogSink) Emit(result *types.ExecutionResult) error {
	s.log.Info("arbitrage executed",
		zap.String("id", result.ID),
		zap.String("actor", result.Actor.Short()),
		zap.Uint64("profit", result.Profit),
		zap.String("profit_sol", lamports.FormatSOL(result.Profit)),
		zap.String("path", result.PathString()),
		zap.Uint64("trade_id", result.TradeID))
	return nil
}
