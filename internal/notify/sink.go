// Package notify delivers the board's observable events (committed moves,
// shutdown) to external collaborators: an engine webhook over HTTP and an
// optional Redis pub/sub mirror. Delivery failures are logged, never fatal.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/minaechess/minae/pkg/boarddto"
)

// Sink receives outbound board events.
type Sink interface {
	MoveCommitted(ctx context.Context, mv boarddto.Move) error
	Shutdown(ctx context.Context) error
}

type fanout struct {
	log   *zap.Logger
	sinks []Sink
}

// Fanout delivers each event to every sink. Individual failures are logged
// and do not stop delivery to the remaining sinks.
func Fanout(logger *zap.Logger, sinks ...Sink) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fanout{log: logger, sinks: sinks}
}

func (f *fanout) MoveCommitted(ctx context.Context, mv boarddto.Move) error {
	for _, s := range f.sinks {
		if err := s.MoveCommitted(ctx, mv); err != nil {
			f.log.Warn("move event delivery failed", zap.String("from", mv.From), zap.String("to", mv.To), zap.Error(err))
		}
	}
	return nil
}

func (f *fanout) Shutdown(ctx context.Context) error {
	for _, s := range f.sinks {
		if err := s.Shutdown(ctx); err != nil {
			f.log.Warn("shutdown event delivery failed", zap.Error(err))
		}
	}
	return nil
}
