package diagnostics

import (
	"context"

	"github.com/turtacn/ibocheck/internal/domain/orbital"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
)

// Sink is the durable, append-only store behind the table.  Implementations
// create the table with its header on first use and never rewrite rows.
type Sink interface {
	Append(ctx context.Context, row Row) error
	ReadAll(ctx context.Context) ([]Row, error)
	Close() error
}

// Observer is notified after each stored row.
type Observer interface {
	ObserveRow(row Row)
}

// Aggregator records classification summaries into a Sink.  It is not safe
// for concurrent use; batch callers funnel rows through one goroutine.
type Aggregator struct {
	sink     Sink
	observer Observer
	logger   logging.Logger
}

// NewAggregator wraps sink.  observer may be nil.
func NewAggregator(sink Sink, observer Observer, logger logging.Logger) *Aggregator {
	return &Aggregator{sink: sink, observer: observer, logger: logger}
}

// Record appends the summary of r for identifier.
func (a *Aggregator) Record(ctx context.Context, identifier string, perAtom int, r *orbital.Result) error {
	row := NewRow(identifier, perAtom, r)
	if err := a.sink.Append(ctx, row); err != nil {
		a.logger.Error("failed to record diagnostics row", logging.Molecule(identifier), logging.Err(err))
		return err
	}
	if a.observer != nil {
		a.observer.ObserveRow(row)
	}
	a.logger.Debug("diagnostics row recorded",
		logging.Molecule(identifier),
		logging.Bool("serenity_fails", row.SerenityFails),
		logging.Int("overflow", row.Overflow))
	return nil
}

// Rows returns every stored row in insertion order.
func (a *Aggregator) Rows(ctx context.Context) ([]Row, error) {
	return a.sink.ReadAll(ctx)
}

// Close releases the sink.
func (a *Aggregator) Close() error {
	return a.sink.Close()
}
