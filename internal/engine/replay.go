package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Hook is a per-event callback the replay loop invokes before/after
// dispatching an event. Defaults to a no-op (spec §4.G).
type Hook func(ev Event, ob *OrderBook)

func noopHook(Event, *OrderBook) {}

// Replay drains an ordered event sequence, dispatching each to an
// OrderBook, strictly sequentially: no event is skipped or reordered
// (spec §4.G, §5). Every run is tagged with a UUID, attached to the
// loop's own log lines and to the error returned on a fatal inconsistency, so a
// misbehaving replay can be correlated across log output — the same
// correlation role the teacher's per-order UUIDs play for its execution
// reports (internal/common/order.go).
type Replay struct {
	RunID  uuid.UUID
	Book   *OrderBook
	Pre    Hook
	Post   Hook
	logger zerolog.Logger

	applied int
}

// NewReplay builds a replay loop over ob with no-op hooks.
func NewReplay(ob *OrderBook) *Replay {
	runID := uuid.New()
	return &Replay{
		RunID:  runID,
		Book:   ob,
		Pre:    noopHook,
		Post:   noopHook,
		logger: log.With().Str("runID", runID.String()).Logger(),
	}
}

// Applied returns how many events this run has dispatched so far.
func (r *Replay) Applied() int { return r.applied }

// RunSlice replays a fully-decoded, already-ordered event slice. This is
// the common path when events come from the CSV cache or a completed
// in-memory decode.
func (r *Replay) RunSlice(events []Event) error {
	for _, ev := range events {
		if err := r.dispatch(ev); err != nil {
			return err
		}
	}
	return nil
}

// Run drains events from a channel until it is closed, for use with
// internal/feed.Producer's bounded-queue pipeline (spec §5: "the queue
// is the serialisation point"). The channel is the only thing shared
// with the producer goroutine; the OrderBook itself never observes
// concurrent mutation.
func (r *Replay) Run(events <-chan Event) error {
	for ev := range events {
		if err := r.dispatch(ev); err != nil {
			return err
		}
	}
	return nil
}

func (r *Replay) dispatch(ev Event) error {
	r.Pre(ev, r.Book)
	err := ev.Apply(r.Book)
	r.applied++
	if err != nil {
		r.logger.Error().
			Int("eventIndex", r.applied).
			Int64("ts", int64(ev.Timestamp())).
			Err(err).
			Msg("fatal order book inconsistency during replay")
		return fmt.Errorf("replay %s: event %d at ts=%d: %w", r.RunID, r.applied, ev.Timestamp(), err)
	}
	r.Post(ev, r.Book)
	return nil
}
