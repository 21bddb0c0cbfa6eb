package feed

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"lobreplay/internal/engine"
)

// DefaultQueueSize bounds the producer->replay channel. Spec §5: "the
// queue is the serialisation point" — the order book itself never
// observes concurrent mutation, only the replay loop (the sole
// consumer) does.
const DefaultQueueSize = 256

// Producer feeds a bounded channel of already-decoded events to the
// replay loop from a supervised goroutine, continuing the teacher's
// tomb.Tomb-supervised worker pattern (internal/worker.go's
// WorkerPool.Setup/worker, internal/net/server.go's tomb.WithContext)
// rather than a raw unsupervised `go func()`.
type Producer struct {
	events []engine.Event
	out    chan engine.Event
}

// NewProducer wraps an already-decoded, time-ordered event slice (e.g.
// from Decode or DecodeCSV) for delivery over a bounded channel.
func NewProducer(events []engine.Event) *Producer {
	return &Producer{
		events: events,
		out:    make(chan engine.Event, DefaultQueueSize),
	}
}

// Events returns the channel the replay loop should range over.
func (p *Producer) Events() <-chan engine.Event { return p.out }

// Run pushes every event onto the bounded channel and closes it when
// done, or as soon as the tomb starts dying (e.g. the replay loop hit a
// fatal inconsistency and the caller killed the tomb). Supervised with
// t.Go(func() error { return producer.Run(t) }) à la the teacher's
// worker pool.
func (p *Producer) Run(t *tomb.Tomb) error {
	defer close(p.out)
	log.Debug().Int("events", len(p.events)).Msg("feed producer starting")
	for _, ev := range p.events {
		select {
		case <-t.Dying():
			log.Debug().Msg("feed producer stopping early: tomb dying")
			return nil
		case p.out <- ev:
		}
	}
	return nil
}
