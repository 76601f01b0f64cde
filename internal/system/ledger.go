package system

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/transitloop/sim/internal/core/event"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/observability"
	"github.com/transitloop/sim/internal/persist"
	"github.com/transitloop/sim/internal/world"
)

// JourneyWriter stores completed journeys.
type JourneyWriter interface {
	InsertJourneys(ctx context.Context, rows []persist.JourneyRow) error
}

// maxBufferedJourneys bounds the ledger buffer while the database is down.
const maxBufferedJourneys = 50_000

// LedgerSystem buffers completed journeys and writes them every interval
// ticks. Phase 6 (Persist).
type LedgerSystem struct {
	writer    JourneyWriter
	log       *zap.Logger
	buf       []persist.JourneyRow
	dropped   int
	tickCount int
	interval  int
}

func NewLedgerSystem(ws *world.State, writer JourneyWriter, intervalTicks int) *LedgerSystem {
	if intervalTicks <= 0 {
		intervalTicks = 1
	}
	s := &LedgerSystem{
		writer:   writer,
		log:      ws.Log,
		interval: intervalTicks,
	}
	event.Subscribe(ws.Bus, s.record)
	return s
}

func (s *LedgerSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *LedgerSystem) record(e event.JourneyCompleted) {
	if len(s.buf) >= maxBufferedJourneys {
		s.dropped++
		return
	}
	s.buf = append(s.buf, persist.JourneyRow{
		Passenger:   uint64(e.Passenger),
		Origin:      e.Origin,
		Destination: e.Destination,
		SpawnedAt:   e.SpawnedAt,
		BoardedAt:   e.BoardedAt,
		CompletedAt: e.CompletedAt,
	})
}

func (s *LedgerSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush writes everything buffered. Called on shutdown as well. Rows stay
// buffered when the write fails and are retried on the next flush.
func (s *LedgerSystem) Flush() {
	if len(s.buf) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx, span := observability.Tracer().Start(ctx, "ledger.flush")
	defer span.End()
	span.SetAttributes(attribute.Int("journeys", len(s.buf)))

	if err := s.writer.InsertJourneys(ctx, s.buf); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert journeys")
		s.log.Warn("journey ledger write failed", zap.Int("buffered", len(s.buf)), zap.Error(err))
		return
	}
	if s.dropped > 0 {
		s.log.Warn("journey ledger dropped rows while buffer was full", zap.Int("dropped", s.dropped))
		s.dropped = 0
	}
	clear(s.buf)
	s.buf = s.buf[:0]
}

// Buffered returns the number of rows waiting to be written.
func (s *LedgerSystem) Buffered() int { return len(s.buf) }
