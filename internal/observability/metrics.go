package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles the Prometheus metrics of the simulation. All
// methods are nil-safe so callers can run without metrics.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Entities      *prometheus.GaugeVec // kind, state
	PendingSpawns *prometheus.GaugeVec // kind

	QueuedPassengers prometheus.Gauge
	RidingPassengers prometheus.Gauge
	TrackRevision    prometheus.Gauge

	Boardings     prometheus.Counter
	Alightings    prometheus.Counter
	TrainArrivals prometheus.Counter
	Journeys      prometheus.Counter

	JourneyDurations prometheus.Histogram
	TickDurations    prometheus.Histogram
}

// NewSimCollector registers the simulation metrics against reg, defaulting
// to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	c := &SimCollector{gatherer: gatherer}

	var err error
	if c.Entities, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "transit_entities",
		Help: "Entities by kind and lifecycle state (live or pooled).",
	}, []string{"kind", "state"}), "transit_entities"); err != nil {
		return nil, err
	}
	if c.PendingSpawns, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "transit_pending_spawns",
		Help: "Entities queued for spawning but not yet produced, by kind.",
	}, []string{"kind"}), "transit_pending_spawns"); err != nil {
		return nil, err
	}
	if c.QueuedPassengers, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "transit_queued_passengers",
		Help: "Passengers waiting in station queues.",
	}), "transit_queued_passengers"); err != nil {
		return nil, err
	}
	if c.RidingPassengers, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "transit_riding_passengers",
		Help: "Passengers assigned to a carriage.",
	}), "transit_riding_passengers"); err != nil {
		return nil, err
	}
	if c.TrackRevision, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "transit_track_revision",
		Help: "Revision of the current track snapshot.",
	}), "transit_track_revision"); err != nil {
		return nil, err
	}
	if c.Boardings, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transit_boardings_total",
		Help: "Passengers assigned to a carriage.",
	}), "transit_boardings_total"); err != nil {
		return nil, err
	}
	if c.Alightings, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transit_alightings_total",
		Help: "Passengers removed from a carriage at their destination.",
	}), "transit_alightings_total"); err != nil {
		return nil, err
	}
	if c.TrainArrivals, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transit_train_arrivals_total",
		Help: "Station stops made by trains.",
	}), "transit_train_arrivals_total"); err != nil {
		return nil, err
	}
	if c.Journeys, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transit_journeys_total",
		Help: "Passenger journeys completed.",
	}), "transit_journeys_total"); err != nil {
		return nil, err
	}
	if c.JourneyDurations, err = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "transit_journey_duration_seconds",
		Help:    "Simulated time from spawn to despawn of a passenger.",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 3600},
	}), "transit_journey_duration_seconds"); err != nil {
		return nil, err
	}
	if c.TickDurations, err = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "transit_tick_duration_seconds",
		Help:    "Wall time spent running one simulation tick.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}), "transit_tick_duration_seconds"); err != nil {
		return nil, err
	}
	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetEntityCounts records the live, pooled and pending counts of one kind.
func (c *SimCollector) SetEntityCounts(kind string, live, pooled, pending int) {
	if c == nil {
		return
	}
	c.Entities.WithLabelValues(kind, "live").Set(float64(live))
	c.Entities.WithLabelValues(kind, "pooled").Set(float64(pooled))
	c.PendingSpawns.WithLabelValues(kind).Set(float64(pending))
}

// SetPassengerCounts records queue and carriage occupancy.
func (c *SimCollector) SetPassengerCounts(queued, riding int) {
	if c == nil {
		return
	}
	c.QueuedPassengers.Set(float64(queued))
	c.RidingPassengers.Set(float64(riding))
}

func (c *SimCollector) SetTrackRevision(rev uint64) {
	if c == nil {
		return
	}
	c.TrackRevision.Set(float64(rev))
}

func (c *SimCollector) RecordBoarding() {
	if c != nil {
		c.Boardings.Inc()
	}
}

func (c *SimCollector) RecordAlighting() {
	if c != nil {
		c.Alightings.Inc()
	}
}

func (c *SimCollector) RecordArrival() {
	if c != nil {
		c.TrainArrivals.Inc()
	}
}

// RecordJourney counts a completed journey of the given simulated length.
func (c *SimCollector) RecordJourney(seconds float64) {
	if c == nil {
		return
	}
	c.Journeys.Inc()
	c.JourneyDurations.Observe(seconds)
}

func (c *SimCollector) ObserveTick(d time.Duration) {
	if c != nil {
		c.TickDurations.Observe(d.Seconds())
	}
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
