package metrics

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DenhamPreen/hot-potato/core/events"
	"github.com/DenhamPreen/hot-potato/native/hotpotato"
	"github.com/DenhamPreen/hot-potato/observability/logging"
)

// HotPotatoMetrics exposes the engine's counters and gauges for scraping.
type HotPotatoMetrics struct {
	takes           *prometheus.CounterVec
	settlements     *prometheus.CounterVec
	roundsEnded     prometheus.Counter
	potGauge        prometheus.Gauge
	currentPrice    prometheus.Gauge
	sponsorAmount   prometheus.Gauge
	payoutFailures  *prometheus.CounterVec
	refundFailures  prometheus.Counter
	settleLatencyMs prometheus.Histogram
}

var (
	hotPotatoOnce     sync.Once
	hotPotatoRegistry *HotPotatoMetrics
)

// HotPotato returns the process-wide metrics collector, registering it with
// the default Prometheus registry on first use.
func HotPotato() *HotPotatoMetrics {
	hotPotatoOnce.Do(func() {
		hotPotatoRegistry = &HotPotatoMetrics{
			takes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "hotpotato_takes_total",
				Help: "Count of accepted Enter calls, labeled by whether the slot was free.",
			}, []string{"slot"}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "hotpotato_settlements_total",
				Help: "Count of settled tickets, labeled by outcome.",
			}, []string{"outcome"}),
			roundsEnded: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "hotpotato_rounds_ended_total",
				Help: "Count of rounds that reached a loss and were finalized.",
			}),
			potGauge: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "hotpotato_pot",
				Help: "Current accounting pot balance, in base units.",
			}),
			currentPrice: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "hotpotato_current_price",
				Help: "Entry price the next take must meet, in base units.",
			}),
			sponsorAmount: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "hotpotato_sponsor_amount",
				Help: "Current round sponsor's deposited amount, in base units. Zero if unsponsored.",
			}),
			payoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "hotpotato_payout_failures_total",
				Help: "Count of failed best-effort payouts by kind.",
			}, []string{"kind"}),
			refundFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "hotpotato_sponsor_refund_failures_total",
				Help: "Count of failed incumbent-sponsor refunds on replacement.",
			}),
			settleLatencyMs: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "hotpotato_settle_latency_ms",
				Help:    "Wall-clock time spent inside Settle, in milliseconds.",
				Buckets: prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(
			hotPotatoRegistry.takes,
			hotPotatoRegistry.settlements,
			hotPotatoRegistry.roundsEnded,
			hotPotatoRegistry.potGauge,
			hotPotatoRegistry.currentPrice,
			hotPotatoRegistry.sponsorAmount,
			hotPotatoRegistry.payoutFailures,
			hotPotatoRegistry.refundFailures,
			hotPotatoRegistry.settleLatencyMs,
		)
	})
	return hotPotatoRegistry
}

func (m *HotPotatoMetrics) ObserveTake(freeSlot bool) {
	if m == nil {
		return
	}
	slot := "paid"
	if freeSlot {
		slot = "free"
	}
	m.takes.WithLabelValues(slot).Inc()
}

func (m *HotPotatoMetrics) ObserveSettlement(win bool) {
	if m == nil {
		return
	}
	outcome := "loss"
	if win {
		outcome = "win"
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

func (m *HotPotatoMetrics) ObserveRoundEnded() {
	if m == nil {
		return
	}
	m.roundsEnded.Inc()
}

func (m *HotPotatoMetrics) SetPot(amount float64) {
	if m == nil {
		return
	}
	m.potGauge.Set(amount)
}

func (m *HotPotatoMetrics) SetCurrentPrice(amount float64) {
	if m == nil {
		return
	}
	m.currentPrice.Set(amount)
}

func (m *HotPotatoMetrics) SetSponsorAmount(amount float64) {
	if m == nil {
		return
	}
	m.sponsorAmount.Set(amount)
}

func (m *HotPotatoMetrics) ObservePayoutFailure(kind string) {
	if m == nil {
		return
	}
	m.payoutFailures.WithLabelValues(normaliseLabel(kind)).Inc()
}

func (m *HotPotatoMetrics) ObserveSponsorRefundFailure() {
	if m == nil {
		return
	}
	m.refundFailures.Inc()
}

func (m *HotPotatoMetrics) ObserveSettleLatency(ms float64) {
	if m == nil {
		return
	}
	m.settleLatencyMs.Observe(ms)
}

func normaliseLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "unknown"
	}
	return strings.ToLower(trimmed)
}

// EventObserver is an events.Emitter that updates HotPotatoMetrics from the
// engine's event stream and forwards every event unchanged to next (e.g. an
// events.Recorder feeding the RPC read view). Wire it in place of the
// Recorder passed to NewEngine so counters stay in sync without the engine
// itself importing the metrics package.
type EventObserver struct {
	metrics *HotPotatoMetrics
	next    events.Emitter
}

// NewEventObserver constructs an EventObserver. next may be nil.
func NewEventObserver(m *HotPotatoMetrics, next events.Emitter) *EventObserver {
	return &EventObserver{metrics: m, next: next}
}

// Emit implements events.Emitter.
func (o *EventObserver) Emit(evt events.Event) {
	if o == nil {
		return
	}
	if rec, ok := evt.(events.Record); ok {
		o.observe(rec)
	}
	if o.next != nil {
		o.next.Emit(evt)
	}
}

func (o *EventObserver) observe(rec events.Record) {
	switch rec.Type {
	case hotpotato.TypeTake:
		freeSlot := rec.Attributes["pricePaid"] == "0"
		o.metrics.ObserveTake(freeSlot)
	case hotpotato.TypeSettle:
		o.metrics.ObserveSettlement(rec.Attributes["win"] == "true")
	case hotpotato.TypeRoundEnded:
		o.metrics.ObserveRoundEnded()
	case hotpotato.TypePotUpdated:
		if v, err := strconv.ParseFloat(rec.Attributes["newPot"], 64); err == nil {
			o.metrics.SetPot(v)
		}
	case hotpotato.TypeNewHolder:
		if v, err := strconv.ParseFloat(rec.Attributes["newPrice"], 64); err == nil {
			o.metrics.SetCurrentPrice(v)
		}
	case hotpotato.TypeSponsorUpdated:
		if v, err := strconv.ParseFloat(rec.Attributes["amount"], 64); err == nil {
			o.metrics.SetSponsorAmount(v)
		}
	case hotpotato.TypeSponsorCleared:
		o.metrics.SetSponsorAmount(0)
	case hotpotato.TypeParticipantPayoutFailed:
		o.metrics.ObservePayoutFailure("participant")
		slog.Warn("participant payout failed",
			logging.MaskField("participant", rec.Attributes["participant"]),
			slog.String("amount", rec.Attributes["amount"]),
			slog.String("roundId", rec.Attributes["roundId"]),
		)
	case hotpotato.TypeSponsorRefundFailed:
		o.metrics.ObserveSponsorRefundFailure()
		slog.Warn("sponsor refund failed",
			logging.MaskField("previousSponsor", rec.Attributes["previousSponsor"]),
			slog.String("amount", rec.Attributes["amount"]),
			slog.String("roundId", rec.Attributes["roundId"]),
		)
	}
}
