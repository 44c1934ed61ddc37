package metrics

import (
	"net/http"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/huntwatch/huntwatch/internal/track"
	"github.com/huntwatch/huntwatch/pkg/types"
)

// Handler serves store gauges and counters in Prometheus text exposition
// format at GET /metrics.
type Handler struct {
	tracker *track.Tracker
}

// New creates a Handler reading from tracker.
func New(tracker *track.Tracker) *Handler {
	return &Handler{tracker: tracker}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range Families(h.tracker.Stats()) {
		if err := enc.Encode(mf); err != nil {
			// The client went away mid-write; nothing useful to do.
			return
		}
	}
}

// Families converts a stats snapshot into Prometheus metric families.
func Families(stats types.StatsResponse) []*dto.MetricFamily {
	perStore := func(f func(types.StoreStats) float64) []*dto.Metric {
		return []*dto.Metric{
			storeMetric("sightings", f(stats.Sightings)),
			storeMetric("players", f(stats.Players)),
		}
	}

	fams := []*dto.MetricFamily{
		gauge("huntwatch_store_entries",
			"Resident entries per store, including stale entries not yet removed.",
			perStore(func(s types.StoreStats) float64 { return float64(s.Size) })),
		gauge("huntwatch_store_live",
			"Entries per store still inside their liveness window.",
			perStore(func(s types.StoreStats) float64 { return float64(s.Live) })),
		gauge("huntwatch_store_capacity",
			"Configured maximum entries per store (0 = unbounded).",
			perStore(func(s types.StoreStats) float64 { return float64(s.Capacity) })),
		counter("huntwatch_store_expired_total",
			"Entries removed because their TTL elapsed.",
			perStoreCounter(stats, func(s types.StoreStats) float64 { return float64(s.ExpiredTotal) })),
		counter("huntwatch_store_evicted_total",
			"Entries removed by capacity enforcement.",
			perStoreCounter(stats, func(s types.StoreStats) float64 { return float64(s.EvictedTotal) })),
	}

	if byOrigin := originMetrics(stats); len(byOrigin) > 0 {
		fams = append(fams, gauge("huntwatch_store_live_by_origin",
			"Live entries per store broken down by provenance tag.", byOrigin))
	}
	return fams
}

func perStoreCounter(stats types.StatsResponse, f func(types.StoreStats) float64) []*dto.Metric {
	return []*dto.Metric{
		storeCounterMetric("sightings", f(stats.Sightings)),
		storeCounterMetric("players", f(stats.Players)),
	}
}

// originMetrics flattens the by-origin breakdowns, sorted for deterministic
// exposition output.
func originMetrics(stats types.StatsResponse) []*dto.Metric {
	var out []*dto.Metric
	for _, s := range []struct {
		name  string
		stats types.StoreStats
	}{
		{"sightings", stats.Sightings},
		{"players", stats.Players},
	} {
		origins := make([]string, 0, len(s.stats.ByOrigin))
		for origin := range s.stats.ByOrigin {
			origins = append(origins, origin)
		}
		sort.Strings(origins)
		for _, origin := range origins {
			out = append(out, &dto.Metric{
				Label: []*dto.LabelPair{
					label("store", s.name),
					label("origin", origin),
				},
				Gauge: &dto.Gauge{Value: proto.Float64(float64(s.stats.ByOrigin[origin]))},
			})
		}
	}
	return out
}

func gauge(name, help string, metrics []*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

func counter(name, help string, metrics []*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: metrics,
	}
}

func storeMetric(store string, v float64) *dto.Metric {
	return &dto.Metric{
		Label: []*dto.LabelPair{label("store", store)},
		Gauge: &dto.Gauge{Value: proto.Float64(v)},
	}
}

func storeCounterMetric(store string, v float64) *dto.Metric {
	return &dto.Metric{
		Label:   []*dto.LabelPair{label("store", store)},
		Counter: &dto.Counter{Value: proto.Float64(v)},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}
