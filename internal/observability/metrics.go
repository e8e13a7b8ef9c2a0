package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RegistryStatsFunc reports live entries, capacity and free-listed slots of a handle registry.
type RegistryStatsFunc func() (live, capacity, free int)

var (
	registerOnce sync.Once

	statsMu   sync.RWMutex
	statsFunc RegistryStatsFunc

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeparse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgeparse",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	decodeCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeparse",
			Subsystem: "decode",
			Name:      "calls_total",
			Help:      "Decoder invocations by decoder and outcome.",
		},
		[]string{"decoder", "outcome"},
	)
	decodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgeparse",
			Subsystem: "decode",
			Name:      "duration_seconds",
			Help:      "Decoder call duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
		[]string{"decoder"},
	)
	decodeBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeparse",
			Subsystem: "decode",
			Name:      "input_bytes_total",
			Help:      "Input bytes handed to each decoder.",
		},
		[]string{"decoder"},
	)
	registryLive = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "edgeparse",
			Subsystem: "registry",
			Name:      "live_handles",
			Help:      "Header sets currently registered.",
		},
		func() float64 { live, _, _ := registryStats(); return float64(live) },
	)
	registryCapacity = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "edgeparse",
			Subsystem: "registry",
			Name:      "capacity",
			Help:      "Maximum number of live header sets.",
		},
		func() float64 { _, capacity, _ := registryStats(); return float64(capacity) },
	)
	registryFree = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "edgeparse",
			Subsystem: "registry",
			Name:      "free_slots",
			Help:      "Released slots waiting on the free list.",
		},
		func() float64 { _, _, free := registryStats(); return float64(free) },
	)
	registryExhausted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "edgeparse",
			Subsystem: "registry",
			Name:      "exhausted_total",
			Help:      "Register calls rejected because every slot was taken.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			decodeCalls, decodeDuration, decodeBytes,
			registryLive, registryCapacity, registryFree, registryExhausted,
		)
	})
}

// SetRegistryStats points the registry gauges at fn. The last caller wins.
func SetRegistryStats(fn RegistryStatsFunc) {
	RegisterMetrics()
	statsMu.Lock()
	statsFunc = fn
	statsMu.Unlock()
}

func registryStats() (int, int, int) {
	statsMu.RLock()
	fn := statsFunc
	statsMu.RUnlock()
	if fn == nil {
		return 0, 0, 0
	}
	return fn()
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDecode counts one decoder call. outcome is "ok" or a short failure label.
func RecordDecode(decoder, outcome string, inputLen int, duration time.Duration) {
	RegisterMetrics()
	decodeCalls.WithLabelValues(decoder, outcome).Inc()
	decodeDuration.WithLabelValues(decoder).Observe(duration.Seconds())
	decodeBytes.WithLabelValues(decoder).Add(float64(inputLen))
}

func RecordRegistryExhausted() {
	RegisterMetrics()
	registryExhausted.Inc()
}
