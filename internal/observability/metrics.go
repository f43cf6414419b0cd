package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "airdrop_http_request_duration_seconds",
		Help:    "Request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "airdrop_http_in_flight",
		Help: "In-flight HTTP requests",
	})
	ExecutesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_executes_total",
			Help: "Execute calls by action and result",
		}, []string{"action", "result"},
	)
	InstructionsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_instructions_emitted_total",
			Help: "Outbound transfer instructions emitted, by kind",
		}, []string{"kind"},
	)
	ActiveCampaigns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "airdrop_active_campaigns",
		Help: "Campaigns currently holding undistributed assets",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal, Latency, InFlight, ExecutesTotal, InstructionsEmitted, ActiveCampaigns)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
