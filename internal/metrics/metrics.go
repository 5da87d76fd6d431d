// Package metrics exposes Prometheus metrics for the sky plot hosts.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the metrics of one host process.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	FramesRendered    prometheus.Counter
	VisibleSatellites prometheus.Gauge
	UsedSatellites    prometheus.Gauge
	FeedMessages      *prometheus.CounterVec
	PNGCache          *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skyplot_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"path", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skyplot_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skyplot_frames_total",
			Help: "Sky plot frames produced by the view.",
		}),
		VisibleSatellites: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skyplot_visible_satellites",
			Help: "Satellites drawn in the latest frame.",
		}),
		UsedSatellites: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skyplot_used_satellites",
			Help: "Drawn satellites used in the fix in the latest frame.",
		}),
		FeedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skyplot_feed_messages_total",
			Help: "MQTT feed messages, labeled by topic kind and outcome.",
		}, []string{"kind", "outcome"}),
		PNGCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skyplot_png_cache_total",
			Help: "PNG cache lookups, labeled hit or miss.",
		}, []string{"result"}),
	}

	for _, col := range []prometheus.Collector{
		c.HTTPRequests, c.HTTPDuration,
		c.FramesRendered, c.VisibleSatellites, c.UsedSatellites,
		c.FeedMessages, c.PNGCache,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return c, nil
}

// ObserveFrame records one redraw and its counters.
func (c *Collector) ObserveFrame(visible, used int) {
	c.FramesRendered.Inc()
	c.VisibleSatellites.Set(float64(visible))
	c.UsedSatellites.Set(float64(used))
}

// Handler returns the Prometheus metrics HTTP handler for the collector's
// registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the middleware.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		c.HTTPRequests.WithLabelValues(r.URL.Path, r.Method, code).Inc()
		c.HTTPDuration.WithLabelValues(r.URL.Path, r.Method).Observe(duration)
	})
}
