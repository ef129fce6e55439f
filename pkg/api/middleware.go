package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	chi_middleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// PskValidatorMiddleware rejects requests that do not carry one of the
// pre-shared frontend keys.
func PskValidatorMiddleware(keys []string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			psk := r.Header.Get("X-PSK")
			for _, key := range keys {
				if key == psk {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintf(w, "Unauthorized access: Invalid key")
		}
		return http.HandlerFunc(fn)
	}
}

func RequestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			log.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			}).Tracef("Incoming request")
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30}

// prometheusMiddleware exposes request count and latency partitioned by
// status code, method and path. Derived from github.com/766b/chi-prometheus.
type prometheusMiddleware struct {
	reqs    *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func PrometheusMiddleware(name string) func(next http.Handler) http.Handler {
	m := &prometheusMiddleware{
		reqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "requests_total",
			Help:        "How many HTTP requests processed, partitioned by status code, method and HTTP path.",
			ConstLabels: prometheus.Labels{"service": name},
		}, []string{"code", "method", "path"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "request_duration_seconds",
			Help:        "How long it took to process the request, partitioned by status code, method and HTTP path.",
			ConstLabels: prometheus.Labels{"service": name},
			Buckets:     defaultBuckets,
		}, []string{"code", "method", "path"}),
	}

	prometheus.MustRegister(m.reqs)
	prometheus.MustRegister(m.latency)

	return m.handler
}

func (m *prometheusMiddleware) handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chi_middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		statusCode := strconv.Itoa(ww.Status())
		m.reqs.WithLabelValues(statusCode, r.Method, r.URL.Path).Inc()
		m.latency.WithLabelValues(statusCode, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	}
	return http.HandlerFunc(fn)
}
