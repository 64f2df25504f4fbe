package providers

import (
	"net/http"
	"path"
	"time"

	"quotad/internal/structures"
)

const unmatchedEndpoint = "unmatched"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// endpointLabels maps each registered URL to its operation name, the last
// path segment ("/v1/usage/ad-reward" is "ad-reward").
func endpointLabels(routes []structures.Route) map[string]string {
	labels := make(map[string]string, len(routes))
	for _, route := range routes {
		labels[route.Url] = path.Base(route.Url)
	}
	return labels
}

// MetricsMiddleware records count and latency per quota operation and writes
// an access line to the GET or POST log. Paths outside routes share the
// "unmatched" label.
func MetricsMiddleware(metrics MetricsProviderInterface, logger Logger, routes []structures.Route, next http.Handler) http.Handler {
	labels := endpointLabels(routes)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		endpoint, ok := labels[r.URL.Path]
		if !ok {
			endpoint = unmatchedEndpoint
		}
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, duration)
		logger.Debugf(GetLogTypeByRequestType(r.Method), "%s %s %s %d %s", endpoint, r.Method, r.URL.Path, sw.status, duration)
	})
}
