package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks web front end request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts web front end requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration tracks calls to the blog API by method, path, status.
	// status is "error" when the call never got a response.
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blog_api_request_duration_seconds",
			Help:    "Blog API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestTotal counts calls to the blog API by method, path, status.
	APIRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_api_requests_total",
			Help: "Total number of blog API calls",
		},
		[]string{"method", "path", "status"},
	)
)

var (
	idPathSegment = regexp.MustCompile(`/(?:[0-9]+|[0-9a-fA-F]{24}|[0-9a-fA-F-]{36})(/|$)`)
	initOnce      sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, APIRequestDuration, APIRequestTotal)
	})
}

// NormalizePath reduces cardinality by replacing id path segments with {id}.
// E.g. /api/posts/123/like -> /api/posts/{id}/like.
func NormalizePath(path string) string {
	// ReplaceAll does not revisit the shared slash, so run until stable
	for {
		next := idPathSegment.ReplaceAllString(path, "/{id}$1")
		if next == path {
			return next
		}
		path = next
	}
}

// RecordRequest records duration and count for an inbound web request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordAPICall records an outbound blog API call. statusCode 0 means transport failure.
func RecordAPICall(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	APIRequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	APIRequestTotal.WithLabelValues(method, path, status).Inc()
}
