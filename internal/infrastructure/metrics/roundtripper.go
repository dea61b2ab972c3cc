package metrics

import (
	"net/http"
	"time"
)

// Recorder records per-operation request metrics. Both Collector and
// PrometheusExporter implement it.
type Recorder interface {
	RecordRequest(operation string)
	RecordDuration(operation string, durationSeconds float64)
	RecordError(operation string)
}

// RoundTripper wraps an http.RoundTripper and records request counts,
// durations, and errors for every authority request passing through it.
type RoundTripper struct {
	next      http.RoundTripper
	recorders []Recorder
}

// NewRoundTripper creates an instrumented RoundTripper.
// If next is nil, http.DefaultTransport is used.
func NewRoundTripper(next http.RoundTripper, recorders ...Recorder) *RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &RoundTripper{
		next:      next,
		recorders: recorders,
	}
}

// RoundTrip implements http.RoundTripper.
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	operation := req.Method + " " + req.URL.Path

	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	for _, r := range rt.recorders {
		r.RecordRequest(operation)
		r.RecordDuration(operation, duration)
		if err != nil || (resp != nil && resp.StatusCode >= http.StatusInternalServerError) {
			r.RecordError(operation)
		}
	}

	return resp, err
}
