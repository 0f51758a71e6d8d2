// Package metrics records the outcome of a smoke test run and optionally
// pushes it to a prometheus push gateway. A cli exits too quickly to be
// scraped so push is the only way out.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/datatrails/go-datatrails-smoketest/environment"
)

const (
	PushGatewayEnv = "PUSHGATEWAY_URL"

	JobName = "smoketest"

	kindLabel    = "kind"
	serviceLabel = "service"
)

// SuccessMetric is 1 if the last run matched, 0 otherwise
func SuccessMetric() prometheus.Gauge {
	return prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smoketest_success",
			Help: "1 if the last smoke test run matched the expected results.",
		},
	)
}

// DurationMetric is the wall clock time of the last run in seconds
func DurationMetric() prometheus.Gauge {
	return prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smoketest_duration_seconds",
			Help: "Duration of the last smoke test run.",
		},
	)
}

// LastRunMetric is the unix time the last run finished
func LastRunMetric() prometheus.Gauge {
	return prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smoketest_last_run_timestamp_seconds",
			Help: "Unix time the last smoke test run finished.",
		},
	)
}

// Recorder holds the metrics for one run. Only those metrics are pushed, the
// GoCollector and ProcessCollector metrics are omitted by using our own
// registry.
type Recorder struct {
	log         Logger
	kind        string
	serviceName string
	registry    *prometheus.Registry

	success  prometheus.Gauge
	duration prometheus.Gauge
	lastRun  prometheus.Gauge

	now func() time.Time
}

type RecorderOption func(*Recorder)

// WithClock replaces time.Now
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// New creates a recorder for kind ("redis", "elasticsearch") of smoke test
// run against serviceName.
func New(log Logger, kind string, serviceName string, opts ...RecorderOption) *Recorder {
	r := Recorder{
		log:         log,
		kind:        strings.ToLower(kind),
		serviceName: strings.ToLower(serviceName),
		registry:    prometheus.NewRegistry(),
		success:     SuccessMetric(),
		duration:    DurationMetric(),
		lastRun:     LastRunMetric(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&r)
	}
	r.registry.MustRegister(r.success, r.duration, r.lastRun)
	return &r
}

func (r *Recorder) String() string {
	return r.kind + "/" + r.serviceName
}

// Observe records a run that started at start and finished now with err.
func (r *Recorder) Observe(start time.Time, err error) {
	end := r.now()
	if err != nil {
		r.success.Set(0)
	} else {
		r.success.Set(1)
	}
	r.duration.Set(end.Sub(start).Seconds())
	r.lastRun.Set(float64(end.Unix()))
}

// Push replaces the metrics for this kind and service on the gateway at url.
func (r *Recorder) Push(url string) error {
	err := push.New(url, JobName).
		Gatherer(r.registry).
		Grouping(kindLabel, r.kind).
		Grouping(serviceLabel, r.serviceName).
		Push()
	if err != nil {
		return fmt.Errorf("push %s to %s: %w", r, url, err)
	}
	return nil
}

// PushFromEnv pushes to PUSHGATEWAY_URL if it is set and does nothing
// otherwise.
func (r *Recorder) PushFromEnv() error {
	url, ok := environment.Lookup(PushGatewayEnv)
	if !ok || url == "" {
		r.log.Debugf("metrics not pushed, %s is not set", PushGatewayEnv)
		return nil
	}
	r.log.Infof("pushing %s metrics to %s", r, url)
	return r.Push(url)
}
