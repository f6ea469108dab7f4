package statsd

import (
	"maps"
	"sync"
	"time"
)

// Metric is one observation captured by Recorder.
type Metric struct {
	Name     string
	Value    int64
	Duration time.Duration
	Tags     map[string]string
}

// Recorder is an in-memory Sink for tests.
type Recorder struct {
	mu      sync.Mutex
	metrics []Metric
}

var _ Sink = (*Recorder)(nil)

// Count records a counter observation.
func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Metric{Name: name, Value: value, Tags: maps.Clone(tags)})
}

// Timing records a timing observation.
func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Metric{Name: name, Duration: value, Tags: maps.Clone(tags)})
}

func (r *Recorder) add(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, m)
}

// Metrics returns every observation recorded so far.
func (r *Recorder) Metrics() []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Metric(nil), r.metrics...)
}

// Named returns the observations recorded under name.
func (r *Recorder) Named(name string) []Metric {
	var out []Metric
	for _, m := range r.Metrics() {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}
