package monitor

import (
	"sort"
	"sync"
	"time"
)

type operation struct {
	timer  *Timer
	errors Counter
}

// Recorder collects timings and error counts per operation name.
// It is safe for concurrent use.
type Recorder struct {
	mu         sync.RWMutex
	operations map[string]*operation
	started    time.Time
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{
		operations: make(map[string]*operation),
		started:    time.Now(),
	}
}

// Observe records one completed call of op
func (r *Recorder) Observe(op string, elapsed time.Duration, err error) {
	o := r.operation(op)
	o.timer.Record(elapsed)
	if err != nil {
		o.errors.Inc()
	}
}

// Track times fn and records its outcome under op
func (r *Recorder) Track(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.Observe(op, time.Since(start), err)
	return err
}

func (r *Recorder) operation(op string) *operation {
	r.mu.RLock()
	o, ok := r.operations[op]
	r.mu.RUnlock()
	if ok {
		return o
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok = r.operations[op]; !ok {
		o = &operation{timer: NewTimer()}
		r.operations[op] = o
	}
	return o
}

// Snapshot returns the stats of every operation seen so far, sorted by name
func (r *Recorder) Snapshot() []OperationStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]OperationStats, 0, len(r.operations))
	for name, o := range r.operations {
		stats = append(stats, OperationStats{
			Operation: name,
			Count:     o.timer.Count(),
			Errors:    o.errors.Get(),
			TotalTime: o.timer.TotalTime(),
			MinTime:   o.timer.MinTime(),
			MaxTime:   o.timer.MaxTime(),
			AvgTime:   o.timer.AvgTime(),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Operation < stats[j].Operation })
	return stats
}

// Uptime returns how long the recorder has existed
func (r *Recorder) Uptime() time.Duration {
	return time.Since(r.started)
}
