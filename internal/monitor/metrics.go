package monitor

import (
	"math"
	"sync/atomic"
	"time"
)

const noMinTime = math.MaxInt64

// Counter is a thread-safe counter metric
type Counter struct {
	value int64
}

// Inc increments the counter by 1
func (c *Counter) Inc() {
	atomic.AddInt64(&c.value, 1)
}

// Get returns the current counter value
func (c *Counter) Get() int64 {
	return atomic.LoadInt64(&c.value)
}

// Timer is a thread-safe timer for measuring operation durations
type Timer struct {
	count     int64
	totalTime int64
	minTime   int64
	maxTime   int64
}

// NewTimer creates a new timer metric
func NewTimer() *Timer {
	return &Timer{minTime: noMinTime}
}

// Record records a duration measurement
func (t *Timer) Record(duration time.Duration) {
	nanos := duration.Nanoseconds()

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalTime, nanos)

	for {
		current := atomic.LoadInt64(&t.minTime)
		if nanos >= current || atomic.CompareAndSwapInt64(&t.minTime, current, nanos) {
			break
		}
	}

	for {
		current := atomic.LoadInt64(&t.maxTime)
		if nanos <= current || atomic.CompareAndSwapInt64(&t.maxTime, current, nanos) {
			break
		}
	}
}

// Count returns the number of recorded measurements
func (t *Timer) Count() int64 {
	return atomic.LoadInt64(&t.count)
}

// TotalTime returns the total time of all measurements
func (t *Timer) TotalTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.totalTime))
}

// MinTime returns the minimum recorded time
func (t *Timer) MinTime() time.Duration {
	minTime := atomic.LoadInt64(&t.minTime)
	if minTime == noMinTime {
		return 0
	}
	return time.Duration(minTime)
}

// MaxTime returns the maximum recorded time
func (t *Timer) MaxTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.maxTime))
}

// AvgTime returns the average time of all measurements
func (t *Timer) AvgTime() time.Duration {
	count := atomic.LoadInt64(&t.count)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&t.totalTime) / count)
}

// OperationStats is a point-in-time view of one operation
type OperationStats struct {
	Operation string        `json:"operation"`
	Count     int64         `json:"count"`
	Errors    int64         `json:"errors"`
	TotalTime time.Duration `json:"total_time_ns"`
	MinTime   time.Duration `json:"min_time_ns"`
	MaxTime   time.Duration `json:"max_time_ns"`
	AvgTime   time.Duration `json:"avg_time_ns"`
}

// SuccessRate returns the share of calls that returned no error
func (s OperationStats) SuccessRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Count-s.Errors) / float64(s.Count)
}
