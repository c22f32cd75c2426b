package circuitbreaker

import "time"

// BucketCounts is the success/failure tally of a single rolling-window bucket.
type BucketCounts struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

type windowBucket struct {
	start     time.Time
	successes int
	failures  int
}

// rollingWindow tracks call outcomes over a fixed wall-clock duration split
// into equal buckets. Buckets older than the window age out as time advances,
// independent of call arrival. Not safe for concurrent use; the owning
// breaker serializes access.
type rollingWindow struct {
	span       time.Duration
	bucketSpan time.Duration
	buckets    []windowBucket
}

func newRollingWindow(span time.Duration, bucketCount int) *rollingWindow {
	return &rollingWindow{
		span:       span,
		bucketSpan: span / time.Duration(bucketCount),
	}
}

func (w *rollingWindow) record(now time.Time, success bool) {
	w.evict(now)

	b := w.current(now)
	if success {
		b.successes++
	} else {
		b.failures++
	}
}

func (w *rollingWindow) counts(now time.Time) (successes, failures int) {
	w.evict(now)

	for _, b := range w.buckets {
		successes += b.successes
		failures += b.failures
	}

	return successes, failures
}

func (w *rollingWindow) snapshot(now time.Time) []BucketCounts {
	w.evict(now)

	out := make([]BucketCounts, len(w.buckets))
	for i, b := range w.buckets {
		out[i] = BucketCounts{Successes: b.successes, Failures: b.failures}
	}

	return out
}

func (w *rollingWindow) reset() {
	w.buckets = w.buckets[:0]
}

// current returns the bucket covering now, creating it if time has moved past
// the newest one. Buckets are aligned to bucketSpan boundaries.
func (w *rollingWindow) current(now time.Time) *windowBucket {
	start := now.Truncate(w.bucketSpan)

	if n := len(w.buckets); n > 0 && w.buckets[n-1].start.Equal(start) {
		return &w.buckets[n-1]
	}

	w.buckets = append(w.buckets, windowBucket{start: start})

	return &w.buckets[len(w.buckets)-1]
}

func (w *rollingWindow) evict(now time.Time) {
	cutoff := now.Add(-w.span)

	i := 0
	for i < len(w.buckets) && !w.buckets[i].start.After(cutoff) {
		i++
	}

	if i > 0 {
		w.buckets = append(w.buckets[:0], w.buckets[i:]...)
	}
}
