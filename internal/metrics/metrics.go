package metrics

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex         sync.RWMutex
	requests      map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	cacheHits     int64
	cacheMisses   int64
	cacheErrors   int64
	fallbacks     map[string]int64
	breakerStates map[string]string
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                        `json:"total_requests"`
	Uptime        time.Duration                `json:"uptime"`
	Operations    map[string]OperationMetrics  `json:"operations"`
	Cache         CacheMetrics                 `json:"cache"`
	Dependencies  map[string]DependencyMetrics `json:"dependencies"`
}

type OperationMetrics struct {
	Requests    int64         `json:"requests"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

type CacheMetrics struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Errors  int64   `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

type DependencyMetrics struct {
	Fallbacks    int64  `json:"fallbacks"`
	BreakerState string `json:"breaker_state"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		fallbacks:     make(map[string]int64),
		breakerStates: make(map[string]string),
		startTime:     time.Now(),
	}
}

func (m *Metrics) IncrementRequests(operation string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[operation]++
}

func (m *Metrics) RecordResponse(operation string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[operation] = append(m.responseTimes[operation], duration)

	if len(m.responseTimes[operation]) > 1000 {
		m.responseTimes[operation] = m.responseTimes[operation][1:]
	}

	if m.statusCodes[operation] == nil {
		m.statusCodes[operation] = make(map[int]int64)
	}
	m.statusCodes[operation][statusCode]++
}

func (m *Metrics) RecordCacheHit() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.cacheHits++
}

func (m *Metrics) RecordCacheMiss() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.cacheMisses++
}

func (m *Metrics) RecordCacheError() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.cacheErrors++
}

func (m *Metrics) RecordFallback(dependency string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.fallbacks[dependency]++
}

func (m *Metrics) UpdateBreakerState(dependency, state string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.breakerStates[dependency] = state
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:       time.Since(m.startTime),
		Operations:   make(map[string]OperationMetrics),
		Dependencies: make(map[string]DependencyMetrics),
	}

	// Collect all operations seen by any counter
	allOperations := make(map[string]bool)
	for op := range m.requests {
		allOperations[op] = true
	}
	for op := range m.responseTimes {
		allOperations[op] = true
	}

	for op := range allOperations {
		snap.TotalRequests += m.requests[op]

		om := OperationMetrics{
			Requests:    m.requests[op],
			StatusCodes: m.statusCodes[op],
		}

		durations := m.responseTimes[op]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			om.AvgResponse = average(sorted)
			om.P50Response = percentile(sorted, 0.50)
			om.P95Response = percentile(sorted, 0.95)
			om.P99Response = percentile(sorted, 0.99)
		}

		snap.Operations[op] = om
	}

	snap.Cache = CacheMetrics{
		Hits:   m.cacheHits,
		Misses: m.cacheMisses,
		Errors: m.cacheErrors,
	}
	if lookups := m.cacheHits + m.cacheMisses; lookups > 0 {
		snap.Cache.HitRate = float64(m.cacheHits) / float64(lookups)
	}

	allDependencies := make(map[string]bool)
	for dep := range m.fallbacks {
		allDependencies[dep] = true
	}
	for dep := range m.breakerStates {
		allDependencies[dep] = true
	}

	for dep := range allDependencies {
		snap.Dependencies[dep] = DependencyMetrics{
			Fallbacks:    m.fallbacks[dep],
			BreakerState: m.breakerStates[dep],
		}
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
