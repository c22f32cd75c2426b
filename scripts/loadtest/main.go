// loadtest is a concurrent HTTP load testing tool for the todos service.
// It measures throughput, latency percentiles, and the cache hit rate
// reported in list responses.
//
// Usage:
//
//	go run ./scripts/loadtest -url http://localhost:8003/todos -concurrency 10 -requests 1000
//	go run ./scripts/loadtest -url http://localhost:8003/todos -tenants 50 -out summary.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type listResponse struct {
	CacheHit bool `json:"cache_hit"`
	Degraded bool `json:"degraded"`
}

type summary struct {
	Requests  int     `json:"requests"`
	Success   int     `json:"success"`
	Failure   int     `json:"failure"`
	CacheHits int     `json:"cache_hits"`
	Degraded  int     `json:"degraded"`
	HitRate   float64 `json:"hit_rate"`
	Duration  string  `json:"duration"`
	ReqPerSec float64 `json:"req_per_sec"`
	P50Millis float64 `json:"p50_ms"`
	P90Millis float64 `json:"p90_ms"`
	P99Millis float64 `json:"p99_ms"`
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:8003/todos", "Target URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 1000, "Total number of requests to send")
		tenants     = flag.Int("tenants", 10, "Distinct tenant ids to rotate through")
		timeoutSec  = flag.Int("timeout", 10, "Per-request timeout in seconds")
	)
	outJSON := flag.String("out", "", "Write JSON summary to this file (optional)")
	flag.Parse()

	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var success, failure, cacheHits, degraded int64
	latencies := make([]time.Duration, *requests)

	start := time.Now()
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				req, err := http.NewRequest(http.MethodGet, *url, nil)
				if err != nil {
					atomic.AddInt64(&failure, 1)
					continue
				}
				req.Header.Set("X-Tenant-ID", fmt.Sprintf("loadtest-%d", i%*tenants))

				begin := time.Now()
				resp, err := client.Do(req)
				latencies[i] = time.Since(begin)
				if err != nil {
					atomic.AddInt64(&failure, 1)
					continue
				}

				var parsed listResponse
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()

				if resp.StatusCode != http.StatusOK || json.Unmarshal(body, &parsed) != nil {
					atomic.AddInt64(&failure, 1)
					continue
				}

				atomic.AddInt64(&success, 1)
				if parsed.CacheHit {
					atomic.AddInt64(&cacheHits, 1)
				}
				if parsed.Degraded {
					atomic.AddInt64(&degraded, 1)
				}
			}
		}()
	}

	for i := 0; i < *requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	result := summary{
		Requests:  *requests,
		Success:   int(success),
		Failure:   int(failure),
		CacheHits: int(cacheHits),
		Degraded:  int(degraded),
		Duration:  elapsed.String(),
		ReqPerSec: float64(*requests) / elapsed.Seconds(),
		P50Millis: percentile(latencies, 0.50),
		P90Millis: percentile(latencies, 0.90),
		P99Millis: percentile(latencies, 0.99),
	}
	if success > 0 {
		result.HitRate = float64(cacheHits) / float64(success)
	}

	fmt.Printf("requests=%d success=%d failure=%d hit_rate=%.2f degraded=%d\n",
		result.Requests, result.Success, result.Failure, result.HitRate, result.Degraded)
	fmt.Printf("throughput=%.1f req/s p50=%.1fms p90=%.1fms p99=%.1fms\n",
		result.ReqPerSec, result.P50Millis, result.P90Millis, result.P99Millis)

	if *outJSON != "" {
		payload, _ := json.MarshalIndent(result, "", "  ")
		if err := os.WriteFile(*outJSON, payload, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write summary: %v\n", err)
			os.Exit(1)
		}
	}
}

func percentile(sorted []time.Duration, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return float64(sorted[idx].Microseconds()) / 1000.0
}
