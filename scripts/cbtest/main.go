// cbtest drives a circuit breaker through its full lifecycle against a
// running todos service: it forces the breaker open via the admin
// injection endpoint, observes the fallback being served, waits out the
// reset timeout, and confirms the probe closes the breaker again.
//
// Usage:
//
//	go run ./scripts/cbtest -service http://localhost:8003 -breaker users-api -reset 30s
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

type breakerStats struct {
	State     string `json:"state"`
	Successes int    `json:"successes"`
	Failures  int    `json:"failures"`
}

type breakersResponse struct {
	Breakers map[string]breakerStats `json:"breakers"`
}

type listResponse struct {
	Degraded   bool `json:"degraded"`
	Enrichment struct {
		Name     string `json:"name"`
		Degraded bool   `json:"degraded"`
	} `json:"enrichment"`
}

func main() {
	var (
		service = flag.String("service", "http://localhost:8003", "Base URL of the todos service")
		breaker = flag.String("breaker", "users-api", "Breaker name to exercise")
		tenant  = flag.String("tenant", "cbtest-tenant", "Tenant id for list requests")
		count   = flag.Int("count", 6, "Synthetic failures to inject")
		reset   = flag.Duration("reset", 30*time.Second, "Configured breaker reset timeout")
	)
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	fmt.Printf("initial state: %s\n", state(client, *service, *breaker))

	body, _ := json.Marshal(map[string]int{"count": *count})
	resp, err := client.Post(*service+"/admin/breakers/"+*breaker+"/failures", "application/json", bytes.NewReader(body))
	if err != nil {
		fail("inject failures: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fail("inject failures: status %d", resp.StatusCode)
	}
	fmt.Printf("injected %d failures, state: %s\n", *count, state(client, *service, *breaker))

	list := listTodos(client, *service, *tenant)
	if !list.Degraded {
		fail("expected a degraded response while the breaker is open")
	}
	fmt.Printf("open breaker served fallback enrichment: %q\n", list.Enrichment.Name)

	fmt.Printf("waiting %s for the reset timeout...\n", *reset+time.Second)
	time.Sleep(*reset + time.Second)

	list = listTodos(client, *service, *tenant)
	fmt.Printf("probe response degraded=%v, state: %s\n", list.Degraded, state(client, *service, *breaker))

	if s := state(client, *service, *breaker); s != "CLOSED" {
		fail("breaker did not close after a successful probe, state: %s", s)
	}
	fmt.Println("breaker lifecycle OK: CLOSED -> OPEN -> HALF_OPEN -> CLOSED")
}

func state(client *http.Client, service, breaker string) string {
	resp, err := client.Get(service + "/breakers")
	if err != nil {
		fail("fetch breakers: %v", err)
	}
	defer resp.Body.Close()

	var parsed breakersResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		fail("decode breakers: %v", err)
	}
	stats, ok := parsed.Breakers[breaker]
	if !ok {
		fail("unknown breaker %q", breaker)
	}
	return stats.State
}

func listTodos(client *http.Client, service, tenant string) listResponse {
	req, _ := http.NewRequest(http.MethodGet, service+"/todos", nil)
	req.Header.Set("X-Tenant-ID", tenant)

	resp, err := client.Do(req)
	if err != nil {
		fail("list todos: %v", err)
	}
	defer resp.Body.Close()

	var parsed listResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		fail("decode list response: %v", err)
	}
	return parsed
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
