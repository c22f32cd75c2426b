package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pruebaingsoft/todos-service/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("NewMetrics", func() {
		It("should create a new metrics instance", func() {
			Expect(m).NotTo(BeNil())
		})
	})

	Describe("IncrementRequests", func() {
		It("should increment request count for an operation", func() {
			m.IncrementRequests("list")
			m.IncrementRequests("list")

			snap := m.Snapshot()
			Expect(snap.TotalRequests).To(Equal(int64(2)))
			Expect(snap.Operations["list"].Requests).To(Equal(int64(2)))
		})

		It("should track multiple operations separately", func() {
			m.IncrementRequests("list")
			m.IncrementRequests("create")
			m.IncrementRequests("list")

			snap := m.Snapshot()
			Expect(snap.TotalRequests).To(Equal(int64(3)))
			Expect(snap.Operations["list"].Requests).To(Equal(int64(2)))
			Expect(snap.Operations["create"].Requests).To(Equal(int64(1)))
		})
	})

	Describe("RecordResponse", func() {
		It("should record response time and status code", func() {
			m.RecordResponse("list", 100*time.Millisecond, 200)
			m.RecordResponse("list", 200*time.Millisecond, 200)

			snap := m.Snapshot()
			op := snap.Operations["list"]

			Expect(op.AvgResponse).To(Equal(150 * time.Millisecond))
			Expect(op.StatusCodes[200]).To(Equal(int64(2)))
		})

		It("should track different status codes", func() {
			m.RecordResponse("create", 100*time.Millisecond, 200)
			m.RecordResponse("create", 150*time.Millisecond, 400)
			m.RecordResponse("create", 200*time.Millisecond, 500)

			snap := m.Snapshot()
			op := snap.Operations["create"]

			Expect(op.StatusCodes[200]).To(Equal(int64(1)))
			Expect(op.StatusCodes[400]).To(Equal(int64(1)))
			Expect(op.StatusCodes[500]).To(Equal(int64(1)))
		})

		It("should calculate percentiles correctly", func() {
			for i := 1; i <= 100; i++ {
				m.RecordResponse("list", time.Duration(i)*time.Millisecond, 200)
			}

			snap := m.Snapshot()
			op := snap.Operations["list"]

			Expect(op.P50Response).To(BeNumerically("~", 50*time.Millisecond, 1*time.Millisecond))
			Expect(op.P95Response).To(BeNumerically("~", 95*time.Millisecond, 1*time.Millisecond))
			Expect(op.P99Response).To(BeNumerically("~", 99*time.Millisecond, 1*time.Millisecond))
		})

		It("should limit stored response times to 1000", func() {
			for i := 1; i <= 1500; i++ {
				m.RecordResponse("list", time.Duration(i)*time.Millisecond, 200)
			}

			snap := m.Snapshot()
			op := snap.Operations["list"]

			Expect(op.AvgResponse).To(BeNumerically(">", 500*time.Millisecond))
		})
	})

	Describe("cache counters", func() {
		It("should track hits, misses and errors", func() {
			m.RecordCacheHit()
			m.RecordCacheHit()
			m.RecordCacheHit()
			m.RecordCacheMiss()
			m.RecordCacheError()

			snap := m.Snapshot()
			Expect(snap.Cache.Hits).To(Equal(int64(3)))
			Expect(snap.Cache.Misses).To(Equal(int64(1)))
			Expect(snap.Cache.Errors).To(Equal(int64(1)))
			Expect(snap.Cache.HitRate).To(Equal(0.75))
		})

		It("should report zero hit rate without lookups", func() {
			snap := m.Snapshot()
			Expect(snap.Cache.HitRate).To(BeZero())
		})
	})

	Describe("dependency counters", func() {
		It("should track fallbacks per dependency", func() {
			m.RecordFallback("users-api")
			m.RecordFallback("users-api")
			m.RecordFallback("auth-api")

			snap := m.Snapshot()
			Expect(snap.Dependencies["users-api"].Fallbacks).To(Equal(int64(2)))
			Expect(snap.Dependencies["auth-api"].Fallbacks).To(Equal(int64(1)))
		})

		It("should track the latest breaker state", func() {
			m.UpdateBreakerState("users-api", "OPEN")
			snap1 := m.Snapshot()
			Expect(snap1.Dependencies["users-api"].BreakerState).To(Equal("OPEN"))

			m.UpdateBreakerState("users-api", "CLOSED")
			snap2 := m.Snapshot()
			Expect(snap2.Dependencies["users-api"].BreakerState).To(Equal("CLOSED"))
		})
	})

	Describe("Snapshot", func() {
		It("should include uptime", func() {
			time.Sleep(10 * time.Millisecond)

			snap := m.Snapshot()
			Expect(snap.Uptime).To(BeNumerically(">", 0))
		})

		It("should handle empty metrics", func() {
			snap := m.Snapshot()

			Expect(snap.TotalRequests).To(Equal(int64(0)))
			Expect(snap.Operations).To(BeEmpty())
			Expect(snap.Dependencies).To(BeEmpty())
		})

		It("should return independent snapshots", func() {
			m.IncrementRequests("list")

			snap1 := m.Snapshot()
			m.IncrementRequests("list")
			snap2 := m.Snapshot()

			Expect(snap1.TotalRequests).To(Equal(int64(1)))
			Expect(snap2.TotalRequests).To(Equal(int64(2)))
		})
	})
})
