package circuitbreaker_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pruebaingsoft/todos-service/internal/circuitbreaker"
)

var _ = Describe("Registry", func() {
	var registry *circuitbreaker.Registry

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(circuitbreaker.DefaultOptions(), circuitbreaker.Hooks{})
	})

	Describe("NewRegistry", func() {
		It("should create a registry", func() {
			Expect(registry).NotTo(BeNil())
		})
	})

	Describe("GetBreaker", func() {
		It("should create a new breaker for an unknown name", func() {
			cb := registry.GetBreaker("users-api", nil)
			Expect(cb).NotTo(BeNil())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should return the same breaker for the same name", func() {
			first := registry.GetBreaker("users-api", nil)
			second := registry.GetBreaker("users-api", nil)
			Expect(first).To(BeIdenticalTo(second))
		})

		It("should create distinct breakers per dependency", func() {
			users := registry.GetBreaker("users-api", nil)
			auth := registry.GetBreaker("auth-api", nil)
			Expect(users).NotTo(BeIdenticalTo(auth))
		})

		It("should attach the fallback only at creation", func() {
			cb := registry.GetBreaker("users-api",
				func(ctx context.Context, input any, cause error) (any, error) { return "degraded", nil })
			cb.ForceFailures(6)

			result, err := cb.Execute(context.Background(), nil, succeeding)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.UsedFallback).To(BeTrue())
		})

		It("should be safe for concurrent access", func() {
			var wg sync.WaitGroup
			breakers := make([]*circuitbreaker.CircuitBreaker, 20)

			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					breakers[i] = registry.GetBreaker("users-api", nil)
				}(i)
			}
			wg.Wait()

			for i := 1; i < 20; i++ {
				Expect(breakers[i]).To(BeIdenticalTo(breakers[0]))
			}
		})
	})

	Describe("Lookup", func() {
		It("should find an existing breaker", func() {
			registry.GetBreaker("users-api", nil)

			cb, ok := registry.Lookup("users-api")
			Expect(ok).To(BeTrue())
			Expect(cb).NotTo(BeNil())
		})

		It("should not create breakers", func() {
			_, ok := registry.Lookup("users-api")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Stats", func() {
		It("should report stats for every breaker", func() {
			registry.GetBreaker("users-api", nil)
			registry.GetBreaker("auth-api", nil).ForceFailures(6)

			stats := registry.Stats()
			Expect(stats).To(HaveLen(2))
			Expect(stats["users-api"].State).To(Equal("CLOSED"))
			Expect(stats["auth-api"].State).To(Equal("OPEN"))
		})
	})

	Describe("Reset", func() {
		It("should drop all breakers", func() {
			registry.GetBreaker("users-api", nil)
			registry.Reset()

			_, ok := registry.Lookup("users-api")
			Expect(ok).To(BeFalse())
			Expect(registry.Stats()).To(BeEmpty())
		})
	})
})

var _ = Describe("DefaultOptions", func() {
	It("should match the documented defaults", func() {
		opts := circuitbreaker.DefaultOptions()
		Expect(opts.VolumeThreshold).To(Equal(5))
		Expect(opts.ErrorThresholdPercent).To(Equal(50.0))
		Expect(opts.ResetTimeout).To(Equal(30 * time.Second))
		Expect(opts.RollingWindow).To(Equal(10 * time.Second))
		Expect(opts.RollingBuckets).To(Equal(10))
		Expect(opts.CallTimeout).To(Equal(3 * time.Second))
	})
})
