package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pruebaingsoft/todos-service/internal/store"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

var _ = Describe("Memory", func() {
	var (
		m   *store.Memory
		ctx context.Context
	)

	BeforeEach(func() {
		m = store.NewMemory()
		ctx = context.Background()
	})

	Describe("Load", func() {
		It("should seed a new tenant with three items", func() {
			collection, err := m.Load(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(collection.Items).To(HaveLen(3))
			Expect(collection.Items).To(HaveKey(1))
			Expect(collection.Items).To(HaveKey(2))
			Expect(collection.Items).To(HaveKey(3))
			Expect(collection.LastInsertedID).To(Equal(4))
		})

		It("should keep tenants isolated", func() {
			err := m.Update(ctx, "alice", func(c *store.Collection) error {
				c.Items[c.LastInsertedID] = store.Item{ID: c.LastInsertedID, Content: "mine"}
				c.LastInsertedID++
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			bob, err := m.Load(ctx, "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(bob.Items).To(HaveLen(3))
		})

		It("should return a copy that does not alias stored state", func() {
			collection, _ := m.Load(ctx, "alice")
			collection.Items[99] = store.Item{ID: 99, Content: "rogue"}

			again, _ := m.Load(ctx, "alice")
			Expect(again.Items).NotTo(HaveKey(99))
		})
	})

	Describe("Update", func() {
		It("should persist mutations", func() {
			err := m.Update(ctx, "alice", func(c *store.Collection) error {
				c.Items[c.LastInsertedID] = store.Item{ID: c.LastInsertedID, Content: "new"}
				c.LastInsertedID++
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			collection, _ := m.Load(ctx, "alice")
			Expect(collection.Items).To(HaveLen(4))
			Expect(collection.LastInsertedID).To(Equal(5))
		})

		It("should leave the collection untouched when fn fails", func() {
			failure := errors.New("nope")

			err := m.Update(ctx, "alice", func(c *store.Collection) error {
				c.Items[c.LastInsertedID] = store.Item{ID: c.LastInsertedID, Content: "partial"}
				return failure
			})
			Expect(err).To(MatchError(failure))

			collection, _ := m.Load(ctx, "alice")
			Expect(collection.Items).To(HaveLen(3))
		})

		It("should assign unique ids with no gaps under concurrent creates", func() {
			const creates = 20

			var wg sync.WaitGroup
			ids := make(chan int, creates)

			for i := 0; i < creates; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					m.Update(ctx, "alice", func(c *store.Collection) error {
						id := c.LastInsertedID
						c.Items[id] = store.Item{ID: id, Content: "concurrent"}
						c.LastInsertedID++
						ids <- id
						return nil
					})
				}()
			}
			wg.Wait()
			close(ids)

			seen := make(map[int]bool)
			for id := range ids {
				Expect(seen[id]).To(BeFalse(), "id %d assigned twice", id)
				seen[id] = true
			}

			// Seeded counter starts at 4; N creates take 4..4+N-1 with no gaps
			for id := 4; id < 4+creates; id++ {
				Expect(seen[id]).To(BeTrue(), "id %d missing", id)
			}

			collection, _ := m.Load(ctx, "alice")
			Expect(collection.LastInsertedID).To(Equal(4 + creates))
		})
	})
})

var _ = Describe("Collection", func() {
	Describe("SortedItems", func() {
		It("should order items by id", func() {
			c := &store.Collection{
				Items: map[int]store.Item{
					7: {ID: 7, Content: "c"},
					1: {ID: 1, Content: "a"},
					3: {ID: 3, Content: "b"},
				},
			}

			items := c.SortedItems()
			Expect(items).To(HaveLen(3))
			Expect(items[0].ID).To(Equal(1))
			Expect(items[1].ID).To(Equal(3))
			Expect(items[2].ID).To(Equal(7))
		})
	})
})
