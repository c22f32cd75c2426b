package store

import "context"

// Item is a single entry in a tenant's collection.
type Item struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
}

// Collection is the authoritative per-tenant record. Every key in Items is
// unique and less than LastInsertedID, which only ever increases; ids are
// never reused, so deletes leave gaps.
type Collection struct {
	Items          map[int]Item `json:"items"`
	LastInsertedID int          `json:"last_inserted_id"`
}

// Clone returns a deep copy so callers never alias stored state.
func (c *Collection) Clone() *Collection {
	items := make(map[int]Item, len(c.Items))
	for id, item := range c.Items {
		items[id] = item
	}

	return &Collection{
		Items:          items,
		LastInsertedID: c.LastInsertedID,
	}
}

// SortedItems returns the collection's items ordered by id.
func (c *Collection) SortedItems() []Item {
	items := make([]Item, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, item)
	}

	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j-1].ID > items[j].ID; j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}

	return items
}

// Store is the authoritative backing store behind the cache. Load follows a
// get-or-create-default contract: a tenant with no existing collection is
// initialized with the seed collection before the first read returns. Update
// applies fn to the tenant's collection atomically; concurrent updates for
// the same tenant are serialized so read-modify-write cycles never interleave.
type Store interface {
	Load(ctx context.Context, tenantID string) (*Collection, error)
	Update(ctx context.Context, tenantID string, fn func(*Collection) error) error
}

// Seed returns the default collection created for a new tenant: three example
// items and the next id to assign.
func Seed() *Collection {
	return &Collection{
		Items: map[int]Item{
			1: {ID: 1, Content: "Create new todo"},
			2: {ID: 2, Content: "Update me"},
			3: {ID: 3, Content: "Delete example ones"},
		},
		LastInsertedID: 4,
	}
}
