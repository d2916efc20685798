package recent

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultPerUser caps how many product views are kept per user.
	DefaultPerUser = 10
	// maxUsers bounds how many users' view lists stay resident.
	maxUsers = 10_000
)

// Tracker keeps a per-user recently-viewed product list, most recent
// first, de-duplicated on re-view. Process-local and best effort: eviction
// of an idle user's list is acceptable, so both levels are LRU-bounded.
type Tracker struct {
	mu      sync.Mutex
	users   *lru.Cache[string, *lru.Cache[string, struct{}]]
	perUser int
}

func NewTracker(perUser int) (*Tracker, error) {
	if perUser <= 0 {
		perUser = DefaultPerUser
	}
	users, err := lru.New[string, *lru.Cache[string, struct{}]](maxUsers)
	if err != nil {
		return nil, err
	}
	return &Tracker{users: users, perUser: perUser}, nil
}

// Record notes that userID viewed productID. Re-viewing a product moves it
// to the front; the oldest entry falls off once the cap is reached.
func (t *Tracker) Record(userID, productID string) {
	if userID == "" || productID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	views, ok := t.users.Get(userID)
	if !ok {
		var err error
		views, err = lru.New[string, struct{}](t.perUser)
		if err != nil {
			return
		}
		t.users.Add(userID, views)
	}
	views.Add(productID, struct{}{})
}

// Views returns userID's recently viewed product ids, most recent first.
func (t *Tracker) Views(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	views, ok := t.users.Get(userID)
	if !ok {
		return []string{}
	}

	// Keys() is oldest first.
	keys := views.Keys()
	out := make([]string, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		out = append(out, keys[i])
	}
	return out
}

// Forget drops userID's view list. Called on logout.
func (t *Tracker) Forget(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users.Remove(userID)
}
