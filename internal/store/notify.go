package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification.
type Kind string

// Notification kinds.
const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// DefaultNotificationTTL is how long a notification stays listed.
const DefaultNotificationTTL = 5 * time.Second

// Notification is one user-facing message.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifier receives user-facing messages from the stores. Delivery never
// affects the outcome of the store operation.
type Notifier interface {
	Notify(message string, kind Kind)
}

// Collector is a Notifier that keeps notifications in memory and drops each
// one after its TTL. A zero TTL keeps them until removed.
type Collector struct {
	ttl time.Duration

	mu     sync.Mutex
	items  []Notification
	timers map[string]*time.Timer
}

// NewCollector creates a Collector with the given TTL.
func NewCollector(ttl time.Duration) *Collector {
	return &Collector{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Notify implements Notifier.
func (c *Collector) Notify(message string, kind Kind) {
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
	if c.ttl > 0 {
		c.timers[n.ID] = time.AfterFunc(c.ttl, func() { c.Remove(n.ID) })
	}
}

// List returns the current notifications, oldest first.
func (c *Collector) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Remove drops the notification with id. Unknown ids are ignored.
func (c *Collector) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}
