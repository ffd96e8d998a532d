// ABOUTME: Thread-safe TTL set of already-handled interaction keys.
// ABOUTME: Shared by all sessions; keys combine account and message id.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key    string
	marked time.Time
}

// Cache is a size-bounded set whose members expire after a TTL. Expired
// entries are pruned lazily on write, oldest first, so no background
// goroutine is needed.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// New creates a cache holding at most maxSize keys for ttl each.
func New(ttl time.Duration, maxSize int) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Key builds the cache key for an account acting on a message.
func Key(account, messageID string) string {
	return account + "/" + messageID
}

// Seen reports whether key is present and not expired.
func (c *Cache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.seen[key]
	if !ok {
		return false
	}
	return c.now().Sub(elem.Value.(*entry).marked) < c.ttl
}

// Claim marks key and returns true if it was not already present. Only one
// of several concurrent callers claiming the same key gets true.
func (c *Cache) Claim(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.pruneLocked(now)

	if elem, ok := c.seen[key]; ok {
		if now.Sub(elem.Value.(*entry).marked) < c.ttl {
			return false
		}
		c.order.Remove(elem)
		delete(c.seen, key)
	}

	for len(c.seen) >= c.maxSize {
		c.removeLocked(c.order.Front())
	}

	c.seen[key] = c.order.PushBack(&entry{key: key, marked: now})
	return true
}

// Release forgets key, allowing it to be claimed again.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.seen[key]; ok {
		c.removeLocked(elem)
	}
}

// Len returns the number of keys currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// pruneLocked drops expired entries from the front of the list. Entries are
// appended in mark order, so the scan stops at the first live one.
func (c *Cache) pruneLocked(now time.Time) {
	for front := c.order.Front(); front != nil; front = c.order.Front() {
		if now.Sub(front.Value.(*entry).marked) < c.ttl {
			return
		}
		c.removeLocked(front)
	}
}

func (c *Cache) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	c.order.Remove(elem)
	delete(c.seen, elem.Value.(*entry).key)
}
