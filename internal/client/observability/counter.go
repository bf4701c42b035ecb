package observability

import "sync"

// PendingCounter counts operations that started but have not terminated yet.
// Listeners are notified in change order; they must not modify the counter.
//
// Reset starts a new epoch. Operations acquired before it are already
// written off, so their Release does not touch the new count.
type PendingCounter struct {
	listeners map[int]func(int)
	notifyMu  sync.Mutex
	mu        sync.Mutex
	value     int
	nextID    int
	epoch     uint64
}

// NewPendingCounter creates a counter starting at zero
func NewPendingCounter() *PendingCounter {
	return &PendingCounter{listeners: make(map[int]func(int))}
}

// Inc increments the counter
func (c *PendingCounter) Inc() {
	c.change(func(v int) int { return v + 1 })
}

// Dec decrements the counter. The value never goes below zero.
func (c *PendingCounter) Dec() {
	c.change(func(v int) int { return max(v-1, 0) })
}

// Acquire increments the counter and returns the epoch to pass to Release
func (c *PendingCounter) Acquire() (epoch uint64) {
	c.change(func(v int) int {
		epoch = c.epoch
		return v + 1
	})
	return epoch
}

// Release decrements the counter if no Reset happened since the matching Acquire
func (c *PendingCounter) Release(epoch uint64) {
	c.change(func(v int) int {
		if epoch != c.epoch {
			return v
		}
		return max(v-1, 0)
	})
}

// Reset sets the counter to zero and starts a new epoch
func (c *PendingCounter) Reset() {
	c.change(func(int) int {
		c.epoch++
		return 0
	})
}

// Value returns the current value
func (c *PendingCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Subscribe registers fn, calls it immediately with the current value
// and on every change afterwards. The returned func unsubscribes.
func (c *PendingCounter) Subscribe(fn func(int)) (unsubscribe func()) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	v := c.value
	c.mu.Unlock()

	safeCall(func() { fn(v) })

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// change применяет apply под c.mu и оповещает слушателей, если значение изменилось
func (c *PendingCounter) change(apply func(int) int) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	prev := c.value
	c.value = apply(prev)
	v := c.value
	listeners := make([]func(int), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	if v == prev {
		return
	}
	for _, l := range listeners {
		safeCall(func() { l(v) })
	}
}

// safeCall не дает панике слушателя повлиять на бизнес-логику
func safeCall(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
