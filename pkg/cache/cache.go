// Package cache provides a weighted least recently used cache.
package cache

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrKeyExists  = errors.New("key already exists in cache")
	ErrOverBudget = errors.New("item weight exceeds cache budget")
)

type node struct {
	next   *node
	prev   *node
	key    string
	value  interface{}
	weight int
}

// Cache evicts the least recently used items once the total weight of its
// items exceeds the budget. It is safe for concurrent use.
type Cache struct {
	log *logrus.Entry

	mu     sync.Mutex
	head   *node
	tail   *node
	lookup map[string]*node
	weight int
	budget int
}

func New(budget int) *Cache {
	return &Cache{
		log:    logrus.StandardLogger().WithField("type", "cache"),
		lookup: make(map[string]*node),
		budget: budget,
	}
}

// Weight returns the current total weight of items in the cache.
func (c *Cache) Weight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weight
}

func (c *Cache) Budget() int {
	return c.budget
}

// Insert adds a new item as the most recently used one, evicting as needed.
func (c *Cache) Insert(key string, value interface{}, weight int) error {
	if weight > c.budget {
		return errors.Wrapf(ErrOverBudget, "%d > %d", weight, c.budget)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lookup[key]; ok {
		return ErrKeyExists
	}

	n := &node{
		key:    key,
		value:  value,
		weight: weight,
	}
	c.pushFront(n)
	c.lookup[key] = n
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.unlink(evicted)
		delete(c.lookup, evicted.key)
		c.weight -= evicted.weight

		c.log.WithFields(logrus.Fields{
			"weight":       evicted.weight,
			"spare_weight": c.budget - c.weight,
		}).Trace("evicted cache item")
	}

	return nil
}

// Retrieve returns the item for key and marks it as most recently used.
func (c *Cache) Retrieve(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.lookup[key]
	if !ok {
		return nil, false
	}

	if n != c.head {
		c.unlink(n)
		c.pushFront(n)
	}

	return n.value, true
}

// Clear removes every item.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[string]*node)
	c.weight = 0
}

func (c *Cache) pushFront(n *node) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *Cache) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.next = nil
	n.prev = nil
}
