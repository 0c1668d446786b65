package faces

import (
	"fmt"
	"sync"
)

// ImageKey identifies an image by its file and decoded size, so no pixels are kept alive by a cache
func ImageKey(img *Image) string {
	if img.Path == "" {
		return fmt.Sprintf("%p@%dx%d", img, img.Width, img.Height)
	}
	return fmt.Sprintf("%s@%dx%d", img.Path, img.Width, img.Height)
}

// ResultCache keeps per image engine results between Detect and Encode.
// At most Size entries are kept, the oldest one is dropped first.
type ResultCache[T any] struct {
	Size  int
	mutex sync.Mutex
	items map[string]T
	order []string
}

func NewResultCache[T any](size int) *ResultCache[T] {
	if size < 1 {
		size = 1
	}
	return &ResultCache[T]{Size: size, items: map[string]T{}}
}

func (c *ResultCache[T]) Put(key string, value T) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.items[key]; !ok {
		if len(c.order) >= c.Size {
			delete(c.items, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
	}
	c.items[key] = value
}

func (c *ResultCache[T]) Get(key string) (value T, ok bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	value, ok = c.items[key]
	return
}

// Take returns the entry and removes it from the cache
func (c *ResultCache[T]) Take(key string) (value T, ok bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if value, ok = c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return
}

func (c *ResultCache[T]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}
