package model

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/banshee-data/trajectory.model/internal/grid"
)

// cache holds grid query results keyed by the exact bits of the query
// axes and spread width. Entries are never evicted.
type cache[T any] struct {
	mu          sync.Mutex
	entries     map[string]*grid.Grid[T]
	evaluations int // misses that ran an evaluation
}

// cacheKey encodes a spread width and axis set so that two keys are equal
// only when every value is bit-identical.
func cacheKey(width float64, axes [][]float64) string {
	n := 8 + 8
	for _, ax := range axes {
		n += 8 + 8*len(ax)
	}
	buf := make([]byte, 0, n)
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(width))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(axes)))
	for _, ax := range axes {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(ax)))
		for _, v := range ax {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return string(buf)
}

// get returns a copy of the cached grid for key.
func (c *cache[T]) get(key string) (*grid.Grid[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// getOrEval returns the cached grid for key, or runs eval and stores its
// result. The lock is not held during eval, so concurrent misses on one
// key may each evaluate; the first stored result wins.
func (c *cache[T]) getOrEval(key string, eval func() (*grid.Grid[T], error)) (*grid.Grid[T], error) {
	if g, ok := c.get(key); ok {
		return g, nil
	}
	g, err := eval()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evaluations++
	if c.entries == nil {
		c.entries = make(map[string]*grid.Grid[T])
	}
	if prev, ok := c.entries[key]; ok {
		return prev.Clone(), nil
	}
	c.entries[key] = g.Clone()
	return g, nil
}

func (c *cache[T]) stats() (entries, evaluations int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), c.evaluations
}
