package kb

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheLoadsOncePerKey(t *testing.T) {
	c := NewCache()
	var loads atomic.Int32
	load := func() (*KnowledgeBase, error) {
		loads.Add(1)
		return &KnowledgeBase{Name: "a", Version: "v1"}, nil
	}

	var wg sync.WaitGroup
	results := make([]*KnowledgeBase, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := c.Get("a", load)
			assert.NoError(t, err)
			results[i] = k
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, k := range results {
		assert.Same(t, results[0], k)
	}
}

func TestCacheForgetsFailedLoads(t *testing.T) {
	c := NewCache()
	boom := errors.New("boom")

	_, err := c.Get("b", func() (*KnowledgeBase, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	k, err := c.Get("b", func() (*KnowledgeBase, error) { return &KnowledgeBase{Name: "b"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "b", k.Name)
}

func TestCachePutKeepsFirstValue(t *testing.T) {
	c := NewCache()
	first := &KnowledgeBase{Name: "kb", Version: "111"}
	second := &KnowledgeBase{Name: "kb", Version: "111"}

	assert.Same(t, first, c.Put(first))
	assert.Same(t, first, c.Put(second))
	assert.Equal(t, []string{"kb@111"}, c.Keys())
}
