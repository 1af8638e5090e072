package containers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	q := NewRingQueue[int](3)
	assert.True(t, q.IsEmpty())

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.NoError(t, q.Enqueue(3))
	assert.True(t, q.IsFull())
	assert.ErrorIs(t, q.Enqueue(4), ErrQueueFull)

	front, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, front)

	for want := 1; want <= 3; want++ {
		got, err := q.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueueWrapAround(t *testing.T) {
	q := NewRingQueue[string](2)
	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))

	got, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	require.NoError(t, q.Enqueue("c"))
	assert.Equal(t, 2, q.Len())

	got, _ = q.Dequeue()
	assert.Equal(t, "b", got)
	got, _ = q.Dequeue()
	assert.Equal(t, "c", got)
}

// Producer and consumer goroutines hammer the queue the way the renderer's
// buffer pool is shared between the render thread and the preparation
// goroutine. Run with -race; every enqueued value must come out exactly once.
func TestRingQueueConcurrentProducerConsumer(t *testing.T) {
	const total = 2000
	q := NewRingQueue[int](4)

	seen := make([]bool, total)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			for q.Enqueue(i) != nil {
			}
		}
	}()
	go func() {
		defer wg.Done()
		for received := 0; received < total; {
			v, err := q.Dequeue()
			if err != nil {
				continue
			}
			if seen[v] {
				t.Errorf("value %d dequeued twice", v)
				return
			}
			seen[v] = true
			received++
		}
	}()
	wg.Wait()

	for i, ok := range seen {
		require.True(t, ok, "value %d never dequeued", i)
	}
	assert.True(t, q.IsEmpty())
}
