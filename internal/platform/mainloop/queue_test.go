package mainloop

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsInOrder(t *testing.T) {
	q := New(nil)
	defer q.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, q.Dispatch(func() { got = append(got, i) }))
	}
	q.Flush()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueueSerializesConcurrentDispatch(t *testing.T) {
	q := New(nil)
	defer q.Close()

	running := 0
	maxRunning := 0
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = q.Dispatch(func() {
					running++
					maxRunning = max(maxRunning, running)
					count++
					running--
				})
			}
		}()
	}
	wg.Wait()
	q.Flush()

	assert.Equal(t, 400, count)
	assert.Equal(t, 1, maxRunning)
}

func TestQueueCallbackMayDispatch(t *testing.T) {
	q := New(nil)
	defer q.Close()

	var order []string
	done := make(chan struct{})
	require.NoError(t, q.Dispatch(func() {
		order = append(order, "outer")
		_ = q.Dispatch(func() {
			order = append(order, "inner")
			close(done)
		})
	}))
	<-done

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestQueueSurvivesPanic(t *testing.T) {
	q := New(nil)
	defer q.Close()

	ran := false
	require.NoError(t, q.Dispatch(func() { panic("boom") }))
	require.NoError(t, q.Dispatch(func() { ran = true }))
	q.Flush()

	assert.True(t, ran)
}

func TestQueueCloseDrainsPending(t *testing.T) {
	q := New(nil)

	n := 0
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Dispatch(func() { n++ }))
	}
	q.Close()

	assert.Equal(t, 10, n)
	assert.ErrorIs(t, q.Dispatch(func() {}), ErrClosed)
	q.Close()
	q.Flush()
}
