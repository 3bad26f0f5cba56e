// SPDX-License-Identifier: MIT
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCachesWithinTTL(t *testing.T) {
	c := New[int](time.Minute)
	var calls atomic.Int32

	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		return 42, nil
	}

	v, err := c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetSingleFlight(t *testing.T) {
	c := New[string](time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k", fetch)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	// Give both goroutines time to reach the flight before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers must share one fetch")
	assert.Equal(t, []string{"v", "v"}, results)
}

func TestGetFailureNotCached(t *testing.T) {
	c := New[int](time.Minute)
	var calls atomic.Int32

	_, err := c.Get(context.Background(), "k", func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("boom")
	})
	require.Error(t, err)

	v, err := c.Get(context.Background(), "k", func(context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, int32(2), calls.Load(), "a failed fetch must not be cached")
}

func TestGetRefetchesAfterExpiry(t *testing.T) {
	c := New[int](10 * time.Millisecond)
	var calls atomic.Int32

	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		return int(calls.Load()), nil
	}

	v, err := c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	time.Sleep(20 * time.Millisecond)

	v, err = c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestInvalidate(t *testing.T) {
	c := New[int](time.Minute)
	var calls atomic.Int32
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	}

	_, err := c.Get(context.Background(), "a", fetch)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "b", fetch)
	require.NoError(t, err)

	c.Invalidate("a")
	_, ok := c.Peek("a")
	assert.False(t, ok)
	_, ok = c.Peek("b")
	assert.True(t, ok)

	c.InvalidateAll()
	_, ok = c.Peek("b")
	assert.False(t, ok)
}
