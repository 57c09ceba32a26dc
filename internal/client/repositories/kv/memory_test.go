package kv

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Basics(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	v, err := r.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	buf := []byte("abc")
	require.NoError(t, r.Set(ctx, "k", buf))
	buf[0] = 'x'

	v, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v, "stored value must not alias the caller's slice")

	require.NoError(t, r.Delete(ctx, "k"))
	v, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, r.Set(ctx, "a", []byte{1}))
	require.NoError(t, r.Set(ctx, "vault:salt", []byte{2}))
	require.NoError(t, r.Clear(ctx))
	assert.Empty(t, r.data)
}

func TestMemoryRepository_SetIfAbsentConverges(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	const n = 16
	results := make([][]byte, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := r.SetIfAbsent(ctx, "vault:salt", []byte{byte(i)})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, results[0], v)
	}
}
