package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGetDel(t *testing.T) {
	c := New()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	b, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(b))

	require.NoError(t, c.Del(ctx, "k"))
	b, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestGetCopiesValue(t *testing.T) {
	c := New()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("abc"), 0))
	b, err := c.Get(ctx, "k")
	require.NoError(t, err)
	b[0] = 'x'

	b2, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(b2))
}

func TestTTL(t *testing.T) {
	c := New()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 1))
	// вручную двигаем дедлайн в прошлое, чтобы не спать в тесте
	c.mu.Lock()
	e := c.m["k"]
	e.deadline = time.Now().Add(-time.Second)
	c.m["k"] = e
	c.mu.Unlock()

	b, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Nil(t, b)
}
