package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stats struct {
	Total int64 `json:"total"`
}

func TestMemoryGetOrLoad(t *testing.T) {
	m := NewMemory(time.Minute, 0)
	ctx := context.Background()
	var calls int32
	load := func(context.Context) (*stats, error) {
		atomic.AddInt32(&calls, 1)
		return &stats{Total: 7}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrLoadJSON(m, ctx, "stats", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.Total)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	m.Flush()
	_, err := GetOrLoadJSON(m, ctx, "stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMemoryExpires(t *testing.T) {
	m := NewMemory(time.Minute, 0)
	ctx := context.Background()
	var calls int32
	load := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("x"), nil
	}
	_, err := m.GetOrLoad(ctx, "k", 20*time.Millisecond, load)
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	_, err = m.GetOrLoad(ctx, "k", 20*time.Millisecond, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMemorySingleflight(t *testing.T) {
	m := NewMemory(time.Minute, 0)
	ctx := context.Background()
	var calls int32
	release := make(chan struct{})
	load := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte("v"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := m.GetOrLoad(ctx, "k", time.Minute, load)
			assert.NoError(t, err)
			assert.Equal(t, "v", string(b))
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestLoadErrorNotCached(t *testing.T) {
	m := NewMemory(time.Minute, 0)
	ctx := context.Background()
	boom := errors.New("boom")
	_, err := m.GetOrLoad(ctx, "k", time.Minute, func(context.Context) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	b, err := m.GetOrLoad(ctx, "k", time.Minute, func(context.Context) ([]byte, error) { return []byte("ok"), nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", string(b))
}

func TestNop(t *testing.T) {
	var calls int
	load := func(context.Context) ([]byte, error) { calls++; return []byte("n"), nil }
	for i := 0; i < 2; i++ {
		_, err := Nop{}.GetOrLoad(context.Background(), "k", time.Minute, load)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

// 需要本地 redis：REDIS_ADDR=127.0.0.1:6379
func TestRedisGetOrLoad(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	r := NewRedis(addr, "", 0)
	defer r.Close()
	ctx := context.Background()
	require.NoError(t, r.Ping(ctx))

	key := "lawdesk:test:" + uuid.NewString()
	defer r.RDB.Del(ctx, key)
	var calls int32
	load := func(context.Context) (*stats, error) {
		atomic.AddInt32(&calls, 1)
		return &stats{Total: 3}, nil
	}
	for i := 0; i < 2; i++ {
		got, err := GetOrLoadJSON(r, ctx, key, time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Total)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
