package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Memory 进程内缓存，单实例部署或没有 redis 时使用
type Memory struct {
	c  *gocache.Cache
	sf singleflight.Group
}

func NewMemory(defaultTTL, cleanup time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, cleanup)}
}

func (m *Memory) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok := m.c.Get(key); ok {
		return v.([]byte), nil
	}
	v, err, _ := m.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		m.c.Set(key, b, ttl)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Flush 清空（管理端重算后使用）
func (m *Memory) Flush() { m.c.Flush() }

// Nop 不缓存，每次回源
type Nop struct{}

func (Nop) GetOrLoad(ctx context.Context, _ string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	return load(ctx)
}
