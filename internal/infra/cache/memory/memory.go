// Пакет memory — кеш в памяти процесса. Используется, когда Redis не
// сконфигурирован: клиенту кеш локаторов нужен, но внешний сервис — нет.
package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	val      []byte
	deadline time.Time // нулевое значение — без TTL
}

type Cache struct {
	mu sync.Mutex
	m  map[string]entry
}

func New() *Cache {
	return &Cache{m: make(map[string]entry)}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, nil
	}
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		delete(c.m, key)
		return nil, nil
	}
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, nil
}

func (c *Cache) Set(_ context.Context, key string, val []byte, ttlSeconds int) error {
	e := entry{val: make([]byte, len(val))}
	copy(e.val, val)
	if ttlSeconds > 0 {
		e.deadline = time.Now().Add(time.Duration(ttlSeconds) * time.Second)
	}
	c.mu.Lock()
	c.m[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.m, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Ping(context.Context) error { return nil }

func (c *Cache) Close() {}
