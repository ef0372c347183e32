package domain

import "context"

// Ключи кеша — единое место, чтобы не расползались по коду.
func CacheKeyLocator(objectKey string) string { return "locator:" + objectKey }

// Простой k/v интерфейс. Реализации — Redis или память.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Del(ctx context.Context, keys ...string) error
	Ping(context.Context) error
	Close()
}
