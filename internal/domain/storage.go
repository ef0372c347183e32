package domain

import (
	"context"
	"io"
	"time"
)

// ObjectInfo — элемент листинга хранилища.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Хранилище бинарных объектов (S3/MinIO). Порядок листинга — как вернул
// провайдер, сортировка не гарантируется.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Upload перезаписывает существующий объект по ключу (last-writer-wins).
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Locator возвращает выгружаемую ссылку на объект (ограничена по времени).
	Locator(ctx context.Context, key string) (string, error)
	// Fetch открывает поток байтов объекта (нужен для rename = copy+delete).
	Fetch(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
