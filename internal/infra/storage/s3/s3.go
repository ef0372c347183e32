package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/EgorLis/my-files/internal/domain"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
	// Срок жизни presigned URL. Кеш локаторов должен жить меньше.
	PresignTTL time.Duration
}

type Storage struct {
	cl      *minio.Client
	logger  *log.Logger
	bucket  string
	presign time.Duration
}

func New(cfg Config, logger *log.Logger) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	presign := cfg.PresignTTL
	if presign <= 0 {
		presign = time.Hour
	}
	return &Storage{cl: cl, logger: logger, bucket: cfg.Bucket, presign: presign}, nil
}

var _ domain.ObjectStore = (*Storage)(nil)

// List возвращает объекты под префиксом в порядке выдачи провайдера.
func (s *Storage) List(ctx context.Context, prefix string) ([]domain.ObjectInfo, error) {
	var out []domain.ObjectInfo
	ch := s.cl.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for obj := range ch {
		if obj.Err != nil {
			s.logger.Printf("LIST %q failed: %v", prefix, obj.Err)
			return nil, mapErr(obj.Err)
		}
		// псевдо-каталоги пропускаем
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, domain.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	s.logger.Printf("LIST %q ok count=%d", prefix, len(out))
	return out, nil
}

func (s *Storage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	info, err := s.cl.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Printf("PUT %q failed: %v", key, err)
		return mapErr(err)
	}
	s.logger.Printf("PUT %q ok size=%d", key, info.Size)
	return nil
}

// Locator выдаёт presigned GET URL на объект.
func (s *Storage) Locator(ctx context.Context, key string) (string, error) {
	u, err := s.cl.PresignedGetObject(ctx, s.bucket, key, s.presign, url.Values{})
	if err != nil {
		s.logger.Printf("PRESIGN %q failed: %v", key, err)
		return "", mapErr(err)
	}
	return u.String(), nil
}

func (s *Storage) Fetch(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := s.cl.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, mapErr(err)
	}
	// GetObject ленивый: ошибку «нет объекта» увидим только на Stat/Read
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		s.logger.Printf("GET %q failed: %v", key, err)
		return nil, 0, mapErr(err)
	}
	return obj, info.Size, nil
}

// Delete: удаление несуществующего ключа у S3 идемпотентно, поэтому сначала
// проверяем наличие — контракт требует NotFound.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.cl.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		s.logger.Printf("DEL %q stat failed: %v", key, err)
		return mapErr(err)
	}
	if err := s.cl.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Printf("DEL %q failed: %v", key, err)
		return mapErr(err)
	}
	s.logger.Printf("DEL %q ok", key)
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return mapErr(err)
	}
	if !ok {
		return fmt.Errorf("%w: bucket %q", domain.ErrNotFound, s.bucket)
	}
	return nil
}

// mapErr переводит ошибки minio в доменные.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return fmt.Errorf("%w: %s", domain.ErrNotFound, resp.Code)
	case "QuotaExceeded", "InsufficientStorage":
		return fmt.Errorf("%w: %s", domain.ErrQuotaExceeded, resp.Code)
	}
	if resp.StatusCode == 404 {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	if resp.StatusCode == 507 {
		return fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrProvider, err)
}
