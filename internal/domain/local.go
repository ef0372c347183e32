package domain

import (
	"context"
	"time"
)

// Кешированные данные для офлайн-входа. PassHash — argon2id.
type OfflineAuth struct {
	Login     string
	UID       string
	PassHash  string
	UpdatedAt time.Time
}

// Локальное хранилище клиента: снапшот каталога на пользователя
// (офлайн-просмотр) и метаданные офлайн-входа.
type LocalStore interface {
	Close()
	ReplaceSnapshot(ctx context.Context, identityID string, records []FileRecord) error
	Snapshot(ctx context.Context, identityID string) ([]FileRecord, error)
	SaveOfflineAuth(ctx context.Context, a OfflineAuth) error
	OfflineAuthByLogin(ctx context.Context, login string) (OfflineAuth, error)
}
