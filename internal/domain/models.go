package domain

import "time"

// Тип файла в каталоге. Выводится из расширения имени.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
)

// CanonicalExt — каноническое расширение для типа (без точки).
func (k Kind) CanonicalExt() string {
	if k == KindDocument {
		return "pdf"
	}
	return "jpg"
}

// Состояние синхронизации записи. Сейчас всё, что лежит в каталоге, — synced;
// pending зарезервирован под локальные (офлайн) файлы.
type SyncState string

const (
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
)

// FileRecord — один объект текущего пользователя.
type FileRecord struct {
	ID        string    `json:"id"`      // полный ключ в хранилище; меняется при переименовании
	Name      string    `json:"name"`    // отображаемое имя с расширением
	Locator   string    `json:"locator"` // presigned URL; может протухнуть после rename
	Kind      Kind      `json:"kind"`
	SyncState SyncState `json:"sync_state"`
}

// Identity — аутентифицированный пользователь.
// Offline=true — локальный вход по кешированным данным: каталог показывается
// из снапшота, мутации недоступны.
type Identity struct {
	UID       string
	Login     string
	Token     Token `json:"-"` // никогда не отдаём наружу
	Offline   bool
	ExpiresAt time.Time
}
