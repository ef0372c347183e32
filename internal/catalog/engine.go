// Пакет catalog — ядро клиента: авторитетное состояние «файлы текущего
// пользователя» и машина операций load/add/delete/rename поверх удалённого
// хранилища объектов.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/my-files/internal/domain"
	"github.com/EgorLis/my-files/internal/logx"
)

// Engine владеет records и busy; мутируют их только его методы.
// Презентация и гейт лишь читают состояние и зовут операции.
//
// Поздние результаты (операция завершилась после смены сессии) отбрасываются
// по счётчику epoch: SetIdentity его двигает, finish сверяет.
type Engine struct {
	log        *log.Logger
	store      domain.ObjectStore
	cache      domain.Cache
	local      domain.LocalStore // может быть nil: офлайн-снапшоты тогда отключены
	locatorTTL int               // секунды

	mu       sync.Mutex
	identity *domain.Identity
	records  []domain.FileRecord
	inflight int
	loading  bool // листинг в полёте: второй не запускаем
	epoch    uint64
}

func New(logger *log.Logger, store domain.ObjectStore, cache domain.Cache, local domain.LocalStore, locatorTTLSeconds int) *Engine {
	if locatorTTLSeconds <= 0 {
		locatorTTLSeconds = 900
	}
	return &Engine{
		log:        logger,
		store:      store,
		cache:      cache,
		local:      local,
		locatorTTL: locatorTTLSeconds,
	}
}

// Records возвращает копию каталога: подмена происходит целиком под
// мьютексом, частично обновлённый список снаружи не виден.
func (e *Engine) Records() []domain.FileRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.FileRecord, len(e.records))
	copy(out, e.records)
	return out
}

func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflight > 0
}

// SetIdentity начинает новую сессию каталога. nil — выход: каталог чистится
// синхронно, без сети. Результаты операций прошлой сессии игнорируются.
func (e *Engine) SetIdentity(ident *domain.Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	e.records = nil
	e.inflight = 0
	e.loading = false
	if ident == nil {
		e.identity = nil
		return
	}
	cp := *ident
	e.identity = &cp
}

// Load загружает листинг пространства пользователя и целиком подменяет
// records. Повторный вызов при листинге в полёте отбрасывается. Ошибка
// провайдера не трогает прежние records.
func (e *Engine) Load(ctx context.Context) error {
	const op = "catalog.load"
	opID := uuid.NewString()

	e.mu.Lock()
	if e.identity == nil {
		e.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	if e.loading {
		e.mu.Unlock()
		logx.Info(e.log, opID, op, "listing already in flight, dropped")
		return nil
	}
	ident := *e.identity
	epoch := e.epoch
	e.loading = true
	e.inflight++
	e.mu.Unlock()

	fresh, err := e.fetchCatalog(ctx, ident)

	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		logx.Info(e.log, opID, op, "stale result discarded")
		return nil
	}
	e.loading = false
	e.inflight--
	if err == nil {
		e.records = fresh
	}
	e.mu.Unlock()

	if err != nil {
		logx.Error(e.log, opID, op, "load failed", err, "uid", ident.UID)
		return fmt.Errorf("catalog load failed: %w", err)
	}
	e.persistSnapshot(ident, opID)
	logx.Info(e.log, opID, op, "ok", "uid", ident.UID, "count", len(fresh))
	return nil
}

// Refresh — то же, что Load: каждый раз полный листинг.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.Load(ctx)
}

func (e *Engine) fetchCatalog(ctx context.Context, ident domain.Identity) ([]domain.FileRecord, error) {
	if ident.Offline {
		if e.local == nil {
			return nil, fmt.Errorf("%w: no local snapshot store", domain.ErrNotFound)
		}
		return e.local.Snapshot(ctx, ident.UID)
	}

	objs, err := e.store.List(ctx, NamespacePrefix(ident.UID))
	if err != nil {
		return nil, err
	}
	// порядок — как вернул провайдер
	records := make([]domain.FileRecord, 0, len(objs))
	for _, o := range objs {
		loc, lerr := e.resolveLocator(ctx, o.Key)
		if lerr != nil {
			return nil, lerr
		}
		records = append(records, domain.FileRecord{
			ID:        o.Key,
			Name:      path.Base(o.Key),
			Locator:   loc,
			Kind:      ClassifyKind(o.Key),
			SyncState: domain.SyncSynced,
		})
	}
	return records, nil
}

// Add загружает блоб под вычисленным именем и дописывает запись в каталог.
// Коллизия имён не детектируется: провайдер молча перезаписывает объект
// (last-writer-wins), запись о прежнем объекте с тем же ключом заменяется.
func (e *Engine) Add(ctx context.Context, blob io.Reader, size int64, kind domain.Kind, desiredName string) (domain.FileRecord, error) {
	const op = "catalog.add"
	opID := uuid.NewString()

	ident, epoch, err := e.begin(true)
	if err != nil {
		logx.Error(e.log, opID, op, "precondition failed", err)
		return domain.FileRecord{}, err
	}

	name := desiredName
	if name == "" {
		name = GenerateName(kind)
	} else {
		name = EnsureExt(name, kind)
	}
	key := ObjectKey(ident.UID, name)

	if uerr := e.store.Upload(ctx, key, blob, size, ContentTypeFor(name, kind)); uerr != nil {
		e.finish(epoch, nil)
		logx.Error(e.log, opID, op, "upload failed", uerr, "key", key)
		return domain.FileRecord{}, fmt.Errorf("upload failed: %w", uerr)
	}

	loc, lerr := e.resolveLocator(ctx, key)
	if lerr != nil {
		// объект уже в хранилище; запись о нём появится на следующем refresh
		e.finish(epoch, nil)
		logx.Error(e.log, opID, op, "resolve locator failed", lerr, "key", key)
		return domain.FileRecord{}, fmt.Errorf("upload failed: %w", lerr)
	}

	rec := domain.FileRecord{ID: key, Name: name, Locator: loc, Kind: kind, SyncState: domain.SyncSynced}
	applied := e.finish(epoch, func() {
		out := make([]domain.FileRecord, 0, len(e.records)+1)
		for _, r := range e.records {
			if r.ID != rec.ID {
				out = append(out, r)
			}
		}
		e.records = append(out, rec)
	})
	if !applied {
		logx.Info(e.log, opID, op, "stale result discarded", "key", key)
		return rec, nil
	}
	e.persistSnapshot(ident, opID)
	logx.Info(e.log, opID, op, "ok", "key", key)
	return rec, nil
}

// Delete удаляет объект и запись о нём. Подтверждение — забота презентации,
// движок выполняет удаление безусловно. Несуществующий id — ошибка, не успех.
func (e *Engine) Delete(ctx context.Context, fileID string) error {
	const op = "catalog.delete"
	opID := uuid.NewString()

	ident, epoch, err := e.begin(true)
	if err != nil {
		logx.Error(e.log, opID, op, "precondition failed", err)
		return err
	}

	if _, ok := e.findRecord(fileID); !ok {
		e.finish(epoch, nil)
		logx.Error(e.log, opID, op, "unknown record", domain.ErrNotFound, "key", fileID)
		return fmt.Errorf("delete failed: %w: %s", domain.ErrNotFound, fileID)
	}

	if derr := e.store.Delete(ctx, fileID); derr != nil {
		e.finish(epoch, nil)
		logx.Error(e.log, opID, op, "delete failed", derr, "key", fileID)
		return fmt.Errorf("delete failed: %w", derr)
	}
	_ = e.cache.Del(ctx, domain.CacheKeyLocator(fileID))

	applied := e.finish(epoch, func() {
		out := make([]domain.FileRecord, 0, len(e.records))
		for _, r := range e.records {
			if r.ID != fileID {
				out = append(out, r)
			}
		}
		e.records = out
	})
	if !applied {
		logx.Info(e.log, opID, op, "stale result discarded", "key", fileID)
		return nil
	}
	e.persistSnapshot(ident, opID)
	logx.Info(e.log, opID, op, "ok", "key", fileID)
	return nil
}

// Rename реализован как copy-then-delete: атомарного rename у провайдера нет.
// Если удаление старого ключа не удалось после успешной заливки нового,
// объект остаётся под обоими ключами: делаем одну повторную попытку, дальше
// отдаём ошибку — дубликат всплывёт на следующем refresh, записи не трогаем.
func (e *Engine) Rename(ctx context.Context, fileID, newName string) (domain.FileRecord, error) {
	const op = "catalog.rename"
	opID := uuid.NewString()

	if strings.TrimSpace(newName) == "" {
		return domain.FileRecord{}, fmt.Errorf("rename failed: %w: empty name", domain.ErrBadParams)
	}

	ident, epoch, err := e.begin(true)
	if err != nil {
		logx.Error(e.log, opID, op, "precondition failed", err)
		return domain.FileRecord{}, err
	}

	old, ok := e.findRecord(fileID)
	if !ok {
		e.finish(epoch, nil)
		logx.Error(e.log, opID, op, "unknown record", domain.ErrNotFound, "key", fileID)
		return domain.FileRecord{}, fmt.Errorf("rename failed: %w: %s", domain.ErrNotFound, fileID)
	}

	name := EnsureExt(newName, old.Kind)
	newKey := ObjectKey(ident.UID, name)
	if newKey == old.ID {
		// то же имя — делать нечего
		e.finish(epoch, nil)
		return old, nil
	}

	rc, size, ferr := e.store.Fetch(ctx, old.ID)
	if ferr != nil {
		e.finish(epoch, nil)
		logx.Error(e.log, opID, op, "fetch failed", ferr, "key", old.ID)
		return domain.FileRecord{}, fmt.Errorf("rename failed: %w", ferr)
	}
	uerr := e.store.Upload(ctx, newKey, rc, size, ContentTypeFor(name, old.Kind))
	_ = rc.Close()
	if uerr != nil {
		// до удаления ничего не испорчено: старый объект цел
		e.finish(epoch, nil)
		logx.Error(e.log, opID, op, "upload copy failed", uerr, "key", newKey)
		return domain.FileRecord{}, fmt.Errorf("rename failed: %w", uerr)
	}

	if derr := e.store.Delete(ctx, old.ID); derr != nil {
		if derr2 := e.store.Delete(ctx, old.ID); derr2 != nil {
			e.finish(epoch, nil)
			logx.Error(e.log, opID, op, "old object left behind", derr2,
				"old_key", old.ID, "new_key", newKey)
			return domain.FileRecord{}, fmt.Errorf("rename failed: %w", derr2)
		}
	}
	_ = e.cache.Del(ctx, domain.CacheKeyLocator(old.ID))

	loc, lerr := e.resolveLocator(ctx, newKey)
	if lerr != nil {
		// не фатально: локатор добудет следующий refresh
		logx.Error(e.log, opID, op, "resolve locator failed", lerr, "key", newKey)
		loc = ""
	}

	rec := domain.FileRecord{ID: newKey, Name: name, Locator: loc, Kind: old.Kind, SyncState: domain.SyncSynced}
	applied := e.finish(epoch, func() {
		out := make([]domain.FileRecord, 0, len(e.records))
		for _, r := range e.records {
			switch r.ID {
			case old.ID:
				out = append(out, rec)
			case rec.ID:
				// объект под новым ключом перезаписан — старая запись о нём уходит
			default:
				out = append(out, r)
			}
		}
		e.records = out
	})
	if !applied {
		logx.Info(e.log, opID, op, "stale result discarded", "key", newKey)
		return rec, nil
	}
	e.persistSnapshot(ident, opID)
	logx.Info(e.log, opID, op, "ok", "old_key", old.ID, "new_key", newKey)
	return rec, nil
}

// ---- внутренности ----

// begin проверяет предусловия и поднимает busy.
func (e *Engine) begin(requireOnline bool) (domain.Identity, uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.identity == nil {
		return domain.Identity{}, 0, domain.ErrNotAuthenticated
	}
	if requireOnline && e.identity.Offline {
		return domain.Identity{}, 0, fmt.Errorf("%w: sign in online to modify files", domain.ErrOffline)
	}
	e.inflight++
	return *e.identity, e.epoch, nil
}

// finish снимает busy и применяет мутацию, если сессия не сменилась.
func (e *Engine) finish(epoch uint64, apply func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return false
	}
	e.inflight--
	if apply != nil {
		apply()
	}
	return true
}

func (e *Engine) findRecord(fileID string) (domain.FileRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.records {
		if r.ID == fileID {
			return r, true
		}
	}
	return domain.FileRecord{}, false
}

// resolveLocator ходит в кеш, потом к провайдеру. Presigned URL ограничен по
// времени, поэтому кешируем с TTL меньше срока подписи.
func (e *Engine) resolveLocator(ctx context.Context, key string) (string, error) {
	ck := domain.CacheKeyLocator(key)
	if b, err := e.cache.Get(ctx, ck); err == nil && len(b) > 0 {
		return string(b), nil
	}
	loc, err := e.store.Locator(ctx, key)
	if err != nil {
		return "", err
	}
	_ = e.cache.Set(ctx, ck, []byte(loc), e.locatorTTL)
	return loc, nil
}

// persistSnapshot сохраняет каталог в локальную БД для офлайн-просмотра.
// Неуспех не фатален.
func (e *Engine) persistSnapshot(ident domain.Identity, opID string) {
	if e.local == nil || ident.Offline {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.local.ReplaceSnapshot(ctx, ident.UID, e.Records()); err != nil {
		logx.Error(e.log, opID, "catalog.snapshot", "persist failed", err, "uid", ident.UID)
	}
}
