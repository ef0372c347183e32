package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/my-files/internal/domain"
	"github.com/EgorLis/my-files/internal/logx"
)

// Gate связывает поток идентичности с движком каталога: вход запускает
// загрузку, выход синхронно чистит состояние. Подписка одна на весь
// жизненный цикл гейта.
type Gate struct {
	log     *log.Logger
	engine  *Engine
	auth    domain.AuthSession
	loadTTL time.Duration

	mu      sync.Mutex
	unsub   func()
	lastUID string
}

func NewGate(logger *log.Logger, engine *Engine, auth domain.AuthSession) *Gate {
	return &Gate{
		log:     logger,
		engine:  engine,
		auth:    auth,
		loadTTL: 30 * time.Second,
	}
}

// Start подписывается на поток идентичности. Текущее состояние приходит
// немедленно, так что уже выполненный вход тоже обрабатывается.
func (g *Gate) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unsub != nil {
		return
	}
	g.unsub = g.auth.Subscribe(g.onIdentity)
}

func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unsub != nil {
		g.unsub()
		g.unsub = nil
	}
	g.lastUID = ""
}

func (g *Gate) onIdentity(ident *domain.Identity) {
	const op = "gate.identity"
	opID := uuid.NewString()

	if ident == nil {
		g.mu.Lock()
		had := g.lastUID
		g.lastUID = ""
		g.mu.Unlock()
		// чистка синхронная, сети не требует
		g.engine.SetIdentity(nil)
		if had != "" {
			logx.Info(g.log, opID, op, "signed out, catalog cleared", "uid", had)
		}
		return
	}

	g.mu.Lock()
	same := g.lastUID == ident.UID
	g.lastUID = ident.UID
	g.mu.Unlock()
	if same {
		// повторная эмиссия той же сессии
		return
	}

	g.engine.SetIdentity(ident)
	logx.Info(g.log, opID, op, "signed in, loading catalog", "uid", ident.UID, "offline", ident.Offline)

	// загрузка не должна блокировать поток эмиссий
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), g.loadTTL)
		defer cancel()
		if err := g.engine.Load(ctx); err != nil {
			logx.Error(g.log, opID, op, "initial load failed", err, "uid", ident.UID)
		}
	}()
}
