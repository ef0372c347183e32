package catalog

import (
	"context"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EgorLis/my-files/internal/domain"
	"github.com/EgorLis/my-files/internal/infra/cache/memory"
)

// fakeAuth — управляемый поток идентичности.
type fakeAuth struct {
	mu      sync.Mutex
	current *domain.Identity
	subs    map[int]func(*domain.Identity)
	next    int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{subs: make(map[int]func(*domain.Identity))}
}

func (f *fakeAuth) emit(ident *domain.Identity) {
	f.mu.Lock()
	f.current = ident
	fns := make([]func(*domain.Identity), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ident)
	}
}

func (f *fakeAuth) Subscribe(fn func(*domain.Identity)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	cur := f.current
	f.mu.Unlock()
	fn(cur)
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeAuth) Current() *domain.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeAuth) SignUp(context.Context, string, string) error { return nil }
func (f *fakeAuth) SignIn(context.Context, string, string) (domain.Identity, error) {
	return domain.Identity{}, nil
}
func (f *fakeAuth) SignInOffline(context.Context, string, string) (domain.Identity, error) {
	return domain.Identity{}, nil
}
func (f *fakeAuth) SignOut(context.Context) error { return nil }
func (f *fakeAuth) Close()                        {}

func newGateFixture(t *testing.T) (*fakeStore, *Engine, *fakeAuth, *Gate) {
	t.Helper()
	store := newFakeStore()
	logger := log.New(testWriter{t}, "[gate] ", 0)
	e := New(logger, store, memory.New(), nil, 60)
	auth := newFakeAuth()
	g := NewGate(logger, e, auth)
	t.Cleanup(g.Stop)
	return store, e, auth, g
}

func TestGateLoadsOnSignIn(t *testing.T) {
	store, e, auth, g := newGateFixture(t)
	store.objects["uploads/u1/a.jpg"] = []byte("x")

	g.Start()
	require.Empty(t, e.Records())

	auth.emit(online("u1"))
	require.Eventually(t, func() bool {
		return len(e.Records()) == 1
	}, time.Second, time.Millisecond)
}

func TestGateClearsOnSignOutSynchronously(t *testing.T) {
	store, e, auth, g := newGateFixture(t)
	store.objects["uploads/u1/a.jpg"] = []byte("x")

	g.Start()
	auth.emit(online("u1"))
	require.Eventually(t, func() bool {
		return len(e.Records()) == 1
	}, time.Second, time.Millisecond)

	// чистка без сети: сразу после эмиссии каталог пуст
	auth.emit(nil)
	require.Empty(t, e.Records())
}

func TestGateIgnoresDuplicateEmission(t *testing.T) {
	store, e, auth, g := newGateFixture(t)
	store.objects["uploads/u1/a.jpg"] = []byte("x")

	g.Start()
	auth.emit(online("u1"))
	require.Eventually(t, func() bool {
		return len(e.Records()) == 1
	}, time.Second, time.Millisecond)

	auth.emit(online("u1"))
	time.Sleep(20 * time.Millisecond)

	store.mu.Lock()
	calls := store.listCalls
	store.mu.Unlock()
	require.Equal(t, 1, calls)
}

func TestGateReloadsAfterReSignIn(t *testing.T) {
	store, e, auth, g := newGateFixture(t)
	store.objects["uploads/u1/a.jpg"] = []byte("x")

	g.Start()
	auth.emit(online("u1"))
	require.Eventually(t, func() bool {
		return len(e.Records()) == 1
	}, time.Second, time.Millisecond)

	auth.emit(nil)
	require.Empty(t, e.Records())

	// повторный вход того же пользователя — каталог грузится заново
	auth.emit(online("u1"))
	require.Eventually(t, func() bool {
		return len(e.Records()) == 1
	}, time.Second, time.Millisecond)

	store.mu.Lock()
	calls := store.listCalls
	store.mu.Unlock()
	require.Equal(t, 2, calls)
}

func TestGateHandlesAlreadySignedIn(t *testing.T) {
	store, e, auth, g := newGateFixture(t)
	store.objects["uploads/u1/a.jpg"] = []byte("x")

	// вход состоялся до старта гейта: немедленная эмиссия подписки покрывает
	auth.emit(online("u1"))
	g.Start()

	require.Eventually(t, func() bool {
		return len(e.Records()) == 1
	}, time.Second, time.Millisecond)
}
