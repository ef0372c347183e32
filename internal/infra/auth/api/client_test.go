package authapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/my-files/internal/domain"
)

// ---- helpers ----

func issueToken(t *testing.T, uid, login string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid":   uid,
		"login": login,
		"sub":   uid,
		"exp":   jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"iat":   jwt.NewNumericDate(time.Now()),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func writeEnvelope(w http.ResponseWriter, status int, env domain.APIEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func newClient(t *testing.T, baseURL string, local domain.LocalStore) *Client {
	t.Helper()
	c := New(Config{BaseURL: baseURL, Timeout: 5 * time.Second},
		log.New(testWriter{t}, "[auth] ", 0), local)
	t.Cleanup(c.Close)
	return c
}

// fakeLocal реализует domain.LocalStore в памяти
type fakeLocal struct {
	mu        sync.Mutex
	auth      map[string]domain.OfflineAuth
	snapshots map[string][]domain.FileRecord
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{
		auth:      make(map[string]domain.OfflineAuth),
		snapshots: make(map[string][]domain.FileRecord),
	}
}

func (f *fakeLocal) Close() {}

func (f *fakeLocal) ReplaceSnapshot(_ context.Context, id string, recs []domain.FileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[id] = append([]domain.FileRecord(nil), recs...)
	return nil
}

func (f *fakeLocal) Snapshot(_ context.Context, id string) ([]domain.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.FileRecord(nil), f.snapshots[id]...), nil
}

func (f *fakeLocal) SaveOfflineAuth(_ context.Context, a domain.OfflineAuth) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth[a.Login] = a
	return nil
}

func (f *fakeLocal) OfflineAuthByLogin(_ context.Context, login string) (domain.OfflineAuth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.auth[login]
	if !ok {
		return domain.OfflineAuth{}, domain.ErrNotFound
	}
	return a, nil
}

// ---- tests ----

func TestSignInParsesIdentity(t *testing.T) {
	token := issueToken(t, "u1", "user@example.com")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth", r.URL.Path)
		writeEnvelope(w, http.StatusOK, domain.APIEnvelope{Response: map[string]string{"token": token}})
	}))
	defer srv.Close()

	local := newFakeLocal()
	c := newClient(t, srv.URL, local)

	ident, err := c.SignIn(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, "u1", ident.UID)
	require.Equal(t, "user@example.com", ident.Login)
	require.False(t, ident.Offline)
	require.Equal(t, domain.Token(token), ident.Token)

	cur := c.Current()
	require.NotNil(t, cur)
	require.Equal(t, "u1", cur.UID)

	// офлайн-данные закешированы
	a, err := local.OfflineAuthByLogin(context.Background(), "user@example.com")
	require.NoError(t, err)
	ok, err := argon2id.ComparePasswordAndHash("secret123", a.PassHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSignInInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, domain.APIEnvelope{
			Error: &domain.APIError{Code: domain.ErrCodeUnauth, Text: "unauthorized"},
		})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, nil)
	_, err := c.SignIn(context.Background(), "user@example.com", "wrong-pass")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	require.Nil(t, c.Current())
}

func TestSignUpErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, domain.APIEnvelope{
			Error: &domain.APIError{Code: domain.ErrCodeEmailInUse, Text: "email in use"},
		})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, nil)
	err := c.SignUp(context.Background(), "user@example.com", "secret123")
	require.ErrorIs(t, err, domain.ErrEmailInUse)
}

func TestSignUpClientSideValidation(t *testing.T) {
	// до сервера дойти не должны
	c := newClient(t, "http://127.0.0.1:0", nil)

	err := c.SignUp(context.Background(), "not-an-email", "secret123")
	require.ErrorIs(t, err, domain.ErrInvalidEmail)

	err = c.SignUp(context.Background(), "user@example.com", "123")
	require.ErrorIs(t, err, domain.ErrWeakPassword)
}

func TestSubscribeEmitsImmediatelyAndOnChange(t *testing.T) {
	token := issueToken(t, "u1", "user@example.com")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth":
			writeEnvelope(w, http.StatusOK, domain.APIEnvelope{Response: map[string]string{"token": token}})
		default:
			writeEnvelope(w, http.StatusOK, domain.APIEnvelope{Response: map[string]string{}})
		}
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, nil)

	var mu sync.Mutex
	var got []*domain.Identity
	unsub := c.Subscribe(func(ident *domain.Identity) {
		mu.Lock()
		got = append(got, ident)
		mu.Unlock()
	})
	defer unsub()

	// немедленная эмиссия текущего состояния (nil)
	mu.Lock()
	require.Len(t, got, 1)
	require.Nil(t, got[0])
	mu.Unlock()

	_, err := c.SignIn(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, c.SignOut(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)
	require.NotNil(t, got[1])
	require.Equal(t, "u1", got[1].UID)
	require.Nil(t, got[2])
}

func TestOfflineSignIn(t *testing.T) {
	local := newFakeLocal()
	hash, err := argon2id.CreateHash("secret123", argon2id.DefaultParams)
	require.NoError(t, err)
	require.NoError(t, local.SaveOfflineAuth(context.Background(), domain.OfflineAuth{
		Login: "user@example.com", UID: "u1", PassHash: hash,
	}))

	c := newClient(t, "http://127.0.0.1:0", local)

	ident, err := c.SignInOffline(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	require.True(t, ident.Offline)
	require.Equal(t, "u1", ident.UID)

	_, err = c.SignInOffline(context.Background(), "user@example.com", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = c.SignInOffline(context.Background(), "other@example.com", "secret123")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
