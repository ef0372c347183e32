// Пакет authapi — клиент сервиса аутентификации (REST + JWT).
// Поток идентичности push-модельный: подписчик получает текущее состояние
// сразу при подписке и далее на каждом входе/выходе.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/EgorLis/my-files/internal/domain"
	"github.com/EgorLis/my-files/internal/logx"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	logger *log.Logger
	http   *http.Client
	base   string
	local  domain.LocalStore // может быть nil: офлайн-вход тогда недоступен

	mu      sync.Mutex
	current *domain.Identity
	subs    map[int]func(*domain.Identity)
	nextSub int
}

func New(cfg Config, logger *log.Logger, local domain.LocalStore) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		logger: logger,
		http:   &http.Client{Timeout: timeout},
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		local:  local,
		subs:   make(map[int]func(*domain.Identity)),
	}
}

var _ domain.AuthSession = (*Client)(nil)

// клеймы токена, которые нужны клиенту; подпись проверяет сервер,
// клиент секрета не знает и читает клеймы без верификации
type tokenClaims struct {
	UID   string `json:"uid"`
	Login string `json:"login"`
	jwt.RegisteredClaims
}

type credentialsRequest struct {
	Login string `json:"login"`
	Pswd  string `json:"pswd"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (c *Client) SignUp(ctx context.Context, login, password string) error {
	const op = "auth.sign_up"
	opID := uuid.NewString()
	logx.Info(c.logger, opID, op, "start", "login", login)

	if !domain.ValidEmail(login) {
		logx.Error(c.logger, opID, op, "invalid email", domain.ErrInvalidEmail)
		return fmt.Errorf("%w: %q", domain.ErrInvalidEmail, login)
	}
	if !domain.ValidPassword(password) {
		logx.Error(c.logger, opID, op, "weak password", domain.ErrWeakPassword)
		return fmt.Errorf("%w: need at least 6 characters", domain.ErrWeakPassword)
	}

	if _, err := c.post(ctx, "/api/register", credentialsRequest{Login: login, Pswd: password}); err != nil {
		logx.Error(c.logger, opID, op, "register failed", err)
		return err
	}
	logx.Info(c.logger, opID, op, "ok", "login", login)
	return nil
}

func (c *Client) SignIn(ctx context.Context, login, password string) (domain.Identity, error) {
	const op = "auth.sign_in"
	opID := uuid.NewString()
	logx.Info(c.logger, opID, op, "start", "login", login)

	raw, err := c.post(ctx, "/api/auth", credentialsRequest{Login: login, Pswd: password})
	if err != nil {
		logx.Error(c.logger, opID, op, "sign in failed", err)
		return domain.Identity{}, err
	}

	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Token == "" {
		logx.Error(c.logger, opID, op, "bad login response", err)
		return domain.Identity{}, fmt.Errorf("%w: malformed login response", domain.ErrUnexpected)
	}

	ident, err := identityFromToken(resp.Token, login)
	if err != nil {
		logx.Error(c.logger, opID, op, "parse token failed", err)
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnexpected, err)
	}

	// кешируем данные офлайн-входа; неуспех не фатален
	if c.local != nil {
		if hash, herr := argon2id.CreateHash(password, argon2id.DefaultParams); herr == nil {
			if serr := c.local.SaveOfflineAuth(ctx, domain.OfflineAuth{
				Login: login, UID: ident.UID, PassHash: hash,
			}); serr != nil {
				logx.Error(c.logger, opID, op, "save offline auth failed", serr)
			}
		} else {
			logx.Error(c.logger, opID, op, "hash password failed", herr)
		}
	}

	c.setCurrent(&ident)
	logx.Info(c.logger, opID, op, "ok", "uid", ident.UID, "login", ident.Login)
	return ident, nil
}

// SignInOffline проверяет пароль по локально сохранённому argon2id-хэшу
// и выдаёт офлайн-идентичность без похода в сеть.
func (c *Client) SignInOffline(ctx context.Context, login, password string) (domain.Identity, error) {
	const op = "auth.sign_in_offline"
	opID := uuid.NewString()
	logx.Info(c.logger, opID, op, "start", "login", login)

	if c.local == nil {
		return domain.Identity{}, fmt.Errorf("%w: local store is not configured", domain.ErrNotFound)
	}
	a, err := c.local.OfflineAuthByLogin(ctx, login)
	if err != nil {
		logx.Error(c.logger, opID, op, "no offline data", err)
		return domain.Identity{}, err
	}
	ok, err := argon2id.ComparePasswordAndHash(password, a.PassHash)
	if err != nil || !ok {
		logx.Error(c.logger, opID, op, "verify failed", err)
		return domain.Identity{}, fmt.Errorf("offline sign in: %w", domain.ErrInvalidCredentials)
	}

	ident := domain.Identity{UID: a.UID, Login: a.Login, Offline: true}
	c.setCurrent(&ident)
	logx.Info(c.logger, opID, op, "ok", "uid", ident.UID)
	return ident, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	const op = "auth.sign_out"
	opID := uuid.NewString()

	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil {
		logx.Info(c.logger, opID, op, "no session")
		return nil
	}

	// отзыв токена на сервере — best effort: локально выходим в любом случае
	if cur.Token != "" && !cur.Offline {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
			c.base+"/api/auth/"+string(cur.Token), nil)
		if err == nil {
			if resp, rerr := c.http.Do(req); rerr != nil {
				logx.Error(c.logger, opID, op, "revoke failed", rerr)
			} else {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
		}
	}

	c.setCurrent(nil)
	logx.Info(c.logger, opID, op, "ok")
	return nil
}

func (c *Client) Current() *domain.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

// Subscribe регистрирует колбэк и сразу вызывает его с текущим состоянием.
func (c *Client) Subscribe(fn func(*domain.Identity)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	cur := c.current
	c.mu.Unlock()

	fn(copyIdent(cur))

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) setCurrent(ident *domain.Identity) {
	c.mu.Lock()
	c.current = ident
	fns := make([]func(*domain.Identity), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	// колбэки зовём вне мьютекса: подписчик может дернуть Current()
	for _, fn := range fns {
		fn(copyIdent(ident))
	}
}

func copyIdent(ident *domain.Identity) *domain.Identity {
	if ident == nil {
		return nil
	}
	cp := *ident
	return &cp
}

// post шлёт JSON и возвращает response-часть конверта.
func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnexpected, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnexpected, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	var env struct {
		Error    *domain.APIError `json:"error"`
		Response json.RawMessage  `json:"response"`
	}
	if derr := json.NewDecoder(resp.Body).Decode(&env); derr != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, fmt.Errorf("%w: malformed envelope", domain.ErrUnexpected)
		}
		return nil, errByStatus(resp.StatusCode)
	}
	if env.Error != nil {
		return nil, domain.ErrorByCode(env.Error.Code, env.Error.Text)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errByStatus(resp.StatusCode)
	}
	return env.Response, nil
}

// errByStatus — fallback, когда конверт не разобрался.
func errByStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrInvalidCredentials
	case http.StatusConflict:
		return domain.ErrEmailInUse
	case http.StatusTooManyRequests:
		return domain.ErrTooManyRequests
	case http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return fmt.Errorf("%w: http %d", domain.ErrProvider, status)
	}
}

func identityFromToken(token, login string) (domain.Identity, error) {
	var cl tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &cl); err != nil {
		return domain.Identity{}, err
	}
	uid := cl.UID
	if uid == "" {
		uid = cl.Subject
	}
	if uid == "" {
		return domain.Identity{}, fmt.Errorf("token has no subject")
	}
	if cl.Login != "" {
		login = cl.Login
	}
	ident := domain.Identity{UID: uid, Login: login, Token: domain.Token(token)}
	if cl.ExpiresAt != nil {
		ident.ExpiresAt = cl.ExpiresAt.Time
	}
	return ident, nil
}
