package domain

import "context"

type Token string

// AuthSession — удалённый сервис аутентификации.
// Subscribe вызывает колбэк сразу с текущим состоянием, затем на каждом
// входе/выходе. nil — пользователь не аутентифицирован.
type AuthSession interface {
	SignUp(ctx context.Context, login, password string) error
	SignIn(ctx context.Context, login, password string) (Identity, error)
	// SignInOffline — локальный вход по кешированным данным, без сети.
	SignInOffline(ctx context.Context, login, password string) (Identity, error)
	SignOut(ctx context.Context) error
	Current() *Identity
	Subscribe(fn func(*Identity)) (unsubscribe func())
	Close()
}
