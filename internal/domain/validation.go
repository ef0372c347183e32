package domain

import "regexp"

// Предварительная валидация на клиенте; сервер остаётся последней инстанцией.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// Пароль: минимум 6 символов (правило сервиса аутентификации).
func ValidPassword(s string) bool {
	return len(s) >= 6
}
