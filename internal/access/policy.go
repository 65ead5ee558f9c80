// Package access решает, можно ли выполнить запрос без токена.
// Безопасные методы открыты всем, изменяющие требуют заголовок
// "Authorization: Token <secret>".
package access

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/UkralStul/car-reviews-service/internal/domain"
)

const scheme = "Token "

var (
	ErrMissingToken  = fmt.Errorf("missing token: %w", domain.ErrPermissionDenied)
	ErrInvalidToken  = fmt.Errorf("invalid token: %w", domain.ErrPermissionDenied)
	ErrNotConfigured = fmt.Errorf("access token is not configured: %w", domain.ErrPermissionDenied)
)

// Policy - политика доступа для группы маршрутов.
type Policy struct {
	// Token - общий секрет. Пустая строка означает, что секрет не задан.
	Token string
	// AllowWhenUnset пропускает изменяющие запросы, если секрет не задан.
	AllowWhenUnset bool
	// Public - изменяющие методы, открытые без токена.
	Public []string
}

// WithPublic возвращает копию политики с дополнительными открытыми методами.
func (p Policy) WithPublic(methods ...string) Policy {
	p.Public = append(slices.Clone(p.Public), methods...)
	return p
}

// IsSafe сообщает, что метод только читает данные.
func IsSafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// ParseToken извлекает значение из заголовка вида "Token <value>".
func ParseToken(header string) (string, bool) {
	value, ok := strings.CutPrefix(header, scheme)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// Authorize возвращает ошибку, совместимую с domain.ErrPermissionDenied,
// если запрос с данным методом и заголовком Authorization не разрешён.
func (p Policy) Authorize(method, authorization string) error {
	if IsSafe(method) || slices.Contains(p.Public, method) {
		return nil
	}
	if p.Token == "" {
		if p.AllowWhenUnset {
			return nil
		}
		return ErrNotConfigured
	}
	token, ok := ParseToken(authorization)
	if !ok {
		return ErrMissingToken
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(p.Token)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
