// Package middleware содержит HTTP middleware сервиса PizzaPortal.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const tokenKey contextKey = "token"

// TokenHeader задаёт заголовок, в котором клиент передаёт токен доступа.
const TokenHeader = "token"

// Token извлекает токен доступа из заголовка token или Authorization: Bearer
// и кладёт его в контекст запроса. Проверка токена выполняется сервисами,
// так как для ресурсов она зависит от владельца.
func Token(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(TokenHeader)); v != "" {
		return v
	}
	auth := r.Header.Get("Authorization")
	if scheme, value, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(value)
	}
	return ""
}

// TokenFromContext возвращает токен, извлечённый middleware Token.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
