package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const peerEndpointKey contextKey = "peerEndpoint"

// GetPeerEndpointFromContext возвращает iss подписанного межузлового запроса.
func GetPeerEndpointFromContext(ctx context.Context) (string, bool) {
	ep, ok := ctx.Value(peerEndpointKey).(string)
	return ep, ok
}

// WithNodeAuth проверяет JWT межузловых запросов, подписанный общим секретом
// сети. Пустой секрет отключает проверку (dev-режим, тесты). Невалидный или
// отсутствующий токен при включённой проверке — 401.
func WithNodeAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing node token", http.StatusUnauthorized)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims,
				func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return []byte(secret), nil
				})
			if err != nil || !token.Valid {
				http.Error(w, "invalid node token", http.StatusUnauthorized)
				return
			}

			if iss, ok := claims["iss"].(string); ok {
				r = r.WithContext(context.WithValue(r.Context(), peerEndpointKey, iss))
			}
			next.ServeHTTP(w, r)
		})
	}
}
