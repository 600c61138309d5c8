// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/mentorlink/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// accountIDContextKey はリクエストコンテキストにアカウントIDを格納するためのキー。
var accountIDContextKey = contextKey("account_id")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// BearerVerifier は外部IdPのBearerトークン検証に必要なインターフェース。
type BearerVerifier interface {
	Verify(tokenString string) (string, error)
}

// NewSessionMiddleware はリクエストの認証を行うミドルウェアを返す。
// HTTP Only CookieのセッションIDを優先し、Cookieがない場合は
// Authorization: Bearer のIdPトークン検証にフォールバックする。
// 認証済みアカウントIDをリクエストコンテキストに注入し、
// どちらの経路でも認証できないリクエストには401 Unauthorizedを返す。
// bearerはnilでもよい（Cookie経路のみ）。
func NewSessionMiddleware(sessionFinder SessionFinder, bearer BearerVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			cookie, err := r.Cookie(sessionCookieName)
			if err == nil && cookie.Value != "" {
				session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
				if err != nil {
					slog.Error("failed to find session",
						slog.String("error", err.Error()),
					)
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				if session == nil {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}

				ctx := context.WithValue(r.Context(), accountIDContextKey, session.AccountID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// 2. Cookieがない場合はBearerトークンにフォールバック
			if bearer != nil {
				if token, ok := bearerToken(r); ok {
					accountID, err := bearer.Verify(token)
					if err != nil {
						slog.Warn("bearer token verification failed",
							slog.String("error", err.Error()),
						)
						http.Error(w, "unauthorized", http.StatusUnauthorized)
						return
					}

					ctx := context.WithValue(r.Context(), accountIDContextKey, accountID)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

// AccountIDFromContext はリクエストコンテキストからアカウントIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func AccountIDFromContext(ctx context.Context) (string, error) {
	accountID, ok := ctx.Value(accountIDContextKey).(string)
	if !ok || accountID == "" {
		return "", fmt.Errorf("account ID not found in context")
	}
	return accountID, nil
}

// ContextWithAccountID はコンテキストにアカウントIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDContextKey, accountID)
}
