package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/mentorlink/internal/model"
)

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.findByIDFn(ctx, id)
}

type mockBearerVerifier struct {
	verifyFn func(tokenString string) (string, error)
}

func (m *mockBearerVerifier) Verify(tokenString string) (string, error) {
	return m.verifyFn(tokenString)
}

// echoAccountHandler はコンテキストのアカウントIDをそのままボディに書くハンドラー。
func echoAccountHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, err := AccountIDFromContext(r.Context())
		if err != nil {
			t.Errorf("account ID should be present: %v", err)
		}
		w.Write([]byte(accountID))
	})
}

func TestSessionMiddleware_ValidCookie(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			if id != "sess-1" {
				t.Errorf("session ID = %q, want %q", id, "sess-1")
			}
			return &model.Session{ID: id, AccountID: "acc-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}

	handler := NewSessionMiddleware(finder, nil)(echoAccountHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "acc-1" {
		t.Errorf("account ID = %q, want %q", got, "acc-1")
	}
}

func TestSessionMiddleware_MissingCookieAndHeader(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			t.Error("finder should not be called without a cookie")
			return nil, nil
		},
	}

	handler := NewSessionMiddleware(finder, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSessionMiddleware_UnknownSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil
		},
	}

	handler := NewSessionMiddleware(finder, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-gone"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSessionMiddleware_FinderError(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("connection refused")
		},
	}

	handler := NewSessionMiddleware(finder, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSessionMiddleware_BearerFallback(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			t.Error("finder should not be called for a bearer request")
			return nil, nil
		},
	}
	verifier := &mockBearerVerifier{
		verifyFn: func(tokenString string) (string, error) {
			if tokenString != "idp-token" {
				t.Errorf("token = %q, want %q", tokenString, "idp-token")
			}
			return "acc-2", nil
		},
	}

	handler := NewSessionMiddleware(finder, verifier)(echoAccountHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
	req.Header.Set("Authorization", "Bearer idp-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "acc-2" {
		t.Errorf("account ID = %q, want %q", got, "acc-2")
	}
}

func TestSessionMiddleware_InvalidBearerToken(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil
		},
	}
	verifier := &mockBearerVerifier{
		verifyFn: func(tokenString string) (string, error) {
			return "", errors.New("token signature is invalid")
		},
	}

	handler := NewSessionMiddleware(finder, verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSessionMiddleware_CookieTakesPrecedenceOverBearer(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, AccountID: "acc-cookie", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	verifier := &mockBearerVerifier{
		verifyFn: func(tokenString string) (string, error) {
			t.Error("bearer verifier should not be called when a cookie is present")
			return "", nil
		},
	}

	handler := NewSessionMiddleware(finder, verifier)(echoAccountHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	req.Header.Set("Authorization", "Bearer idp-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Body.String(); got != "acc-cookie" {
		t.Errorf("account ID = %q, want %q", got, "acc-cookie")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{"正常なBearerヘッダー", "Bearer abc123", "abc123", true},
		{"ヘッダーなし", "", "", false},
		{"プレフィックスのみ", "Bearer ", "", false},
		{"Basic認証は対象外", "Basic dXNlcjpwYXNz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			token, ok := bearerToken(req)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}
