package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func csrfHandler() http.Handler {
	return NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRFMiddleware_SafeMethodSetsCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	csrfHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/requests", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	cookie := findCookie(t, rec, "csrf_token")
	if cookie == nil {
		t.Fatal("csrf_token cookie should be set on safe methods")
	}
	if cookie.HttpOnly {
		t.Error("csrf_token cookie must be readable from the frontend")
	}
}

func TestCSRFMiddleware_SafeMethodKeepsExistingCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "existing"})
	rec := httptest.NewRecorder()

	csrfHandler().ServeHTTP(rec, req)

	if cookie := findCookie(t, rec, "csrf_token"); cookie != nil {
		t.Error("existing csrf_token cookie should not be reissued")
	}
}

func TestCSRFMiddleware_MutatingMethodValidation(t *testing.T) {
	tests := []struct {
		name        string
		cookieValue string
		headerValue string
		wantStatus  int
	}{
		{"一致するトークン", "token-1", "token-1", http.StatusOK},
		{"Cookieなし", "", "token-1", http.StatusForbidden},
		{"ヘッダーなし", "token-1", "", http.StatusForbidden},
		{"トークン不一致", "token-1", "token-2", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/requests", nil)
			if tt.cookieValue != "" {
				req.AddCookie(&http.Cookie{Name: "csrf_token", Value: tt.cookieValue})
			}
			if tt.headerValue != "" {
				req.Header.Set("X-CSRF-Token", tt.headerValue)
			}
			rec := httptest.NewRecorder()

			csrfHandler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestCSRFMiddleware_BearerRequestSkipsValidation(t *testing.T) {
	// Bearer経路はCookieを持たないため検証対象外
	req := httptest.NewRequest(http.MethodPost, "/api/requests", nil)
	req.Header.Set("Authorization", "Bearer idp-token")
	rec := httptest.NewRecorder()

	csrfHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCSRFTokenHandler_IssuesToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Token == "" {
		t.Error("token should not be empty")
	}

	cookie := findCookie(t, rec, "csrf_token")
	if cookie == nil {
		t.Fatal("csrf_token cookie should be set")
	}
	if cookie.Value != body.Token {
		t.Error("cookie and response token should match")
	}
}

func TestCSRFTokenHandler_ReturnsExistingToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "existing"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Token != "existing" {
		t.Errorf("token = %q, want %q", body.Token, "existing")
	}
}
