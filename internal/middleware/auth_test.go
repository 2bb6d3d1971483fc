package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockVerifier はTokenVerifierのモック実装。
type mockVerifier struct {
	verifyFn func(tokenString string) (string, error)
}

func (m *mockVerifier) VerifyAccessToken(tokenString string) (string, error) {
	if m.verifyFn != nil {
		return m.verifyFn(tokenString)
	}
	return "", fmt.Errorf("invalid token")
}

// userIDEchoHandler はコンテキストのユーザーIDをボディに書き込むハンドラー。
func userIDEchoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			w.Write([]byte("anonymous"))
			return
		}
		w.Write([]byte(userID))
	})
}

func TestAuthMiddleware_AnonymousPassesThrough(t *testing.T) {
	mw := NewAuthMiddleware(&mockVerifier{})
	handler := mw(userIDEchoHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/posts/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "anonymous" {
		t.Errorf("body = %q, want %q", got, "anonymous")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			if tokenString != "valid-token" {
				return "", fmt.Errorf("invalid token")
			}
			return "user-123", nil
		},
	}
	mw := NewAuthMiddleware(verifier)
	handler := mw(userIDEchoHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/posts/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "user-123" {
		t.Errorf("body = %q, want %q", got, "user-123")
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	mw := NewAuthMiddleware(&mockVerifier{})
	handler := mw(userIDEchoHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/posts/", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	mw := NewAuthMiddleware(&mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			t.Errorf("VerifyAccessToken called with %q, want no call", tokenString)
			return "", nil
		},
	})
	handler := mw(userIDEchoHandler())

	tests := []string{"Basic dXNlcjpwYXNz", "Bearer ", "token-without-scheme"}
	for _, header := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/posts/", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequireAuthMiddleware_Anonymous(t *testing.T) {
	mw := NewRequireAuthMiddleware()
	handler := mw(userIDEchoHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/follow/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthMiddleware_Authenticated(t *testing.T) {
	mw := NewRequireAuthMiddleware()
	handler := mw(userIDEchoHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/follow/", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-123"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "user-123" {
		t.Errorf("body = %q, want %q", got, "user-123")
	}
}

func TestUserIDFromContext(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user-123")

	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("UserIDFromContext() error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}

	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("UserIDFromContext() on empty context error = nil, want error")
	}
}
