package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthMiddleware_ExposesClaims(t *testing.T) {
	v := NewTokenVerifier("secret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	var got *Claims
	h := AuthMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetClaims(r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Subject != "user-1" || got.Role != "authenticated" {
		t.Fatalf("claims = %+v", got)
	}

	// OPTIONS passes through without claims.
	got = nil
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodOptions, "/", nil))
	if got != nil {
		t.Errorf("OPTIONS request carried claims: %+v", got)
	}
}
