package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/peermart/peermart/internal/ledger"
)

func post(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestSignupAndLogin(t *testing.T) {
	h := &Handler{Store: ledger.NewMemoryStore(), Secret: []byte("test-secret")}

	rec := post(t, h.Signup, `{"name":"Alice","email":"alice@test.local","password":"hunter22"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("signup: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var tok TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil || tok.Token == "" {
		t.Fatalf("signup token: %v, %q", err, tok.Token)
	}

	// The issued token carries user_id and role claims.
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tok.Token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse token: %v", err)
	}
	if claims["role"] != "user" {
		t.Fatalf("role claim = %v", claims["role"])
	}
	if uid, _ := claims["user_id"].(string); uid == "" {
		t.Fatalf("user_id claim missing")
	}

	// Duplicate email is rejected.
	rec = post(t, h.Signup, `{"name":"Alice2","email":"alice@test.local","password":"hunter22"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate signup: status = %d", rec.Code)
	}

	rec = post(t, h.Login, `{"email":"alice@test.local","password":"hunter22"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = post(t, h.Login, `{"email":"alice@test.local","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status = %d", rec.Code)
	}
	rec = post(t, h.Login, `{"email":"nobody@test.local","password":"hunter22"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: status = %d", rec.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	h := &Handler{Store: ledger.NewMemoryStore(), Secret: []byte("test-secret")}
	for _, body := range []string{
		`{"name":"","email":"a@test.local","password":"hunter22"}`,
		`{"name":"A","email":"","password":"hunter22"}`,
		`{"name":"A","email":"a@test.local","password":"short"}`,
	} {
		if rec := post(t, h.Signup, body); rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d", body, rec.Code)
		}
	}
}

func TestEnsureArbiter(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()

	id, err := EnsureArbiter(ctx, store, "Arbiter", "arbiter@test.local", "secret-pass")
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	u, err := store.UserByID(ctx, id)
	if err != nil || u.Role != "arbiter" {
		t.Fatalf("arbiter user = %+v, err = %v", u, err)
	}

	// Idempotent: same email resolves to the same identity.
	again, err := EnsureArbiter(ctx, store, "Arbiter", "arbiter@test.local", "secret-pass")
	if err != nil || again != id {
		t.Fatalf("second ensure: id = %s, err = %v", again, err)
	}

	// A non-arbiter account on the configured email is a hard error.
	h := &Handler{Store: store, Secret: []byte("s")}
	post(t, h.Signup, `{"name":"Eve","email":"eve@test.local","password":"hunter22"}`)
	if _, err := EnsureArbiter(ctx, store, "Arbiter", "eve@test.local", "secret-pass"); err == nil {
		t.Fatalf("expected error for occupied email")
	}

	if _, err := EnsureArbiter(ctx, store, "Arbiter", "", ""); err == nil {
		t.Fatalf("expected error for missing configuration")
	}
}
