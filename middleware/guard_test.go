package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	streamauth "github.com/atrisomya/streamauth"
	"github.com/atrisomya/streamauth/assets"
)

type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, src assets.Source) (string, error) {
	return "https://cdn.test/media/" + src.Name, nil
}

func newGuardedEngine(t *testing.T) (*streamauth.Engine, string) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := streamauth.DefaultConfig()
	cfg.Token.AccessSecret = []byte("test-access-secret-0123456789abcdef")
	cfg.Token.RefreshSecret = []byte("test-refresh-secret-0123456789abcde")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	engine, err := streamauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUploader(stubUploader{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := engine.Register(context.Background(), streamauth.RegisterInput{
		FullName: "Test User",
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct horse battery",
		Avatar:   &streamauth.AssetSource{Name: "a.png", ContentType: "image/png", Body: strings.NewReader("png")},
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	res, err := engine.Login(context.Background(), streamauth.LoginInput{
		Username: "alice",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	return engine, res.Tokens.AccessToken
}

func guardHandler(t *testing.T, engine *streamauth.Engine) http.Handler {
	t.Helper()

	return Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := streamauth.IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("expected identity in context")
		}
		_, _ = w.Write([]byte(user.Username))
	}))
}

func TestGuardAcceptsCookie(t *testing.T) {
	engine, access := newGuardedEngine(t)
	handler := guardHandler(t, engine)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: access})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "alice" {
		t.Fatalf("expected alice, got %q", body)
	}
}

func TestGuardAcceptsBearerHeader(t *testing.T) {
	engine, access := newGuardedEngine(t)
	handler := guardHandler(t, engine)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGuardCookieWinsOverHeader(t *testing.T) {
	engine, access := newGuardedEngine(t)
	handler := guardHandler(t, engine)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: access})
	req.Header.Set("Authorization", "Bearer invalid-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected cookie to take precedence, got %d", rec.Code)
	}
}

func TestGuardWithRejectionUsesCustomWriter(t *testing.T) {
	engine, _ := newGuardedEngine(t)

	handler := GuardWithRejection(engine, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false}`))
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for rejected requests")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected custom rejection body, got content type %q", ct)
	}
}

func TestGuardRejects(t *testing.T) {
	engine, _ := newGuardedEngine(t)
	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for rejected requests")
	}))

	cases := map[string]func(*http.Request){
		"no token":       func(r *http.Request) {},
		"garbage cookie": func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "bad"}) },
		"garbage bearer": func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") },
		"empty bearer":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
		"basic auth":     func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") },
	}
	for name, prepare := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		prepare(req)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}
