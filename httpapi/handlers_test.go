package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	streamauth "github.com/atrisomya/streamauth"
	"github.com/atrisomya/streamauth/assets"
	"github.com/atrisomya/streamauth/middleware"
)

type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, src assets.Source) (string, error) {
	return "https://cdn.test/media/" + src.Name, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
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
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return NewServer(engine, log)
}

func multipartRegisterBody(t *testing.T, username, email string, withAvatar bool) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("fullName", "Test User"))
	require.NoError(t, mw.WriteField("username", username))
	require.NoError(t, mw.WriteField("email", email))
	require.NoError(t, mw.WriteField("password", "correct horse battery"))
	if withAvatar {
		fw, err := mw.CreateFormFile("avatar", username+".png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doRegister(t *testing.T, srv *Server, username, email string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartRegisterBody(t, username, email, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func doLogin(t *testing.T, srv *Server, username, password string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRegister(t, srv, "alice", "alice@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)
	require.Equal(t, http.StatusCreated, env.StatusCode)

	user, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "alice", user["username"])
	require.Contains(t, user["avatar"], "https://cdn.test/media/")
	require.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterEndpointRejections(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, doRegister(t, srv, "alice", "alice@example.com").Code)

	t.Run("duplicate", func(t *testing.T) {
		rec := doRegister(t, srv, "alice", "other@example.com")
		require.Equal(t, http.StatusConflict, rec.Code)
		require.False(t, decodeEnvelope(t, rec).Success)
	})

	t.Run("missing avatar", func(t *testing.T) {
		body, contentType := multipartRegisterBody(t, "bob", "bob@example.com", false)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
		req.Header.Set("Content-Type", contentType)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("username", "carol"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, doRegister(t, srv, "alice", "alice@example.com").Code)

	rec := doLogin(t, srv, "alice", "correct horse battery")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotEmpty(t, cookieValue(rec, middleware.AccessTokenCookie))
	require.NotEmpty(t, cookieValue(rec, RefreshTokenCookie))

	env := decodeEnvelope(t, rec)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	require.NotEmpty(t, data["accessToken"])
	require.NotEmpty(t, data["refreshToken"])

	t.Run("wrong password", func(t *testing.T) {
		rec := doLogin(t, srv, "alice", "not the password")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := doLogin(t, srv, "nobody", "whatever pass")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("form body", func(t *testing.T) {
		form := strings.NewReader("username=alice&password=correct horse battery")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, doRegister(t, srv, "alice", "alice@example.com").Code)

	login := doLogin(t, srv, "alice", "correct horse battery")
	require.Equal(t, http.StatusOK, login.Code)

	access := cookieValue(login, middleware.AccessTokenCookie)
	refresh := cookieValue(login, RefreshTokenCookie)

	// authenticated profile fetch
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: access})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// rotation via cookie
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: refresh})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rotated := cookieValue(rec, RefreshTokenCookie)
	require.NotEmpty(t, rotated)
	require.NotEqual(t, refresh, rotated)

	// replaying the superseded token is rejected
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: refresh})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// rotation via JSON body
	payload, err := json.Marshal(map[string]string{"refreshToken": rotated})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	current := cookieValue(rec, RefreshTokenCookie)

	// logout clears both cookies and ends the session
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: access})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		require.Empty(t, c.Value)
		require.Negative(t, c.MaxAge)
	}

	// the live refresh token died with the session
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: current})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/users/logout"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)

		// gate rejections use the same envelope as every other error
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"), tc.path)
		env := decodeEnvelope(t, rec)
		require.False(t, env.Success, tc.path)
		require.Equal(t, http.StatusUnauthorized, env.StatusCode, tc.path)
		require.NotEmpty(t, env.Message, tc.path)
	}
}

func TestRefreshWithoutToken(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, doRegister(t, srv, "alice", "alice@example.com").Code)
	require.Equal(t, http.StatusOK, doLogin(t, srv, "alice", "correct horse battery").Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "streamauth_login_success_total 1")
	require.Contains(t, body, "streamauth_register_success_total 1")
}
