package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	streamauth "github.com/atrisomya/streamauth"
	"github.com/atrisomya/streamauth/assets"
	"github.com/atrisomya/streamauth/middleware"
)

// RefreshTokenCookie is the cookie the refresh endpoints read and set.
const RefreshTokenCookie = "refreshToken"

const maxMultipartMemory = 16 << 20

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, streamauth.ErrFieldsRequired)
		return
	}

	in := streamauth.RegisterInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		FullName: r.FormValue("fullName"),
		Password: r.FormValue("password"),
	}

	avatar, closeAvatar := formFile(r, "avatar")
	if closeAvatar != nil {
		defer closeAvatar()
	}
	in.Avatar = avatar

	cover, closeCover := formFile(r, "coverImage")
	if closeCover != nil {
		defer closeCover()
	}
	in.Cover = cover

	user, err := s.engine.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, user, "User registered successfully")
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in streamauth.LoginInput
	if err := decodeBody(r, map[string]*string{
		"username": &in.Username,
		"email":    &in.Email,
		"password": &in.Password,
	}); err != nil {
		writeError(w, streamauth.ErrFieldsRequired)
		return
	}

	res, err := s.engine.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	setAuthCookies(w, res.Tokens)
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"user":         res.User,
		"accessToken":  res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
	}, "Login successful")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	user, ok := streamauth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, streamauth.ErrUnauthorized)
		return
	}
	if err := s.engine.Logout(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}
	clearAuthCookies(w)
	writeSuccess(w, http.StatusOK, map[string]interface{}{}, "Logout successful")
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFromRequest(r)
	pair, err := s.engine.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	setAuthCookies(w, pair)
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Token refreshed successfully")
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, ok := streamauth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, streamauth.ErrUnauthorized)
		return
	}
	writeSuccess(w, http.StatusOK, user, "Current user fetched successfully")
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "credential store unreachable",
			Success:    false,
		})
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, "healthy")
}

// refreshTokenFromRequest prefers the cookie, then a JSON or form body
// field named refreshToken.
func refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(RefreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	var token string
	_ = decodeBody(r, map[string]*string{"refreshToken": &token})
	return token
}

// decodeBody fills the given fields from a JSON body when the request
// carries one, falling back to form values otherwise.
func decodeBody(r *http.Request, fields map[string]*string) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return err
		}
		for name, dst := range fields {
			*dst = body[name]
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	for name, dst := range fields {
		*dst = r.FormValue(name)
	}
	return nil
}

func formFile(r *http.Request, field string) (*assets.Source, func()) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	f, err := headers[0].Open()
	if err != nil {
		return nil, nil
	}
	return &assets.Source{
		Name:        headers[0].Filename,
		ContentType: headers[0].Header.Get("Content-Type"),
		Body:        f,
	}, func() { _ = f.Close() }
}

func setAuthCookies(w http.ResponseWriter, pair streamauth.TokenPair) {
	http.SetCookie(w, authCookie(middleware.AccessTokenCookie, pair.AccessToken, 0))
	http.SetCookie(w, authCookie(RefreshTokenCookie, pair.RefreshToken, 0))
}

func clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, authCookie(middleware.AccessTokenCookie, "", -1))
	http.SetCookie(w, authCookie(RefreshTokenCookie, "", -1))
}

func authCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
