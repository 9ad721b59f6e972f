// Package middleware exposes the HTTP auth gate built on
// [streamauth.Engine.Authenticate].
//
// The gate reads the access token from the accessToken cookie or the
// Authorization header, resolves the sanitized identity, and injects it
// into the request context. It translates HTTP semantics into one engine
// call and makes no authentication decisions of its own.
package middleware

import (
	"net/http"
	"strings"

	streamauth "github.com/atrisomya/streamauth"
)

// AccessTokenCookie is the cookie the gate reads before falling back to
// the Authorization header.
const AccessTokenCookie = "accessToken"

// Guard returns middleware that rejects unauthenticated requests with a
// bare 401 and otherwise forwards the request with the sanitized identity
// attached to its context. Handlers read it back with
// [streamauth.IdentityFromContext]. Transports that render errors in a
// specific shape supply their writer via [GuardWithRejection].
func Guard(engine *streamauth.Engine) func(http.Handler) http.Handler {
	return GuardWithRejection(engine, nil)
}

// GuardWithRejection is [Guard] with a caller-supplied 401 renderer, so
// rejections match the transport's error shape. A nil reject falls back
// to a plain-text 401.
func GuardWithRejection(engine *streamauth.Engine, reject http.HandlerFunc) func(http.Handler) http.Handler {
	if reject == nil {
		reject = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				reject(w, r)
				return
			}

			tokenStr, ok := TokenFromRequest(r)
			if !ok {
				reject(w, r)
				return
			}

			user, err := engine.Authenticate(r.Context(), tokenStr)
			if err != nil {
				reject(w, r)
				return
			}

			ctx := streamauth.WithIdentity(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest extracts the access token: the signed cookie first,
// else a Bearer Authorization header.
func TokenFromRequest(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	tokenStr := value[len(bearer):]
	if tokenStr == "" {
		return "", false
	}

	return tokenStr, true
}
