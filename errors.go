package streamauth

import "errors"

var (
	// ErrUnauthorized is the generic authentication failure returned by the
	// gate and the refresh flow. Callers must not receive anything more
	// specific; the underlying cause is logged internally.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned by Login on a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by Login when no user matches the
	// supplied username or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by Register when the username or email is
	// already taken.
	ErrUserExists = errors.New("username or email already taken")
	// ErrFieldsRequired is returned by Register and Login when a mandatory
	// field is empty.
	ErrFieldsRequired = errors.New("all fields are mandatory")
	// ErrAvatarRequired is returned by Register when no avatar source is
	// supplied or the avatar upload yields no asset.
	ErrAvatarRequired = errors.New("avatar is mandatory")
	// ErrTokenInvalid marks a malformed token, a bad signature, or a token
	// of the wrong kind.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired marks a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrRefreshReuse is recorded internally when a presented refresh token
	// does not match the stored one. Callers still observe ErrUnauthorized.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrRegistrationIncomplete is returned when the post-create re-read of
	// a new user record comes back absent.
	ErrRegistrationIncomplete = errors.New("registration could not be confirmed")
	// ErrStoreUnavailable wraps credential store transport failures.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrEngineNotReady is returned when an Engine method is invoked before
	// Build wired all dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
