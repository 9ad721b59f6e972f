package store

// User is the full account record. PasswordHash and RefreshHash are secret
// fields: excluded from JSON and stripped by [User.Sanitized] before a
// record crosses the engine boundary.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	AvatarURL     string `json:"avatar"`
	CoverImageURL string `json:"coverImage,omitempty"`
	PasswordHash  string `json:"-"`
	// RefreshHash is the hex SHA-256 of the single live refresh token.
	// Empty means no session.
	RefreshHash string `json:"-"`
	CreatedAt   int64  `json:"createdAt"`
}

// Sanitized returns a copy with the secret fields cleared.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	out.RefreshHash = ""
	return &out
}
