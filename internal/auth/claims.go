package auth

import (
	"time"
)

// Identity is the caller as asserted by the identity provider. Tokens are
// v4.local, so these claims are unreadable without the shared key.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	// Locality is the neighborhood label shown on the user's posts.
	Locality string `json:"locality,omitempty"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// DisplayName is the name shown on posts, comments and alerts.
func (i *Identity) DisplayName() string {
	if i.Username != "" {
		return i.Username
	}
	return i.UserID
}
