package auth

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/id"
)

// TokenService verifies identity tokens. Mint exists for development tooling
// and tests; in production the identity provider issues tokens with the same
// shared key.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	issuer       string
	audience     string
}

// NewTokenService creates a token service for a hex-encoded v4 key.
func NewTokenService(keyHex, issuer, audience string) (*TokenService, error) {
	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters (%d bytes), got %d", keyHexLength, keyLength, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{symmetricKey: key, issuer: issuer, audience: audience}, nil
}

// Mint issues a token for userID valid for ttl.
func (s *TokenService) Mint(userID, username, locality string, ttl time.Duration) (string, error) {
	if userID == "" || !ValidUserID(userID) {
		return "", fmt.Errorf("invalid user ID %q", userID)
	}
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(s.issuer)
	token.SetSubject(userID)
	token.SetAudience(s.audience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(ttl))

	tokenID, err := id.Generate("tok")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("user_id", userID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("username", username)
	if locality != "" {
		//nolint:errcheck // Token.Set only errors on invalid types, which we control
		_ = token.Set("locality", locality)
	}

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts and checks a token. Expired tokens yield TOKEN_EXPIRED;
// anything else that fails is UNAUTHORIZED.
func (s *TokenService) Verify(tokenString string) (*Identity, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(s.audience))
	parser.AddRule(paseto.IssuedBy(s.issuer))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, errors.Unauthorized("invalid token").WithCause(err)
	}

	var claims Identity
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, errors.Unauthorized("malformed token claims").WithCause(err)
	}
	if claims.UserID == "" {
		return nil, errors.Unauthorized("token has no user")
	}
	if !ValidUserID(claims.UserID) {
		return nil, errors.Unauthorized("token user ID contains a reserved character")
	}

	now := time.Now()
	if !claims.Expiration.IsZero() && now.After(claims.Expiration) {
		return nil, errors.TokenExpired("token expired")
	}
	if nbf, err := token.GetNotBefore(); err == nil && now.Before(nbf) {
		return nil, errors.Unauthorized("token not yet valid")
	}

	return &claims, nil
}

// ValidUserID reports whether userID can be embedded in store keys. ':'
// separates key segments, so an ID containing it could match another
// user's prefix scans.
func ValidUserID(userID string) bool {
	return !strings.ContainsRune(userID, ':')
}
