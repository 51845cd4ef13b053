// Package share issues and verifies read-only board share tokens.
package share

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/flowdeckapp/flowdeck-server/internal/errors"
	"github.com/flowdeckapp/flowdeck-server/internal/id"
)

const (
	tokenIssuer   = "flowdeck-server"
	tokenAudience = "flowdeck-share"

	// PASETO v4 symmetric key requirements.
	keyBytesSize = 32 // 256 bits
	keyHexSize   = 64 // 32 bytes as hex string
)

// Claims are the decoded contents of a share token.
type Claims struct {
	WorkspaceID string `json:"workspace_id"`
	BoardID     string `json:"board_id"`
	IssuedBy    string `json:"issued_by"`
}

// TokenService handles PASETO share token generation and verification.
// Share tokens are v4.local: encrypted, so board ids never appear in URLs
// in the clear.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
}

// NewTokenService creates a new token service with the given hex-encoded key.
func NewTokenService(keyHex string, duration time.Duration) (*TokenService, error) {
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: key,
		duration:     duration,
	}, nil
}

// GenerateKey returns a fresh hex-encoded symmetric key, used when no key is
// configured yet.
func GenerateKey() (string, error) {
	b := make([]byte, keyBytesSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate share key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Issue creates a share token granting read-only access to one board.
func (s *TokenService) Issue(workspaceID, boardID, issuedBy string) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(boardID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.duration))

	tokenID, err := id.Generate("share")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("workspace_id", workspaceID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("board_id", boardID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("issued_by", issuedBy)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts and validates a share token, returning its claims.
// Invalid or expired tokens surface as unauthorized errors.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, errors.Unauthorized("invalid share token").WithCause(err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, errors.Unauthorized("malformed share token claims").WithCause(err)
	}

	return &claims, nil
}

// Duration returns the configured share token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}
