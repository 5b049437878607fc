// Package token mints the access tokens that let a member join a room's media session.
// Tokens use the LiveKit access-token layout: an HS256 JWT signed with the API secret,
// issued by the API key, carrying a video grant scoped to one room.
package token

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingCredentials is returned by NewIssuer when the key pair is incomplete.
	ErrMissingCredentials = errors.New("token: api key and secret are required")
	// ErrInvalidToken is returned by Verify for tokens that fail validation.
	ErrInvalidToken = errors.New("token: invalid token")
)

// VideoGrant is the room permission embedded in a token.
type VideoGrant struct {
	RoomJoin bool   `json:"roomJoin,omitempty"`
	Room     string `json:"room,omitempty"`
}

// Claims is the JWT payload of a join token.
type Claims struct {
	jwt.RegisteredClaims
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
}

// Identity returns the participant identity the token was issued to.
func (c *Claims) Identity() string {
	return c.Subject
}

// Issuer signs join grants with a fixed API key/secret pair.
type Issuer struct {
	apiKey    string
	apiSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewIssuer validates the key pair up front so that misconfiguration fails at startup.
func NewIssuer(apiKey, apiSecret string, ttl time.Duration) (*Issuer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrMissingCredentials
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token: ttl must be positive, got %s", ttl)
	}
	return &Issuer{
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// IssueJoinToken returns a signed grant allowing memberID to join roomID.
func (i *Issuer) IssueJoinToken(roomID, memberID string) (string, error) {
	if roomID == "" || memberID == "" {
		return "", errors.New("token: room and identity are required")
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   memberID,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Name: memberID,
		Video: &VideoGrant{
			RoomJoin: true,
			Room:     roomID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.apiSecret)
	if err != nil {
		return "", fmt.Errorf("token: sign grant: %w", err)
	}
	return signed, nil
}

// Verify parses a token issued by this Issuer and returns its claims.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.apiSecret, nil
	},
		jwt.WithIssuer(i.apiKey),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Video == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
