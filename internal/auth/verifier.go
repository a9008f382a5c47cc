// Package auth verifies bearer tokens on the optimize endpoints.
// Two modes: dev (token is "subject:role", no crypto, local use only)
// and hmac (HS256 JWT verified with a shared secret).
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ModeDev  = "dev"
	ModeHMAC = "hmac"
)

var ErrInvalidToken = errors.New("invalid token")

type Principal struct {
	Subject string
	Role    string
}

// Verifier validates tokens and extracts the caller principal.
type Verifier struct {
	mode   string
	secret []byte
}

func NewVerifier(mode, hmacSecret string) *Verifier {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ModeDev
	}
	return &Verifier{mode: mode, secret: []byte(hmacSecret)}
}

func (v *Verifier) Verify(token string) (Principal, error) {
	switch v.mode {
	case ModeDev:
		parts := strings.SplitN(token, ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			return Principal{}, fmt.Errorf("%w: dev token must be subject:role", ErrInvalidToken)
		}
		return Principal{Subject: parts[0], Role: strings.ToLower(parts[1])}, nil
	case ModeHMAC:
		return v.verifyHMAC(token)
	default:
		return Principal{}, fmt.Errorf("unsupported auth mode %q", v.mode)
	}
}

func (v *Verifier) verifyHMAC(token string) (Principal, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Principal{}, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = "user"
	}
	return Principal{Subject: sub, Role: strings.ToLower(role)}, nil
}

// CanOptimize reports whether the principal may start optimization runs.
func (p Principal) CanOptimize() bool {
	return p.Role == "admin" || p.Role == "planner"
}
