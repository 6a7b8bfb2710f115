package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrShortSecret  = errors.New("secret must be at least 32 characters")
	ErrNoCredential = errors.New("missing credentials")
)

// Authenticator validates requests against either a bearer JWT signed with
// a shared secret or a bcrypt-hashed API key, whichever is configured.
// With neither configured the server runs open (lab use).
type Authenticator struct {
	jwtSecret    []byte
	apiKeyHashes [][]byte
}

// NewAuthenticator builds an authenticator. jwtSecret may be empty to
// disable JWT auth; apiKeyHashes holds bcrypt hashes of accepted keys.
func NewAuthenticator(jwtSecret string, apiKeyHashes []string) (*Authenticator, error) {
	a := &Authenticator{}
	if jwtSecret != "" {
		if len(jwtSecret) < 32 {
			return nil, ErrShortSecret
		}
		a.jwtSecret = []byte(jwtSecret)
	}
	for _, h := range apiKeyHashes {
		a.apiKeyHashes = append(a.apiKeyHashes, []byte(h))
	}
	return a, nil
}

// Enabled reports whether any credential check is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.jwtSecret) > 0 || len(a.apiKeyHashes) > 0
}

// Authenticate checks the request's credentials. X-API-Key wins when both
// are supplied.
func (a *Authenticator) Authenticate(r *http.Request) error {
	if !a.Enabled() {
		return nil
	}

	if key := r.Header.Get("X-API-Key"); key != "" && len(a.apiKeyHashes) > 0 {
		return a.checkAPIKey(key)
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && len(a.jwtSecret) > 0 {
		return a.checkJWT(strings.TrimPrefix(auth, "Bearer "))
	}

	return ErrNoCredential
}

func (a *Authenticator) checkAPIKey(key string) error {
	for _, hash := range a.apiKeyHashes {
		if bcrypt.CompareHashAndPassword(hash, []byte(key)) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown api key", ErrInvalidToken)
}

func (a *Authenticator) checkJWT(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// HashAPIKey produces the bcrypt hash to store for an API key.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
