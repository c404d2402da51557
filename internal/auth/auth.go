package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
)

const DevSubject = "dev"

type Claims struct {
	Subject string
	Issuer  string
	Token   string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Claims, error)
}

// TokenAuthenticator accepts a fixed set of bearer tokens, each bound to a
// subject. The subject keys the caller's rate-limit window.
type TokenAuthenticator struct {
	tokens map[string]string
}

// NewAuthenticatorFromEnv reads GOVGATE_DEV_TOKEN and GOVGATE_SERVICE_TOKENS
// ("subject=token,subject=token").
func NewAuthenticatorFromEnv(getenv func(string) string) *TokenAuthenticator {
	a := &TokenAuthenticator{tokens: map[string]string{}}
	if dev := strings.TrimSpace(getenv("GOVGATE_DEV_TOKEN")); dev != "" {
		a.tokens[dev] = DevSubject
	}
	for _, pair := range strings.Split(getenv("GOVGATE_SERVICE_TOKENS"), ",") {
		subject, token, ok := strings.Cut(strings.TrimSpace(pair), "=")
		subject, token = strings.TrimSpace(subject), strings.TrimSpace(token)
		if ok && subject != "" && token != "" {
			a.tokens[token] = subject
		}
	}
	return a
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (Claims, error) {
	bearer, err := extractBearer(r)
	if err != nil {
		return Claims{}, err
	}
	for token, subject := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) == 1 {
			return Claims{Subject: subject, Issuer: "govgate", Token: bearer}, nil
		}
	}
	return Claims{}, ErrInvalidToken
}

func extractBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingBearer
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
