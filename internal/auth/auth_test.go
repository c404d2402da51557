package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func request(header string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/v1/intercept", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestAuthenticateDevToken(t *testing.T) {
	a := NewAuthenticatorFromEnv(env(map[string]string{"GOVGATE_DEV_TOKEN": "dev-secret"}))
	claims, err := a.Authenticate(request("Bearer dev-secret"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.Subject != DevSubject || claims.Token != "dev-secret" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthenticateServiceTokens(t *testing.T) {
	a := NewAuthenticatorFromEnv(env(map[string]string{
		"GOVGATE_SERVICE_TOKENS": " procurement = tok-p ,broken, finance=tok-f",
	}))
	claims, err := a.Authenticate(request("Bearer tok-f"))
	if err != nil || claims.Subject != "finance" {
		t.Fatalf("unexpected result %+v, %v", claims, err)
	}
	if len(a.tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(a.tokens))
	}
}

func TestAuthenticateFailures(t *testing.T) {
	a := NewAuthenticatorFromEnv(env(map[string]string{"GOVGATE_DEV_TOKEN": "dev-secret"}))
	cases := map[string]error{
		"":                ErrMissingBearer,
		"Basic abc":       ErrInvalidToken,
		"Bearer ":         ErrInvalidToken,
		"Bearer not-mine": ErrInvalidToken,
	}
	for header, want := range cases {
		if _, err := a.Authenticate(request(header)); !errors.Is(err, want) {
			t.Fatalf("%q: expected %v, got %v", header, want, err)
		}
	}
}

func TestAuthenticateNoTokensConfigured(t *testing.T) {
	a := NewAuthenticatorFromEnv(env(nil))
	if _, err := a.Authenticate(request("Bearer anything")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
