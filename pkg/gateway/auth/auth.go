package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// ParseBearer extracts the token from an Authorization: Bearer header.
func ParseBearer(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// CheckSharedSecret verifies a request against the configured shared bearer
// secret. An empty secret disables auth entirely.
func CheckSharedSecret(r *http.Request, secret string) bool {
	if secret == "" {
		return true
	}
	token, ok := ParseBearer(r)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
