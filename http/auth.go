package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/net/websocket"
)

const (
	ErrTypeUnauthorized = "unauthorized"
)

// TokenFromRequest returns the bearer token of r. Browsers cannot set headers
// on websocket upgrades so the token query parameter is accepted too.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func verifyToken(expected string, r *http.Request) error {
	if expected == "" {
		return nil
	}

	token := TokenFromRequest(r)
	if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		return errors.New("invalid api token").
			WithTag("remote_addr", r.RemoteAddr).
			WithType(ErrTypeUnauthorized)
	}
	return nil
}

// VerifyAuthToken returns a websocket handshake that rejects requests without
// the api token. An empty token accepts everything.
func VerifyAuthToken(token string) func(*websocket.Config, *http.Request) error {
	return func(c *websocket.Config, r *http.Request) error {
		if err := verifyToken(token, r); err != nil {
			logs.Warn(err)
			return err
		}
		return nil
	}
}

// VerifyAuthTokenHandler wraps next with the api token check.
func VerifyAuthTokenHandler(token string, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := verifyToken(token, r); err != nil {
			logs.Warn(err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	}
}
