package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perr "idcardocr/internal/platform/errors"
	"idcardocr/internal/platform/logger"
	pnet "idcardocr/internal/platform/net"
	phttp "idcardocr/internal/platform/net/http"
)

// AuthPort resolves the calling client from a request
type AuthPort interface {
	Parse(r *http.Request) (clientID string, err error)
}

// Auth is a no-op when p is nil; otherwise rejected requests get an error envelope
func Auth(p AuthPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			client, err := p.Parse(r)
			if err != nil {
				phttp.RespondError(w, r, err)
				return
			}
			ctx := pnet.WithRequest(r.Context(), "", client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaticToken accepts a single shared bearer token
type StaticToken struct {
	Token  string
	Client string
}

// Parse implements AuthPort
func (s StaticToken) Parse(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	got, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || got == "" {
		return "", perr.Newf(perr.ErrorCodeUnauthorized, "missing bearer token")
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(s.Token)) != 1 {
		logger.C(r.Context()).Warn().Str("remote", r.RemoteAddr).Msg("bad api token")
		return "", perr.Newf(perr.ErrorCodeUnauthorized, "invalid bearer token")
	}
	if s.Client == "" {
		return "api", nil
	}
	return s.Client, nil
}

// TokenAuth returns Auth over a StaticToken, or a no-op when token is empty
func TokenAuth(token string) func(http.Handler) http.Handler {
	if token == "" {
		return Auth(nil)
	}
	return Auth(StaticToken{Token: token})
}
