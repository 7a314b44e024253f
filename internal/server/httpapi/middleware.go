package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/server/auth"
)

type ctxKey int

const userIDKey ctxKey = iota

// Authenticator validates "Authorization: Bearer <jwt>" headers and puts
// the account id into the request context.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) userID(r *http.Request) (string, bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false, nil
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return "", true, common.ErrInvalidToken
	}
	id, err := auth.GetUserIDFromToken(token, a.secret)
	if err != nil {
		return "", true, err
	}
	return id, true, nil
}

// Require rejects anonymous requests.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, present, err := a.userID(r)
		if !present || err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

// Optional lets anonymous requests through unchanged but still rejects a
// malformed or forged token: a caller presenting credentials must present
// valid ones.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, present, err := a.userID(r)
		if !present {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

// UserIDFrom returns the authenticated account id, if any.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

func requesterID(r *http.Request) *string {
	if id, ok := UserIDFrom(r.Context()); ok {
		return &id
	}
	return nil
}
