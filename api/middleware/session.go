package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pmorrison-au/teashop-backend/api/responses"
	"github.com/pmorrison-au/teashop-backend/pkg/config"
	pkgerrors "github.com/pmorrison-au/teashop-backend/pkg/errors"
	"github.com/pmorrison-au/teashop-backend/pkg/logger"
	"github.com/pmorrison-au/teashop-backend/pkg/session"
)

type sessionStateStore interface {
	Load(ctx context.Context, token string) (*session.State, error)
	Save(ctx context.Context, token string, state *session.State) error
}

// Session ensures every request carries a visitor session: it reads the
// session cookie (issuing one when absent), loads the stored state into the
// request context, and writes the state back after the handler runs so
// handler mutations persist and the sliding TTL resets.
func Session(store sessionStateStore, cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fresh, err := sessionToken(r, cfg)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue session token"))
				return
			}
			if fresh {
				http.SetCookie(w, sessionCookie(cfg, token))
			}

			state := &session.State{}
			if !fresh {
				state, err = store.Load(r.Context(), token)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
					return
				}
			}

			ctx := WithSessionToken(r.Context(), token)
			ctx = WithSessionState(ctx, state)
			if logg != nil {
				ctx = logg.WithSessionToken(ctx, token)
			}

			next.ServeHTTP(w, r.WithContext(ctx))

			if err := store.Save(ctx, token, state); err != nil && logg != nil {
				logg.Error(ctx, "persist session state", err)
			}
		})
	}
}

func sessionToken(r *http.Request, cfg config.SessionConfig) (token string, fresh bool, err error) {
	cookie, err := r.Cookie(cfg.CookieName)
	if err == nil && strings.TrimSpace(cookie.Value) != "" {
		return cookie.Value, false, nil
	}
	token, err = session.NewToken()
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func sessionCookie(cfg config.SessionConfig, token string) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
