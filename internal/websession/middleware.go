package websession

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const (
	valueContextKey contextKey = "metricsdash_session"
	idContextKey    contextKey = "metricsdash_session_id"
)

func WithValue[V any](ctx context.Context, id string, v V) context.Context {
	if id != "" {
		ctx = context.WithValue(ctx, idContextKey, id)
	}
	return context.WithValue(ctx, valueContextKey, v)
}

func FromContext[V any](ctx context.Context) (V, bool) {
	v, ok := ctx.Value(valueContextKey).(V)
	return v, ok
}

// IDFromContext returns the id of a stored session. Anonymous requests
// have none.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idContextKey).(string)
	return id, ok
}

// Cookies binds browsers to registry entries through a signed cookie.
type Cookies[V any] struct {
	Signer   *Signer
	Registry *Registry[V]
	Name     string
	Logger   *slog.Logger
}

func NewCookies[V any](signer *Signer, reg *Registry[V], name string, logger *slog.Logger) *Cookies[V] {
	return &Cookies[V]{Signer: signer, Registry: reg, Name: name, Logger: logger}
}

// Middleware attaches the caller's session value to the request context.
// Requests without a valid cookie get an unstored value; nothing is kept
// for them until Start is called.
func (c *Cookies[V]) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie(c.Name); err == nil {
			if claims, err := c.Signer.Parse(ck.Value); err == nil {
				if v, err := c.Registry.Get(claims.SessionID); err == nil {
					if c.Signer.NeedsRenewal(claims) {
						if err := c.setCookie(w, claims.SessionID); err != nil {
							c.Logger.Warn("renew session cookie", "err", err)
						}
					}
					next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), claims.SessionID, v)))
					return
				}
			}
			c.expire(w)
		}
		next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), "", c.Registry.Ephemeral())))
	})
}

// Start stores v as the request's session and sets its cookie. It returns
// the existing id when the request already has a stored session.
func (c *Cookies[V]) Start(w http.ResponseWriter, r *http.Request, v V) (string, error) {
	if id, ok := IDFromContext(r.Context()); ok {
		return id, nil
	}
	id := c.Registry.Adopt(v)
	if err := c.setCookie(w, id); err != nil {
		c.Registry.Delete(id)
		return "", err
	}
	return id, nil
}

// End removes the session bound to the request and expires its cookie.
func (c *Cookies[V]) End(w http.ResponseWriter, r *http.Request) {
	if id, ok := IDFromContext(r.Context()); ok {
		c.Registry.Delete(id)
	}
	c.expire(w)
}

func (c *Cookies[V]) setCookie(w http.ResponseWriter, id string) error {
	token, err := c.Signer.Issue(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c *Cookies[V]) expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
