package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type key string

// BrowserIDKey holds the browser id in the request context.
const BrowserIDKey key = "browser_id"

// BrowserIDCookie names the cookie that ties a browser to its stored session.
const BrowserIDCookie = "blog_browser"

// BrowserID makes sure every request carries a browser id, issuing a new
// random one in a long-lived cookie when the request has none or a bad one.
func BrowserID(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(BrowserIDCookie); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     BrowserIDCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), BrowserIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetBrowserID returns the id set by BrowserID, or "".
func GetBrowserID(ctx context.Context) string {
	id, _ := ctx.Value(BrowserIDKey).(string)
	return id
}
