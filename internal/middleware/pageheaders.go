package middleware

import "net/http"

// Avatars are served by whichever API base the browser has configured, so
// images may come from any http(s) host. Everything else is same-origin.
const pageCSP = "default-src 'self'; img-src 'self' data: http: https:; style-src 'self' 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'"

// PageHeaders hardens rendered pages. Each page is built from one browser's
// session, so responses are never cached and vary by cookie. hsts adds
// Strict-Transport-Security for HTTPS deployments.
func PageHeaders(hsts bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", pageCSP)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "same-origin")
			h.Set("Cache-Control", "no-store")
			h.Add("Vary", "Cookie")
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000")
			}
			next.ServeHTTP(w, r)
		})
	}
}
