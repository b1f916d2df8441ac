package middleware

import (
	"mime"
	"net/http"
)

// Body caps. Multipart posts carry an avatar of up to 5 MiB; every other
// form on the site is a post, a comment or a profile edit.
const (
	FormBodyBytes   int64 = 1 << 20
	UploadBodyBytes int64 = 6 << 20
)

// LimitBody caps request bodies by content type. Reads past the cap fail
// with *http.MaxBytesError, which handlers turn into 413.
func LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		limit := FormBodyBytes
		if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mt == "multipart/form-data" {
			limit = UploadBodyBytes
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}
