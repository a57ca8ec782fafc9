// internal/middleware/security.go
//
// Security-header middleware for the admin API.
//
// Injects headers suited to a JSON-only, never-framed API on every
// response:
//
//   • Cache-Control             –  configuration must never be cached
//   • Content-Security-Policy   –  nothing may load, nothing may frame
//   • X-Frame-Options           –  click-jacking defence
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  no Referer at all
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP so they survive a handler that
//   writes the body immediately; a handler may still override any of them.
// • Oxford commas, two spaces after periods.

package middleware

import "net/http"

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	const (
		cache = "no-store"
		csp   = "default-src 'none'; frame-ancestors 'none'"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "no-referrer"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", cache)
		h.Set("Content-Security-Policy", csp)
		h.Set("X-Frame-Options", xfo)
		h.Set("X-Content-Type-Options", nosn)
		h.Set("Referrer-Policy", refer)

		next.ServeHTTP(w, r)
	})
}
