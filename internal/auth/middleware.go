package auth

import (
	"net/http"
)

// Middleware returns an HTTP middleware that enforces a shared API key on
// mutating requests.
//
// Behaviour:
//   - If mode != "apikey" or key == "", all requests pass through.
//   - GET, HEAD, and OPTIONS are always allowed — the live views are public.
//   - Every other method must present key in the configured header;
//     a missing or incorrect key gets 401 with a JSON error body.
func Middleware(mode, header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mode != "apikey" || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if r.Header.Get(header) != key {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
