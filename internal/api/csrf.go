package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
)

// CSRFHeader carries the masked form token on every response so scripts and
// API clients can echo it back on unsafe requests.
const CSRFHeader = "X-CSRF-Token"

func (s *Server) csrfProtect() func(http.Handler) http.Handler {
	protect := csrf.Protect(
		s.cfg.CSRFKey,
		csrf.Secure(s.cfg.SecureCookies),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.RequestHeader(CSRFHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(exposeCSRFToken(next))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Without TLS the origin checks must compare against http urls.
			if !s.cfg.SecureCookies {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func exposeCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(CSRFHeader, csrf.Token(r))
		next.ServeHTTP(w, r)
	})
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	slog.Warn("rejected request with invalid csrf token", "method", r.Method, "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, "Your form has expired, please reload the page and try again.", http.StatusForbidden)
}

// limitBody caps request bodies before anything reads them, the csrf check
// included.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
		}
		next.ServeHTTP(w, r)
	})
}
