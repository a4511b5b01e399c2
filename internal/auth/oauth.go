package auth

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

const GoogleProvider = "google"

type GoogleConfig struct {
	ClientId     string
	ClientSecret string
	CallbackURL  string
}

func (c GoogleConfig) Enabled() bool {
	return c.ClientId != "" && c.ClientSecret != ""
}

// InitializeGoth registers the Google provider and points gothic at the
// application's session store. It is a no-op when Google login is not
// configured.
func InitializeGoth(store sessions.Store, cfg GoogleConfig) bool {
	gothic.Store = store

	if !cfg.Enabled() {
		slog.Info("google login disabled")
		return false
	}

	goth.UseProviders(google.New(cfg.ClientId, cfg.ClientSecret, cfg.CallbackURL, "email", "profile"))
	slog.Info("google login enabled", "callback", cfg.CallbackURL)
	return true
}

func withGoogle(r *http.Request) *http.Request {
	return gothic.GetContextWithProvider(r, GoogleProvider)
}

func BeginGoogleAuth(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, withGoogle(r))
}

// CompleteGoogleAuth finishes the OAuth exchange and returns the Google
// profile of the user.
func CompleteGoogleAuth(w http.ResponseWriter, r *http.Request) (goth.User, error) {
	r = withGoogle(r)
	user, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		return goth.User{}, err
	}

	if err := gothic.Logout(w, r); err != nil {
		slog.Warn("error clearing oauth state", "error", err)
	}
	return user, nil
}
