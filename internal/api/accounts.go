package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"resale-backend/internal/auth"
	"resale-backend/internal/database"
	"resale-backend/internal/mailer"
	"resale-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
)

var fieldNames = map[string]string{
	"Email":    "Email",
	"Password": "Password",
	"Confirm":  "Password confirmation",
	"Username": "Username",
}

// validationMessage turns the first failed validation rule into a message
// suitable for a flash.
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "Please check the submitted values."
	}

	fe := errs[0]
	name, ok := fieldNames[fe.Field()]
	if !ok {
		name = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return name + " is required."
	case "email":
		return "Please enter a valid email address."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", name, fe.Param())
	case "eqfield":
		return "Passwords must match."
	default:
		return name + " is invalid."
	}
}

// parseAccountForm decodes and validates an account form. On failure it
// flashes the reason and redirects back to target.
func parseAccountForm[T any](s *Server, w http.ResponseWriter, r *http.Request, target string) (T, bool) {
	form, err := ParseForm[T](r)
	if err != nil {
		s.flashRedirect(w, r, flashDanger, "Please check the submitted values.", target)
		return form, false
	}
	if err := s.validate.Struct(form); err != nil {
		s.flashRedirect(w, r, flashDanger, validationMessage(err), target)
		return form, false
	}
	return form, true
}

func (s *Server) SignupPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		s.redirect(w, r, "/dashboard")
		return
	}
	s.render(w, r, http.StatusOK, "signup", "Sign up", nil)
}

func (s *Server) Signup(w http.ResponseWriter, r *http.Request) error {
	form, ok := parseAccountForm[api.SignupForm](s, w, r, "/signup")
	if !ok {
		return nil
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		return CodedErrorf(http.StatusInternalServerError, "unable to create account")
	}

	user, err := database.CreateUser(r.Context(), s.db, form.Email, hash)
	if err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			s.flashRedirect(w, r, flashWarning, "Email already registered.", "/signup")
			return nil
		}
		return CodedErrorf(http.StatusInternalServerError, "unable to create account")
	}

	slog.Info("account created", "user_id", user.Id)
	s.flashRedirect(w, r, flashSuccess, "Account created! Please log in.", "/login")
	return nil
}

func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		s.redirect(w, r, "/home")
		return
	}
	s.render(w, r, http.StatusOK, "login", "Log in", nil)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) error {
	form, ok := parseAccountForm[api.LoginForm](s, w, r, "/login")
	if !ok {
		return nil
	}

	user, err := database.GetUserByEmail(r.Context(), s.db, form.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return CodedErrorf(http.StatusInternalServerError, "unable to log in")
	}

	if user == nil || !auth.CheckPassword(user.PasswordHash.String, form.Password) {
		s.flashRedirect(w, r, flashDanger, "Invalid email or password.", "/login")
		return nil
	}

	if err := s.sessions.Login(w, r, user.Id); err != nil {
		slog.Error("error saving login session", "user_id", user.Id, "error", err)
		return CodedErrorf(http.StatusInternalServerError, "unable to log in")
	}
	database.TouchLastLogin(r.Context(), s.db, user.Id)

	s.flashRedirect(w, r, flashSuccess, "Logged in successfully!", "/home")
	return nil
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		slog.Error("error clearing session", "error", err)
	}
	s.flashRedirect(w, r, flashInfo, "You have been logged out.", "/login")
}

func (s *Server) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.GoogleEnabled {
		s.flashRedirect(w, r, flashDanger, "Failed to log in with Google.", "/login")
		return
	}
	auth.BeginGoogleAuth(w, r)
}

func (s *Server) GoogleAuthorized(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.GoogleEnabled {
		s.flashRedirect(w, r, flashDanger, "Failed to log in with Google.", "/login")
		return
	}

	gu, err := auth.CompleteGoogleAuth(w, r)
	if err != nil || strings.TrimSpace(gu.Email) == "" {
		slog.Warn("google login failed", "error", err)
		s.flashRedirect(w, r, flashDanger, "Failed to log in with Google.", "/login")
		return
	}

	user, err := database.FindOrCreateOAuthUser(r.Context(), s.db, gu.Email, gu.Name)
	if err != nil {
		s.flashRedirect(w, r, flashDanger, "Failed to log in with Google.", "/login")
		return
	}

	if err := s.sessions.Login(w, r, user.Id); err != nil {
		slog.Error("error saving login session", "user_id", user.Id, "error", err)
		s.flashRedirect(w, r, flashDanger, "Failed to log in with Google.", "/login")
		return
	}
	database.TouchLastLogin(r.Context(), s.db, user.Id)

	s.flashRedirect(w, r, flashSuccess, "Logged in with Google!", "/dashboard")
}

func (s *Server) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "forgot_password", "Forgot password", nil)
}

func (s *Server) ForgotPassword(w http.ResponseWriter, r *http.Request) error {
	form, ok := parseAccountForm[api.RequestResetForm](s, w, r, "/forgot_password")
	if !ok {
		return nil
	}

	user, err := database.GetUserByEmail(r.Context(), s.db, form.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.flashRedirect(w, r, flashWarning, "No account found with that email.", "/forgot_password")
			return nil
		}
		return CodedErrorf(http.StatusInternalServerError, "unable to reset password")
	}

	token, err := s.resets.Generate(user)
	if err != nil {
		slog.Error("error generating reset token", "user_id", user.Id, "error", err)
		return CodedErrorf(http.StatusInternalServerError, "unable to reset password")
	}

	resetURL := strings.TrimRight(s.cfg.PublicURL, "/") + "/reset_password/" + token
	if err := s.publisher.PublishMailTask(r.Context(), mailer.PasswordResetMail(user.Email, resetURL)); err != nil {
		slog.Error("error queueing reset mail", "user_id", user.Id, "error", err)
		s.metrics.MailPublishFailures.Inc()
		s.flashRedirect(w, r, flashDanger, "Unable to send the reset email right now. Please try again later.", "/forgot_password")
		return nil
	}

	s.flashRedirect(w, r, flashInfo, "A password reset link has been sent to your email.", "/login")
	return nil
}

// verifyResetToken flashes and redirects when the token is no longer valid.
func (s *Server) verifyResetToken(w http.ResponseWriter, r *http.Request) (*database.User, error) {
	user, err := s.resets.Verify(r.Context(), s.db, chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			s.flashRedirect(w, r, flashWarning, "That is an invalid or expired token.", "/forgot_password")
			return nil, nil
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "unable to reset password")
	}
	return user, nil
}

func (s *Server) ResetPasswordPage(w http.ResponseWriter, r *http.Request) error {
	user, err := s.verifyResetToken(w, r)
	if user == nil {
		return err
	}

	s.render(w, r, http.StatusOK, "reset_password", "Reset password", struct{ Token string }{chi.URLParam(r, "token")})
	return nil
}

func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) error {
	user, err := s.verifyResetToken(w, r)
	if user == nil {
		return err
	}

	form, ok := parseAccountForm[api.ResetPasswordForm](s, w, r, r.URL.Path)
	if !ok {
		return nil
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		return CodedErrorf(http.StatusInternalServerError, "unable to reset password")
	}

	if err := database.UpdatePassword(r.Context(), s.db, user.Id, hash); err != nil {
		return CodedErrorf(http.StatusInternalServerError, "unable to reset password")
	}

	s.flashRedirect(w, r, flashSuccess, "Your password has been updated! You can now log in.", "/login")
	return nil
}

func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := database.DeleteUser(r.Context(), s.db, user.Id); err != nil {
		slog.Error("error deleting account", "user_id", user.Id, "error", err)
		s.flashRedirect(w, r, flashDanger, "An error occurred while deleting your account. Please contact support.", "/profile")
		return
	}
	slog.Info("account deleted", "user_id", user.Id)

	if user.ProfilePic.Valid {
		s.deleteProfilePic(r.Context(), user.ProfilePic.String)
	}

	if err := s.sessions.Logout(w, r); err != nil {
		slog.Error("error clearing session", "error", err)
	}
	s.flashRedirect(w, r, flashInfo, "Your account has been deleted. You cannot log in again with this account. Please sign up to use the service.", "/login")
}
