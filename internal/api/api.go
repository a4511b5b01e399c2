package api

import (
	"net/http"

	"resale-backend/internal/auth"
	"resale-backend/internal/core"
	"resale-backend/internal/database"
	"resale-backend/internal/messaging"
	"resale-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/securecookie"
	"gorm.io/gorm"
)

type Config struct {
	// PublicURL is the externally reachable base url, used in mailed links.
	PublicURL string

	UploadBucket   string
	MaxUploadBytes int64

	GoogleEnabled  bool
	AllowedOrigins []string

	// CSRFKey signs the csrf cookie. A random key is used when empty, which
	// invalidates open forms on restart.
	CSRFKey       []byte
	SecureCookies bool
}

type Server struct {
	db        *gorm.DB
	history   database.History
	pipeline  *core.Pipeline
	storage   storage.Provider
	publisher messaging.Publisher
	sessions  *auth.SessionManager
	resets    *auth.ResetTokens

	results  *ResultCache
	metrics  *Metrics
	views    *Views
	validate *validator.Validate

	cfg Config
}

func NewServer(
	db *gorm.DB,
	history database.History,
	pipeline *core.Pipeline,
	storage storage.Provider,
	publisher messaging.Publisher,
	sessions *auth.SessionManager,
	resets *auth.ResetTokens,
	cfg Config,
) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(cfg.CSRFKey) == 0 {
		cfg.CSRFKey = securecookie.GenerateRandomKey(32)
	}

	return &Server{
		db:        db,
		history:   history,
		pipeline:  pipeline,
		storage:   storage,
		publisher: publisher,
		sessions:  sessions,
		resets:    resets,
		results:   NewResultCache(ResultTTL),
		metrics:   NewMetrics(),
		views:     MustLoadViews(),
		validate:  validator.New(),
		cfg:       cfg,
	}
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.limitBody)
		r.Use(s.csrfProtect())
		r.Use(s.sessions.LoadUser(s.db))

		r.Get("/", s.Index)
		r.Post("/estimatedResult", s.EstimatedResult)
		r.Get("/results", PageHandler(s.Results))

		r.Get("/signup", s.SignupPage)
		r.Post("/signup", PageHandler(s.Signup))
		r.Get("/login", s.LoginPage)
		r.Post("/login", PageHandler(s.Login))
		r.Get("/google_login", s.GoogleLogin)
		r.Get("/google_login/authorized", s.GoogleAuthorized)
		r.Get("/forgot_password", s.ForgotPasswordPage)
		r.Post("/forgot_password", PageHandler(s.ForgotPassword))
		r.Get("/reset_password/{token}", PageHandler(s.ResetPasswordPage))
		r.Post("/reset_password/{token}", PageHandler(s.ResetPassword))
		r.Get("/profile_pics/*", PageHandler(s.ProfilePic))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)

			r.Get("/home", s.Home)
			r.Get("/prediction", s.PredictionPage)
			r.Get("/logout", s.Logout)
			r.Post("/delete_account", s.DeleteAccount)
			r.Get("/profile", s.ProfilePage)
			r.Post("/profile", PageHandler(s.UpdateProfile))
			r.Get("/dashboard", PageHandler(s.Dashboard))
			r.Post("/delete_prediction/{prediction_id}", PageHandler(s.DeletePrediction))
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   s.cfg.AllowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type", CSRFHeader},
				ExposedHeaders:   []string{CSRFHeader},
				AllowCredentials: true,
				MaxAge:           300,
			}))

			r.Get("/vehicles", RestHandler(s.ListVehicles))
			r.Post("/estimate", RestHandler(s.Estimate))

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireUserAPI)

				r.Get("/predictions", RestHandler(s.ListPredictions))
				r.Delete("/predictions", RestHandler(s.ClearPredictions))
				r.Get("/predictions/{prediction_id}", RestHandler(s.GetPrediction))
				r.Delete("/predictions/{prediction_id}", RestHandler(s.DeletePredictionAPI))
				r.Get("/insights", RestHandler(s.GetInsights))
			})
		})
	})
}

func (s *Server) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	s.sessions.AddFlash(w, r, category, message)
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) flashRedirect(w http.ResponseWriter, r *http.Request, category, message, target string) {
	s.flash(w, r, category, message)
	s.redirect(w, r, target)
}

// currentUser is only valid behind auth.RequireUser.
func currentUser(r *http.Request) *database.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}
