// Package router wires the HTTP surface: global middleware, the public auth
// endpoints and the guarded /api routes.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-crm-go/internal/customer"
	"github.com/ovaphlow/pitchfork/service-crm-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-crm-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-crm-go/pkg/utilities"
)

// Pinger reports database reachability for /health. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps is everything the router mounts.
type Deps struct {
	Logger      *zap.SugaredLogger
	Auth        token.Authenticator
	Users       *user.Handler
	Customers   *customer.Handler
	DB          Pinger
	CORSOrigins []string
}

// Version is reported by the / banner.
const Version = "1.0.0"

type bannerResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Database string `json:"database"`
}

// New builds the application handler.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", banner)
	r.Get("/health", health(d.DB))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AllowContentType("application/json")).Post("/register", d.Users.Register)
			r.With(middleware.AllowContentType("application/json")).Post("/login", d.Users.Login)
			r.With(token.Guard(d.Auth, d.Logger)).Get("/me", d.Users.Me)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Use(token.Guard(d.Auth, d.Logger))
			r.Get("/", d.Customers.List)
			r.With(middleware.AllowContentType("application/json")).Post("/", d.Customers.Create)
			r.Get("/{id}", d.Customers.Get)
			r.With(middleware.AllowContentType("application/json")).Put("/{id}", d.Customers.Update)
			r.Delete("/{id}", d.Customers.Delete)
		})
	})

	return r
}

func banner(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, bannerResponse{
		Success: true,
		Message: "CRM Backend API is running",
		Status:  "Server is up and operational",
		Endpoints: map[string]string{
			"authentication": "/api/auth",
			"customers":      "/api/customers",
		},
		Version:   Version,
		Timestamp: time.Now().UTC(),
	})
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := healthResponse{Status: "OK", Message: "Server is running", Database: "Connected"}
		if db == nil {
			res.Database = "Disconnected"
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				res.Database = "Disconnected"
			}
		}
		utilities.WriteJSON(w, http.StatusOK, res)
	}
}
