// Package httpapi exposes the catalog and login over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"library-catalog/auth"
	"library-catalog/library"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	// CacheMaxAge is the max-age, in seconds, advertised on book reads.
	CacheMaxAge int
	CORSOrigins []string
}

type Server struct {
	catalog *library.Catalog
	authn   *auth.Authenticator
	guard   *auth.Guard
	health  Pinger
	log     logrus.FieldLogger

	cacheControl string
	router       chi.Router
}

// New wires the routes. Every /books route is mounted behind the guard.
func New(catalog *library.Catalog, authn *auth.Authenticator, codec *auth.TokenCodec, health Pinger, log logrus.FieldLogger, opts Options) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		catalog:      catalog,
		authn:        authn,
		health:       health,
		log:          log,
		cacheControl: fmt.Sprintf("private, max-age=%d", opts.CacheMaxAge),
	}
	s.guard = auth.NewGuard(codec, log, s.writeError)
	s.routes(opts)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s
}

func (s *Server) routes(opts Options) {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorJSON(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Post("/auth/login", s.handleLogin)

	authenticated := s.guard.Require(false)
	adminOnly := s.guard.Require(true)

	r.Route("/books", func(r chi.Router) {
		r.With(authenticated).Get("/", s.handleListBooks)
		r.With(adminOnly).Post("/", s.handleCreateBook)

		r.Route("/{id:[0-9]+}", func(r chi.Router) {
			r.With(authenticated).Get("/", s.handleGetBook)
			r.With(adminOnly).Put("/", s.handleUpdateBook)
			r.With(adminOnly).Delete("/", s.handleDeleteBook)
			r.With(adminOnly).Patch("/status", s.handleSetStatus)
		})
	})

	s.router = r
}
