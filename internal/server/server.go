// Package server wires the ledger, order registry, actor directory and
// sessions into the HTTP surface the front-end consumes.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tracelane/tracelane/internal/auth"
	"github.com/tracelane/tracelane/internal/ledger"
	"github.com/tracelane/tracelane/internal/orders"
	"github.com/tracelane/tracelane/internal/users"
	"github.com/tracelane/tracelane/pkg/httpx"
)

type Server struct {
	ledger     *ledger.Store
	registry   *orders.Registry
	users      users.Directory
	sessions   *auth.Sessions
	corsOrigin string
}

func New(led *ledger.Store, reg *orders.Registry, dir users.Directory, sessions *auth.Sessions, corsOrigin string) *Server {
	return &Server{
		ledger:     led,
		registry:   reg,
		users:      dir,
		sessions:   sessions,
		corsOrigin: corsOrigin,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Post("/signup", s.signup)
	r.Post("/login", s.login)
	r.Get("/logout", s.logout)
	r.Post("/logout", s.logout)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireSession)

		pr.Post("/reset", s.resetPassword)

		pr.Get("/chain", s.getChain)
		pr.Post("/transaction", s.addTransaction)
		pr.Get("/validate", s.validateChain)

		pr.Get("/orders", s.listOrders)
		pr.Post("/order", s.createOrder)
		pr.Route("/order/{order_id}", func(or chi.Router) {
			or.Post("/status", s.updateStatus)
			or.Post("/roles", s.addRole)
			or.Post("/invite", s.inviteWatcher)
			or.Post("/addon", s.addAddon)
			or.Get("/events", s.orderEvents)
		})

		pr.Get("/marketplace", s.marketplace)
	})

	return r
}

type ctxKey int

const actorKey ctxKey = 0

// requireSession resolves the session cookie to a username and stores it in
// the request context. Everything behind it answers 401 without a session.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing session")
			return
		}
		username, ok := s.sessions.Resolve(cookie.Value)
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid session")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, username)))
	})
}

// actor returns the authenticated username for a request behind
// requireSession.
func actor(r *http.Request) string {
	username, _ := r.Context().Value(actorKey).(string)
	return username
}

// cors lets the web UI on another origin call the API with its session
// cookie.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
