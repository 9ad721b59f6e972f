package httpapi

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	streamauth "github.com/atrisomya/streamauth"
	"github.com/atrisomya/streamauth/middleware"
)

// Server is the HTTP surface over an Engine. It owns routing, request
// logging, and the prometheus registry for the engine's counters.
type Server struct {
	engine *streamauth.Engine
	log    *logrus.Logger
	router *mux.Router
}

// NewServer wires all routes. Protected routes sit behind the access
// token guard; everything else is public.
func NewServer(engine *streamauth.Engine, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		engine: engine,
		log:    log,
		router: mux.NewRouter(),
	}

	guard := middleware.GuardWithRejection(engine, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, streamauth.ErrUnauthorized)
	})

	api := s.router.PathPrefix("/api/v1/users").Subrouter()
	api.HandleFunc("/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/refresh-token", s.refresh).Methods(http.MethodPost)
	api.Handle("/logout", guard(http.HandlerFunc(s.logout))).Methods(http.MethodPost)
	api.Handle("/me", guard(http.HandlerFunc(s.me))).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	registry := prometheus.NewRegistry()
	registry.MustRegister(newEngineCollector(engine))
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router.Use(s.logRequests)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// logRequests records one line per request and stamps the client IP into
// the context so the engine can attribute audit events.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		r = r.WithContext(streamauth.WithClientIP(r.Context(), ip))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"ip":       ip,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
