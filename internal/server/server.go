package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/timelinekit/timeline/internal/utils"
	"github.com/timelinekit/timeline/pkg/enhance"
)

// Server exposes the enhancement endpoint and its metrics.
type Server struct {
	Enhancer enhance.Enhancer
	Registry *prometheus.Registry
	// Username and Password guard /metrics when either is set. The
	// enhancement endpoint stays open to the editor.
	Username string
	Password string
}

// New builds a server around svc. reg should be the registry the service's
// metrics were registered with; nil gets a fresh one.
func New(svc enhance.Enhancer, reg *prometheus.Registry, user, pass string) *Server {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Server{
		Enhancer: svc,
		Registry: reg,
		Username: user,
		Password: pass,
	}
}

// NewRegistry returns a registry carrying the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/enhance", enhance.NewHandler(s.Enhancer))
	mux.Handle("GET /metrics", s.basicAuth(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	utils.Log.Infof("Starting enhancement server on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
