package stremio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"reviewero/internal/apperr"
	"reviewero/internal/observe"
	"reviewero/internal/pipeline"
)

const serviceHTTP = "http"

// Streamer answers protocol stream paths.
type Streamer interface {
	Stream(ctx context.Context, path string) pipeline.Outcome
}

// Options configures the addon server.
type Options struct {
	Listen    string
	RateLimit float64 // Requests per second per client, 0 disables limiting
	RateBurst int
	Version   string
}

// Manifest is the addon description served at /manifest.json.
type Manifest struct {
	ID          string   `json:"id"`
	Version     string   `json:"version"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Resources   []string `json:"resources"`
	Types       []string `json:"types"`
	IDPrefixes  []string `json:"idPrefixes"`
	Catalogs    []any    `json:"catalogs"`
}

// Server is the Stremio addon HTTP surface.
type Server struct {
	opts     Options
	streamer Streamer
	obs      observe.Observer
	limiter  *IPRateLimiter
	router   *mux.Router
}

// NewServer builds the router.
func NewServer(opts Options, streamer Streamer, obs observe.Observer) *Server {
	if opts.Version == "" {
		opts.Version = "0.0.0"
	}
	s := &Server{opts: opts, streamer: streamer, obs: obs}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = NewIPRateLimiter(rate.Limit(opts.RateLimit), burst)
	}

	r := mux.NewRouter()
	r.Use(corsMiddleware, s.logMiddleware)
	r.HandleFunc("/manifest.json", s.handleManifest).Methods(http.MethodGet, http.MethodOptions)
	r.PathPrefix("/stream/").HandlerFunc(s.handleStream).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/logs", s.handleLogs).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second, // covers one model call
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.obs.Infof(serviceHTTP, "addon listening on %s", s.opts.Listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.obs.Infof(serviceHTTP, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Manifest{
		ID:          "org.reviewero.addon",
		Version:     s.opts.Version,
		Name:        AddonName,
		Description: "Short spoiler-free reviews shown as a stream entry.",
		Resources:   []string{"stream"},
		Types:       []string{"movie", "series"},
		IDPrefixes:  []string{"tt"},
		Catalogs:    []any{},
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	q, _ := pipeline.ParseStreamPath(path)

	if s.limiter != nil && !s.limiter.Allow(clientIP(r)) {
		e := apperr.RateLimited(AddonName)
		s.obs.Warnf(serviceHTTP, "rate limited %s on %s", clientIP(r), path)
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusOK, Message(e.Message, q.ExternalID, q.Season, q.Episode))
		return
	}

	out := s.streamer.Stream(r.Context(), path)
	writeJSON(w, http.StatusOK, Describe(out, q.ExternalID, q.Season, q.Episode))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := s.obs.Entries()
	if entries == nil {
		entries = []observe.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// corsMiddleware opens every route to Stremio clients, which fetch from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.obs.Debugf(serviceHTTP, "%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
