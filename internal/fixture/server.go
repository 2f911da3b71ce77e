package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/yolodolo42/itemdeck/internal/integration"
)

// Server serves canned integration payloads on the same routes as the remote
// integration service
type Server struct {
	*http.Server
	router   *chi.Mux
	fixtures *Set
	logger   zerolog.Logger
}

// NewServer creates a fixture server listening on addr
func NewServer(addr string, fixtures *Set, logger zerolog.Logger) *Server {
	s := &Server{
		fixtures: fixtures,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(logger))

	r.Get("/health", s.handleHealth)
	r.Route("/integrations", func(r chi.Router) {
		r.Post("/{resource}/{action}", s.handleLoad)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	s.router = r
	s.Server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
	}
	return s
}

// Handler returns the router, for use with httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.Addr).Msg("fixture server listening")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "itemdeck-fixtures",
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sel, ok := integration.Lookup(chi.URLParam(r, "resource"), chi.URLParam(r, "action"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}

	raw := r.FormValue("credentials")
	if raw == "" {
		writeDetail(w, http.StatusBadRequest, "Missing credentials")
		return
	}
	var creds map[string]any
	if err := json.Unmarshal([]byte(raw), &creds); err != nil || creds == nil {
		writeDetail(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	f, ok := s.fixtures.Get(sel)
	if !ok {
		writeDetail(w, http.StatusNotFound, "No fixtures for "+sel.DisplayName())
		return
	}

	if f.Token != "" {
		token, _ := creds["access_token"].(string)
		if token == "" {
			writeDetail(w, http.StatusBadRequest, "No access token found in credentials")
			return
		}
		if token != f.Token {
			writeDetail(w, http.StatusUnauthorized, "invalid token")
			return
		}
	}

	if f.Delay != "" {
		if d, err := time.ParseDuration(f.Delay); err == nil {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
	}

	if f.Status != 0 {
		writeDetail(w, f.Status, f.Detail)
		return
	}

	if f.Payload != nil {
		writeJSON(w, http.StatusOK, f.Payload)
		return
	}
	items := f.Items
	if items == nil {
		items = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
