// Package httpapi exposes shopping sessions over REST and SSE.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dusk-indust/shopsplit/internal/orchestrator"
	"github.com/dusk-indust/shopsplit/internal/session"
)

// Server serves the shopping API.
type Server struct {
	engine *orchestrator.Engine
	logger *slog.Logger
	http   *http.Server
}

// NewServer creates a Server around the engine.
func NewServer(engine *orchestrator.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine: engine,
		logger: logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/shop", s.handleStartSession)
	mux.HandleFunc("GET /api/v1/shop/{id}", s.handleGetSession)
	mux.HandleFunc("GET /api/v1/shop/{id}/stream", s.handleStream)
	mux.HandleFunc("POST /api/v1/shop/{id}/confirm", s.handleConfirm)
	mux.HandleFunc("POST /api/v1/shop/{id}/cancel", s.handleCancel)
	mux.HandleFunc("GET /api/v1/merchants", s.handleMerchants)
	mux.HandleFunc("POST /api/v1/merchants/discover", s.handleDiscover)
	mux.HandleFunc("GET /api/v1/orders", s.handleOrders)
	mux.HandleFunc("GET /api/v1/orders/{id}", s.handleOrder)

	return mux
}

// Start begins serving on addr in a background goroutine.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go s.http.ListenAndServe()

	s.logger.Info("http api listening", "addr", addr)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	sess, err := s.engine.StartSession(r.Context(), req.Query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Session(r.PathValue("id"))
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleStream serves the session's progress feed as SSE: full history
// replay first, then live events until a terminal event closes the feed or
// the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.engine.Session(id); err != nil {
		writeActionError(w, err)
		return
	}

	events, cancel := s.engine.Subscribe(id)
	defer cancel()

	sw := NewSSEWriter(w)
	sw.Init()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sw.WriteEvent(ev); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.engine.Confirm(r.Context(), id); err != nil {
		writeActionError(w, err)
		return
	}
	sess, err := s.engine.Session(id)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sess)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.engine.Cancel(r.Context(), id); err != nil {
		writeActionError(w, err)
		return
	}
	sess, err := s.engine.Session(id)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleMerchants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"merchants": s.engine.Merchants(),
	})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return
	}

	discovered := s.engine.DiscoverMerchants(r.Context(), req.URLs)
	writeJSON(w, http.StatusOK, map[string]any{
		"merchants": discovered,
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"orders": s.engine.Orders(),
	})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.engine.Order(r.PathValue("id"))
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// writeActionError maps session errors onto HTTP statuses: not found to 404,
// duplicate actions and state conflicts to 409.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrDuplicateAction), errors.Is(err, session.ErrStateConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
