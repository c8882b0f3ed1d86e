package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/events"
	"github.com/sells-group/leadscrape/internal/model"
	"github.com/sells-group/leadscrape/internal/store"
)

const defaultPingInterval = 15 * time.Second

// Server exposes a Session over local HTTP for a desktop front end.
type Server struct {
	baseCtx        context.Context
	session        *Session
	store          store.Store
	hub            *events.Hub
	allowedOrigins []string
	helpURL        string
	pingInterval   time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAllowedOrigins sets the CORS origins allowed to call the API.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithHelpURL overrides the help redirect target.
func WithHelpURL(u string) ServerOption {
	return func(s *Server) {
		if u != "" {
			s.helpURL = u
		}
	}
}

// WithPingInterval sets the keep-alive interval of event streams.
func WithPingInterval(d time.Duration) ServerOption {
	return func(s *Server) { s.pingInterval = d }
}

// NewServer creates a Server. Runs started through it live as long as
// baseCtx. st may be nil, in which case the ledger routes answer 503.
func NewServer(baseCtx context.Context, session *Session, st store.Store, hub *events.Hub, opts ...ServerOption) *Server {
	s := &Server{
		baseCtx:      baseCtx,
		session:      session,
		store:        st,
		hub:          hub,
		helpURL:      DefaultHelpURL,
		pingInterval: defaultPingInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/config", s.handleSaveConfig)
	r.Post("/runs", s.handleStartRun)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{id}", s.handleGetRun)
	r.Post("/stop", s.handleStop)
	r.Get("/log", s.handleLog)
	r.Get("/events", s.handleEvents)
	r.Get("/files", s.handleFile)
	r.Get("/help", s.handleHelp)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.session.SaveConfig(req.APIKey)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query      string `json:"query"`
		MaxScrolls int    `json:"max_scrolls"`
		Hold       *bool  `json:"hold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := s.session.Defaults()
	if req.MaxScrolls > 0 {
		opts.MaxScrolls = req.MaxScrolls
	}
	if req.Hold != nil {
		opts.HoldUntilStop = *req.Hold
	}

	h, err := s.session.Start(s.baseCtx, model.Query(req.Query), opts)
	switch {
	case errors.Is(err, ErrMissingQuery):
		writeError(w, http.StatusBadRequest, msgMissingQuery)
		return
	case errors.Is(err, ErrMissingAPIKey):
		writeError(w, http.StatusBadRequest, msgMissingAPIKey)
		return
	case errors.Is(err, ErrRunActive):
		writeError(w, http.StatusConflict, "a run is already active")
		return
	case err != nil:
		zap.L().Error("shell: start run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not start run")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"run_id": h.ID(),
		"query":  h.Query().String(),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run ledger unavailable")
		return
	}
	filter := store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
		Query:  r.URL.Query().Get("query"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("shell: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run ledger unavailable")
		return
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("shell: get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	active := s.session.Stop()
	writeJSON(w, http.StatusAccepted, map[string]bool{"active": active})
}

func (s *Server) handleLog(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, strings.Join(s.session.Log(), "\n"))
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	writeText(w, http.StatusOK, LoadFile(path))
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.helpURL, http.StatusFound)
}

// handleEvents streams hub events as server-sent events until the client
// goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	reqID := middleware.GetReqID(r.Context())
	writeEvent(w, events.Make(reqID, events.TypePing, nil))
	flusher.Flush()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			writeEvent(w, events.Make(reqID, events.TypePing, nil))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, msg)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, data string) {
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", data) //nolint:errcheck
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body)) //nolint:errcheck
}
