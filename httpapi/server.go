// Package httpapi serves a read-mostly debug API over a running engine.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/milk9111/propsim/engine"
	"github.com/milk9111/propsim/objstate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the part of the engine the API needs.
type Engine interface {
	SceneName() string
	TickCount() int
	Objects() []engine.ObjectView
	Object(name string) (engine.ObjectView, error)
	Switches() []engine.SwitchView
	Activate(name string) error
	States() []objstate.Snapshot
}

type Server struct {
	Engine Engine
	Logger *slog.Logger
}

// NewHandler routes the API. gatherer may be nil to omit /metrics.
func NewHandler(eng Engine, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{Engine: eng, Logger: logger}
	r := chi.NewRouter()
	r.Get("/", s.Status)
	r.Get("/objects", s.ListObjects)
	r.Get("/objects/{name}", s.GetObject)
	r.Get("/switches", s.ListSwitches)
	r.Post("/switches/{name}/activate", s.ActivateSwitch)
	r.Get("/states", s.ListStates)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type statusResponse struct {
	Scene string `json:"scene"`
	Tick  int    `json:"tick"`
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{Scene: s.Engine.SceneName(), Tick: s.Engine.TickCount()})
}

func (s *Server) ListObjects(w http.ResponseWriter, r *http.Request) {
	objs := s.Engine.Objects()
	if objs == nil {
		objs = []engine.ObjectView{}
	}
	s.writeJSON(w, http.StatusOK, objs)
}

func (s *Server) GetObject(w http.ResponseWriter, r *http.Request) {
	obj, err := s.Engine.Object(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, obj)
}

func (s *Server) ListSwitches(w http.ResponseWriter, r *http.Request) {
	sws := s.Engine.Switches()
	if sws == nil {
		sws = []engine.SwitchView{}
	}
	s.writeJSON(w, http.StatusOK, sws)
}

type activateResponse struct {
	Switch string `json:"switch"`
	Tick   int    `json:"tick"`
}

func (s *Server) ActivateSwitch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.Engine.Activate(name); err != nil {
		s.writeError(w, err)
		return
	}
	s.Logger.Info("switch activated over http", "switch", name)
	s.writeJSON(w, http.StatusAccepted, activateResponse{Switch: name, Tick: s.Engine.TickCount()})
}

func (s *Server) ListStates(w http.ResponseWriter, r *http.Request) {
	states := s.Engine.States()
	if states == nil {
		states = []objstate.Snapshot{}
	}
	s.writeJSON(w, http.StatusOK, states)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrUnknownObject), errors.Is(err, engine.ErrUnknownSwitch):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNoScene):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}
