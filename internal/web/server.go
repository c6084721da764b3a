// Package web serves the admin UI, the JSON API and the live event stream.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/metorial/script-admin/internal/controller"
	"github.com/metorial/script-admin/internal/events"
	"github.com/metorial/script-admin/internal/logging"
	"github.com/metorial/script-admin/internal/models"
	"github.com/metorial/script-admin/internal/views"
)

type HistoryReader interface {
	GetExecutions(ctx context.Context, scriptID string, limit int) ([]models.ScriptExecution, error)
}

type StatsCollector interface {
	Collect(ctx context.Context) (models.HostStats, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Controller *controller.Controller
	Renderer   *views.Renderer
	Broker     *events.Broker
	// History, Stats and Pinger are optional.
	History    HistoryReader
	Stats      StatsCollector
	Pinger     Pinger
	Logger     *zap.SugaredLogger
	RunTimeout time.Duration
}

type Server struct {
	ctrl       *controller.Controller
	renderer   *views.Renderer
	broker     *events.Broker
	history    HistoryReader
	stats      StatsCollector
	pinger     Pinger
	log        *zap.SugaredLogger
	runTimeout time.Duration
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	return &Server{
		ctrl:       opts.Controller,
		renderer:   opts.Renderer,
		broker:     opts.Broker,
		history:    opts.History,
		stats:      opts.Stats,
		pinger:     opts.Pinger,
		log:        log,
		runTimeout: opts.RunTimeout,
	}
}

// Router returns a router with every UI and API route registered.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/ui/category", s.handleSelectCategory).Methods(http.MethodPost)
	r.HandleFunc("/ui/scripts/new", s.handleOpenAdd).Methods(http.MethodPost)
	r.HandleFunc("/ui/scripts", s.handleSaveForm).Methods(http.MethodPost)
	r.HandleFunc("/ui/form/cancel", s.handleCancelForm).Methods(http.MethodPost)
	r.HandleFunc("/ui/notice/dismiss", s.handleDismissNotice).Methods(http.MethodPost)
	r.HandleFunc("/ui/scripts/{id}/edit", s.handleOpenEdit).Methods(http.MethodPost)
	r.HandleFunc("/ui/scripts/{id}/run", s.handleRunForm).Methods(http.MethodPost)
	r.HandleFunc("/ui/scripts/{id}/delete", s.handleDeleteForm).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/scripts", s.handleListScripts).Methods(http.MethodGet)
	api.HandleFunc("/scripts", s.handleCreateScript).Methods(http.MethodPost)
	api.HandleFunc("/scripts/{id}", s.handleGetScript).Methods(http.MethodGet)
	api.HandleFunc("/scripts/{id}", s.handleUpdateScript).Methods(http.MethodPut)
	api.HandleFunc("/scripts/{id}", s.handleDeleteScript).Methods(http.MethodDelete)
	api.HandleFunc("/scripts/{id}/run", s.handleRunScript).Methods(http.MethodPost)
	api.HandleFunc("/scripts/{id}/output", s.handleGetOutput).Methods(http.MethodGet)
	api.HandleFunc("/scripts/{id}/executions", s.handleGetExecutions).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.S().Errorw("failed to encode JSON response", "error", err)
	}
}

// statusFor maps controller and validation errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, controller.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
