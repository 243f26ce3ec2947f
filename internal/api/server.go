// Package api exposes the dispatch engine, its mappings and the live device
// sessions over HTTP.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/larsks/inputbridge/internal/controller"
	"github.com/larsks/inputbridge/internal/device"
	"github.com/larsks/inputbridge/internal/dispatch"
)

// Devices is the view of the session manager the API needs.
type Devices interface {
	Sessions() []device.Info
	Session(handle uuid.UUID) (*device.Session, bool)
}

// StateSource reports the emulated controller state.
type StateSource interface {
	State() controller.State
}

// APIResponse is the envelope of every response.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Server routes REST requests to the engine.
type Server struct {
	engine      *dispatch.Engine
	devices     Devices
	state       StateSource
	mappingFile string
	effectsDir  string
	logRequests bool

	saveMu sync.Mutex
	router *chi.Mux
}

type Option func(*Server)

func WithDevices(d Devices) Option {
	return func(s *Server) { s.devices = d }
}

func WithStateSource(src StateSource) Option {
	return func(s *Server) { s.state = src }
}

// WithMappingFile persists the mapping table to path after every change.
func WithMappingFile(path string) Option {
	return func(s *Server) { s.mappingFile = path }
}

// WithEffectsDir lists effect files found under dir.
func WithEffectsDir(dir string) Option {
	return func(s *Server) { s.effectsDir = dir }
}

func WithRequestLogging(enabled bool) Option {
	return func(s *Server) { s.logRequests = enabled }
}

func NewServer(engine *dispatch.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		router: chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	if s.logRequests {
		s.router.Use(middleware.Logger)
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Route("/mappings", func(r chi.Router) {
		r.Get("/", s.listMappingsHandler)
		r.Route("/{key}", func(r chi.Router) {
			r.Use(s.validateMappingKey)
			r.Get("/", s.getMappingHandler)
			r.With(s.validateJSONRequest).Put("/", s.putMappingHandler)
			r.Delete("/", s.deleteMappingHandler)
		})
	})

	s.router.Get("/commands", s.listCommandsHandler)
	s.router.Delete("/commands/{tag}/mappings", s.deleteTagMappingsHandler)

	s.router.With(s.validateJSONRequest).Post("/dispatch", s.dispatchHandler)

	s.router.Get("/effects", s.listEffectsHandler)
	s.router.With(s.validateJSONRequest).Post("/effects", s.loadEffectHandler)
	s.router.Post("/effects/refresh", s.refreshEffectsHandler)

	s.router.Get("/devices", s.listDevicesHandler)
	s.router.Route("/devices/{handle}/rumble", func(r chi.Router) {
		r.Use(s.validateHandle)
		r.With(s.validateJSONRequest).Post("/", s.startRumbleHandler)
		r.Delete("/", s.stopRumbleHandler)
	})

	s.router.Get("/controller", s.controllerStateHandler)
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) sendResponse(w http.ResponseWriter, resp APIResponse, httpCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) sendSuccess(w http.ResponseWriter, data any) {
	s.sendResponse(w, APIResponse{Status: "ok", Data: data}, http.StatusOK)
}

func (s *Server) sendError(w http.ResponseWriter, message string, httpCode int) {
	s.sendResponse(w, APIResponse{Status: "error", Message: message}, httpCode)
}
