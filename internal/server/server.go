package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/repcoach/internal/coach/session"
	"github.com/meltforce/repcoach/internal/storage"
)

// defaultUserID is the single-athlete deployment default. Multi-tenant
// routing would replace this with authenticated user resolution.
const defaultUserID = 1

// Server holds dependencies for HTTP handlers.
type Server struct {
	db          *storage.DB
	log         *slog.Logger
	apiKey      string
	windowWeeks int
	router      chi.Router

	mu     sync.Mutex
	active map[int]*session.Engine
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, apiKey string, windowWeeks int, log *slog.Logger) *Server {
	s := &Server{
		db:          db,
		log:         log,
		apiKey:      apiKey,
		windowWeeks: windowWeeks,
		router:      chi.NewRouter(),
		active:      make(map[int]*session.Engine),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		// Live session
		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/current", s.handleCurrentSession)
		r.Post("/sessions/current/sets", s.handleLogSet)
		r.Post("/sessions/current/message", s.handleMessage)
		r.Get("/sessions/current/decisions", s.handleDecisions)

		// Parsing and analysis
		r.Post("/intent", s.handleParseIntent)
		r.Get("/history/analysis", s.handleHistoryAnalysis)
		r.Get("/phase", s.handlePhase)

		// Athlete state
		r.Get("/memory", s.handleMovementMemory)
		r.Get("/exercises", s.handleListExercises)
		r.Post("/readiness", s.handleReadiness)
		r.Post("/disruptions", s.handleCreateDisruption)
		r.Post("/disruptions/{id}/close", s.handleCloseDisruption)
	})
}

// engine returns the live session for a user, if one exists.
func (s *Server) engine(userID int) (*session.Engine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.active[userID]
	return e, ok
}

func (s *Server) setEngine(userID int, e *session.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[userID] = e
}
