package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/config"
	"github.com/terra-clan/skillpath-engine/internal/playground"
	"github.com/terra-clan/skillpath-engine/internal/progress"
	"github.com/terra-clan/skillpath-engine/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	catalog        *catalog.Store
	progress       *progress.Service
	runner         playground.Runner
	repo           storage.Repository
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	store *catalog.Store,
	progressSvc *progress.Service,
	runner playground.Runner,
	repo storage.Repository,
) *Server {
	s := &Server{
		config:         cfg,
		catalog:        store,
		progress:       progressSvc,
		runner:         runner,
		repo:           repo,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// Catalog browsing is public; it serves read-only snapshot data
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/career-paths", s.handleListCareerPaths)
		r.Route("/career-paths/{careerPathID}", func(r chi.Router) {
			r.Get("/", s.handleGetCareerPath)
			r.Get("/learning-paths", s.handleListLearningPaths)
			r.Route("/learning-paths/{learningPathID}", func(r chi.Router) {
				r.Get("/", s.handleGetLearningPath)
				r.Get("/next", s.handleNextLearningPath)
				r.Get("/skills", s.handleListSkills)
				r.Route("/skills/{skillID}", func(r chi.Router) {
					r.Get("/", s.handleGetSkill)
					r.Get("/next", s.handleNextSkill)
					r.Get("/resources", s.handleListResources)
					r.Get("/resources/{resourceID}", s.handleGetResource)
				})
			})
		})
	})

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		// Progress
		r.Route("/progress/{userID}", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("progress:read")).Get("/", s.handleGetProgress)
			r.With(s.authMiddleware.RequirePermission("progress:read")).Get("/career-paths/{careerPathID}/summary", s.handleCareerPathSummary)
			r.With(s.authMiddleware.RequirePermission("progress:write")).Post("/resources", s.handleMarkResource)
			r.With(s.authMiddleware.RequirePermission("progress:write")).Post("/experience", s.handleAddExperience)
			r.With(s.authMiddleware.RequirePermission("progress:write")).Post("/achievements", s.handleAddAchievement)
		})

		// Challenges
		r.Route("/challenges/{userID}", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("progress:read")).Get("/", s.handleListChallenges)

			r.Route("/{challengeID}", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("progress:read")).Get("/", s.handleGetChallenge)
				r.With(s.authMiddleware.RequirePermission("progress:write")).Post("/attempts", s.handleRecordAttempt)
				r.With(s.authMiddleware.RequirePermission("progress:write")).Post("/hints", s.handleUseHint)
				r.With(s.authMiddleware.RequirePermission("progress:write")).Post("/time", s.handleAddTimeSpent)
				r.With(s.authMiddleware.RequirePermission("progress:write")).Post("/complete", s.handleCompleteChallenge)
			})
		})

		// Playgrounds
		r.Route("/playgrounds", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("playground:read")).Get("/", s.handleListSessions)
			r.With(s.authMiddleware.RequirePermission("playground:write")).Post("/", s.handleOpenSession)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("playground:read")).Get("/", s.handleGetSession)
				r.With(s.authMiddleware.RequirePermission("playground:write")).Delete("/", s.handleDeleteSession)
				r.With(s.authMiddleware.RequirePermission("playground:write")).Post("/stop", s.handleStopSession)
				r.With(s.authMiddleware.RequirePermission("playground:write")).Post("/extend", s.handleExtendSession)
				r.With(s.authMiddleware.RequirePermission("playground:read")).Get("/logs", s.handleGetSessionLogs)
				r.With(s.authMiddleware.RequirePermission("playground:write")).Get("/terminal", s.handleTerminalWS)
			})
		})

		// Admin catalog management
		r.Route("/admin/career-paths", func(r chi.Router) {
			r.Use(s.authMiddleware.RequirePermission("catalog:write"))

			r.Put("/{careerPathID}", s.handleSaveCareerPath)
			r.Delete("/{careerPathID}", s.handleDeleteCareerPath)

			r.Route("/{careerPathID}/learning-paths", func(r chi.Router) {
				r.Put("/{learningPathID}", s.handleSaveLearningPath)
				r.Delete("/{learningPathID}", s.handleDeleteLearningPath)

				r.Route("/{learningPathID}/skills", func(r chi.Router) {
					r.Put("/{skillID}", s.handleSaveSkill)
					r.Delete("/{skillID}", s.handleDeleteSkill)

					r.Route("/{skillID}/resources", func(r chi.Router) {
						r.Put("/{resourceID}", s.handleSaveResource)
						r.Delete("/{resourceID}", s.handleDeleteResource)
					})
				})
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
