package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if limit := s.cfg.Server.RequestsPerMin; limit > 0 {
		r.Use(httprate.LimitByIP(limit, time.Minute))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/status", s.handleStatus)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/sync", s.handleUserSync)
		r.Get("/me/{authUid}", s.handleUserGet)
		r.Route("/{authUid}", func(r chi.Router) {
			r.Patch("/", s.handleUserUpdate)
			r.Delete("/", s.handleUserDelete)
		})
	})

	r.Route("/api/games", func(r chi.Router) {
		r.Get("/", s.handleGameList)
		r.Post("/", s.handleGameCreate)
		r.Get("/search", s.handleGameSearch)
		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", s.handleGameGet)
			r.Get("/episodes", s.handleEpisodeList)
			r.Get("/characters", s.handleCharacterList)
			r.Post("/characters", s.handleCharacterCreate)
			r.Get("/achievements", s.handleAchievementList)
			r.Post("/achievements", s.handleAchievementCreate)
		})
	})

	r.Route("/api/episodes", func(r chi.Router) {
		r.Post("/", s.handleEpisodeCreate)
		r.Get("/{episodeID}", s.handleEpisodeGet)
	})

	r.Route("/api/progress", func(r chi.Router) {
		r.Post("/", s.handleProgressCommit)
		r.Get("/recent/{userID}", s.handleProgressRecent)
		r.Get("/user/{userID}", s.handleProgressList)
		r.Get("/{userID}/{episodeID}", s.handleProgressGet)
	})

	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/{userID}", s.handleSettingsGet)
		r.Put("/{userID}", s.handleSettingsUpdate)
	})

	r.Route("/api/achievements", func(r chi.Router) {
		r.Get("/user/{userID}", s.handleUserAchievements)
		r.Post("/user/{userID}/{achievementID}", s.handleAchievementUnlock)
	})

	r.Get("/api/ws/progress", s.handleWebSocket)

	return r
}
