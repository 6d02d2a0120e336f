package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/pong-tournament/handlers"
	"github.com/Dosada05/pong-tournament/middleware"
)

type Handlers struct {
	Tournament *handlers.TournamentHandler
	Game       *handlers.GameHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, corsOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Get("/openapi.json", handlers.OpenAPIHandler())
	router.Get("/swagger/*", handlers.SwaggerUIHandler("/openapi.json"))

	// WebSocket без таймаута запроса
	router.With(middleware.TournamentCtx).Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Route("/api/tournaments", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Post("/", h.Tournament.CreateHandler)
		r.Get("/", h.Tournament.ListHandler)
		r.Get("/latest", h.Tournament.LatestHandler)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Use(middleware.TournamentCtx)

			r.Get("/state", h.Tournament.GetStateHandler)
			r.Put("/state", h.Tournament.RestoreStateHandler)
			r.Post("/teams", h.Tournament.SubmitTeamsHandler)
			r.Post("/start", h.Tournament.StartHandler)
			r.Post("/matches/select", h.Tournament.SelectMatchHandler)
			r.Post("/playoffs/setup", h.Tournament.OpenPlayoffSetupHandler)
			r.Post("/playoffs", h.Tournament.GeneratePlayoffsHandler)
			r.Post("/groups/finish", h.Tournament.FinishGroupStageHandler)
			r.Post("/reset", h.Tournament.ResetHandler)
			r.Get("/events", h.Tournament.EventsHandler)
			r.Get("/shooters", h.Tournament.TopShootersHandler)

			r.Route("/game", func(r chi.Router) {
				r.Post("/cups", h.Game.ToggleCupHandler)
				r.Post("/undo", h.Game.UndoHandler)
				r.Post("/rearrange", h.Game.RearrangeHandler)
				r.Post("/attribution", h.Game.AttributionHandler)
				r.Post("/clock", h.Game.ClockHandler)
				r.Post("/end", h.Game.EndHandler)
				r.Post("/finalize", h.Game.FinalizeHandler)
				r.Post("/leave", h.Game.LeaveHandler)
			})
		})
	})
}
