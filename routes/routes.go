package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/angling-league/docs"
	"github.com/Dosada05/angling-league/handlers"
	"github.com/Dosada05/angling-league/middleware"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	matchHandler *handlers.MatchHandler,
	seriesHandler *handlers.SeriesHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(docs.SwaggerJSON)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	organizerOnly := func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.JWTSecret))
		r.Use(middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin))
	}

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", matchHandler.ListMatches)
		r.Get("/{matchID}", matchHandler.GetMatch)
		r.Get("/{matchID}/leaderboard", matchHandler.GetLeaderboard)

		r.Group(func(r chi.Router) {
			organizerOnly(r)
			r.Post("/", matchHandler.CreateMatch)
			r.Put("/{matchID}", matchHandler.UpdateMatch)
			r.Post("/{matchID}/cancel", matchHandler.CancelMatch)
			r.Post("/{matchID}/anglers/{anglerID}", matchHandler.RegisterAngler)
			r.Delete("/{matchID}/anglers/{anglerID}", matchHandler.UnregisterAngler)
			r.Put("/{matchID}/results/{anglerID}", matchHandler.RecordWeighIn)
		})
	})

	router.Route("/series", func(r chi.Router) {
		r.Get("/", seriesHandler.ListSeries)
		r.Get("/{seriesID}", seriesHandler.GetSeries)
		r.Get("/{seriesID}/standings", seriesHandler.GetStandings)

		r.Group(func(r chi.Router) {
			organizerOnly(r)
			r.Post("/", seriesHandler.CreateSeries)
			r.Put("/{seriesID}/completed", seriesHandler.SetCompleted)
			r.Post("/{seriesID}/standings/publish", seriesHandler.PublishStandings)
		})
	})

	router.Route("/ws", func(r chi.Router) {
		r.Get("/matches/{matchID}", webSocketHandler.ServeMatch)
		r.Get("/series/{seriesID}", webSocketHandler.ServeSeries)
	})
}
