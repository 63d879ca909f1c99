package routes

import (
	"net/http"

	"github.com/flowclash/battle-system/handlers"
	"github.com/flowclash/battle-system/middleware"
	"github.com/flowclash/battle-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers собирает все хендлеры приложения для разводки маршрутов.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Judge      *handlers.JudgeHandler
	Admin      *handlers.AdminHandler
	Artist     *handlers.ArtistHandler
	Media      *handlers.MediaHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(h Handlers, jwtSecret []byte) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	// Публичные витрины турниров.
	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.List)
		r.Get("/{tournamentID}", h.Tournament.GetByID)
		r.Get("/{tournamentID}/rounds", h.Tournament.ListRounds)
		r.Get("/{tournamentID}/leaderboard", h.Tournament.Leaderboard)
	})
	router.Get("/rounds/{roundID}/matches", h.Tournament.ListRoundMatches)
	router.Get("/battles/{matchID}/scores", h.Tournament.MatchScores)

	// Кабинет судьи.
	router.Route("/judge", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleJudge))

		r.Get("/assignments", h.Judge.ListAssignments)
		r.Post("/assignments/random", h.Judge.NextAssignment)
		r.Post("/assignments/{assignmentID}/status", h.Judge.UpdateAssignmentStatus)
		r.Get("/battles/{matchID}", h.Judge.GetBattle)
		r.Post("/battles/{matchID}/scores", h.Judge.SubmitScores)
	})

	// Админка: финализация матчей, роли, пул судей.
	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleAdmin, models.RoleModerator))

		r.Post("/finalize/battles/{matchID}", h.Admin.FinalizeBattle)
		r.With(middleware.Authorize(models.RoleAdmin)).Post("/roles/{userID}", h.Admin.SetUserRole)
		r.Get("/tournaments/{tournamentID}/judges", h.Admin.ListJudgePool)
		r.Put("/tournaments/{tournamentID}/judges/{userID}", h.Admin.AddJudgeToPool)
		r.Delete("/tournaments/{tournamentID}/judges/{userID}", h.Admin.RemoveJudgeFromPool)
	})

	// Кабинет артиста: треки.
	router.Route("/artist", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleArtist))

		r.Post("/battles/{matchID}/tracks", h.Artist.UpsertTrack)
		r.Post("/tracks/{trackID}/submit", h.Artist.SubmitTrack)
	})

	// Загрузка медиа доступна любому аутентифицированному пользователю.
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/media/uploads", h.Media.CreateUpload)
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeTournament)

	return router
}
