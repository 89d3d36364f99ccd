package routes

import (
	"net/http"

	"github.com/StephenCStudy/BX-clan-Backend/handlers"
	appmiddleware "github.com/StephenCStudy/BX-clan-Backend/middleware"
	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/StephenCStudy/BX-clan-Backend/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	News         *handlers.NewsHandler
	Registration *handlers.RegistrationHandler
	Room         *handlers.RoomHandler
	Team         *handlers.TeamHandler
	Tournament   *handlers.TournamentHandler
	Notification *handlers.NotificationHandler
	WebSocket    *handlers.WebSocketHandler
}

// SetupRoutes собирает все маршруты API.
func SetupRoutes(router *chi.Mux, h Handlers, auth services.AuthService, corsOrigin string) {
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := appmiddleware.Authenticate(auth)
	staff := appmiddleware.RequireRoles(models.RoleModerator, models.RoleLeader, models.RoleOrganizer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Mount("/swagger", httpSwagger.WrapHandler)

	// Публичные маршруты
	router.Group(func(r chi.Router) {
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		r.Get("/news", h.News.List)
		r.Get("/news/{id}", h.News.GetByID)

		r.Get("/customs", h.Room.List)
		r.Get("/customs/{id}", h.Room.GetByID)
		r.Get("/customs/news/{newsID}", h.Room.ListByNews)

		r.Get("/teams", h.Team.List)
		r.Get("/teams/{id}", h.Team.GetByID)

		r.Get("/tournaments", h.Tournament.List)
		r.Get("/tournaments/{id}", h.Tournament.GetByID)
		r.Get("/tournaments/{id}/winning-teams", h.Tournament.WinningTeams)
		r.Get("/tournaments/{id}/pairable-teams", h.Tournament.PairableTeams)
		r.Get("/tournaments/{id}/matches", h.Tournament.ListMatches)

		r.Get("/ws/{topic}", h.WebSocket.Subscribe)
	})

	// Требуют аутентификации
	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/auth/profile", h.Auth.Profile)

		r.Post("/registrations", h.Registration.Create)
		r.Get("/registrations/my", h.Registration.ListMine)
		r.Get("/registrations/news/{newsID}", h.Registration.ListByNews)
		r.Delete("/registrations/{id}", h.Registration.Delete)

		r.Post("/customs", h.Room.Create)
		r.Put("/customs/{id}", h.Room.Update)
		r.Delete("/customs/{id}", h.Room.Delete)
		r.Post("/customs/{id}/join", h.Room.Join)
		r.Post("/customs/{id}/leave", h.Room.Leave)
		r.Delete("/customs/{id}/players/{userID}", h.Room.RemovePlayer)
		r.Post("/customs/{id}/rebalance", h.Room.Rebalance)
		r.Post("/customs/{id}/invites", h.Room.InvitePlayer)
		r.Get("/customs/{id}/invites", h.Room.ListInvites)
		r.Post("/customs/invites/{inviteID}/respond", h.Room.RespondInvite)
		r.Post("/customs/{id}/finish-tournament-match", h.Room.FinishTournamentMatch)
		r.Post("/customs/{id}/finish-simple-tournament", h.Room.FinishSimpleTournament)

		r.Post("/teams", h.Team.Create)
		r.Put("/teams/{id}", h.Team.Update)
		r.Delete("/teams/{id}", h.Team.Delete)
		r.Post("/teams/{id}/members", h.Team.AddMember)
		r.Delete("/teams/{id}/members/{userID}", h.Team.RemoveMember)
		r.Post("/teams/{id}/logo", h.Team.UploadLogo)
		r.Post("/teams/{id}/join-tournament", h.Team.JoinTournament)
		r.Post("/teams/{id}/leave-tournament", h.Team.LeaveTournament)

		r.Get("/notifications", h.Notification.List)
		r.Post("/notifications/{id}/read", h.Notification.MarkRead)
		r.Post("/notifications/read-all", h.Notification.MarkAllRead)
		r.Delete("/notifications/{id}", h.Notification.Delete)

		r.Get("/ws/personal", h.WebSocket.SubscribePersonal)
	})

	// Только модерация и выше
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(staff)

		r.Post("/news", h.News.Create)
		r.Put("/news/{id}", h.News.Update)
		r.Delete("/news/{id}", h.News.Delete)

		r.Patch("/registrations/{id}/status", h.Registration.UpdateStatus)
		r.Post("/registrations/news/{newsID}/auto-create-rooms", h.Registration.AutoCreateRooms)
		r.Post("/registrations/news/{newsID}/reset-assignments", h.Registration.ResetAssignments)

		r.Post("/tournaments", h.Tournament.Create)
		r.Put("/tournaments/{id}", h.Tournament.Update)
		r.Delete("/tournaments/{id}", h.Tournament.Delete)
		r.Post("/tournaments/{id}/open-registration", h.Tournament.OpenRegistration)
		r.Post("/tournaments/{id}/start", h.Tournament.Start)
		r.Post("/tournaments/{id}/cancel", h.Tournament.Cancel)
		r.Post("/tournaments/{id}/advance-round", h.Tournament.AdvanceRound)
	})
}
