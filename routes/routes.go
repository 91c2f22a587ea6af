package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/footballinvestment/lfa-legacy-go/handlers"
	"github.com/footballinvestment/lfa-legacy-go/middleware"
	"github.com/footballinvestment/lfa-legacy-go/models"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Tournament  *handlers.TournamentHandler
	Participant *handlers.ParticipantHandler
	Match       *handlers.MatchHandler
	Credit      *handlers.CreditHandler
	Friend      *handlers.FriendHandler
	Challenge   *handlers.ChallengeHandler
	Location    *handlers.LocationHandler
	Booking     *handlers.BookingHandler
	Admin       *handlers.AdminHandler
	WebSocket   *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, auth *middleware.Authenticator, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	staffOnly := middleware.Authorize(models.RoleAdmin, models.RoleModerator)

	// Public surface.
	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)
	router.Get("/auth/confirm-email", h.Auth.ConfirmEmail)

	router.Get("/locations", h.Location.List)
	router.Get("/locations/{locationID}", h.Location.GetByID)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.List)
		r.Get("/{tournamentID}", h.Tournament.GetByID)
		r.Get("/{tournamentID}/bracket", h.Tournament.GetBracket)
		r.Get("/{tournamentID}/participants", h.Participant.ListByTournament)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", h.Tournament.Create)
			r.Patch("/{tournamentID}", h.Tournament.Update)
			r.Post("/{tournamentID}/cancel", h.Tournament.Cancel)
			r.Post("/{tournamentID}/bracket", h.Tournament.GenerateBracket)
			r.Post("/{tournamentID}/start", h.Tournament.Start)

			r.Post("/{tournamentID}/participants", h.Participant.Register)
			r.Delete("/{tournamentID}/participants", h.Participant.Unregister)
			r.Post("/{tournamentID}/participants/{participantID}/withdraw", h.Match.Withdraw)

			r.Post("/{tournamentID}/matches/{matchID}/start", h.Match.Start)
			r.Post("/{tournamentID}/matches/{matchID}/score", h.Match.SubmitScore)
			r.Post("/{tournamentID}/matches/{matchID}/cancel", h.Match.Cancel)

			r.Group(func(r chi.Router) {
				r.Use(staffOnly)
				r.Post("/{tournamentID}/matches/{matchID}/correct", h.Match.CorrectResult)
			})
		})
	})

	// Live bracket updates. The authenticator accepts the token from the
	// query string here because websocket clients cannot set headers.
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeTournament)
	})

	// Authenticated surface.
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.User.List)
			r.Get("/me", h.User.Me)
			r.Patch("/me", h.User.UpdateProfile)
			r.Post("/me/avatar", h.User.UploadAvatar)
			r.Get("/{userID}", h.User.GetByID)
		})

		r.Get("/matches/{matchID}", h.Match.GetByID)

		r.Route("/credits", func(r chi.Router) {
			r.Get("/balance", h.Credit.Balance)
			r.Get("/history", h.Credit.History)
			r.Post("/top-up", h.Credit.TopUp)
		})

		r.Route("/friends", func(r chi.Router) {
			r.Get("/", h.Friend.ListFriends)
			r.Get("/pending", h.Friend.ListPending)
			r.Post("/requests", h.Friend.SendRequest)
			r.Post("/requests/{friendshipID}", h.Friend.Respond)
			r.Delete("/{friendshipID}", h.Friend.Remove)
		})

		r.Route("/challenges", func(r chi.Router) {
			r.Get("/", h.Challenge.ListMine)
			r.Post("/", h.Challenge.Create)
			r.Post("/{challengeID}/respond", h.Challenge.Respond)
			r.Post("/{challengeID}/result", h.Challenge.SubmitResult)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.Booking.ListMine)
			r.Post("/", h.Booking.Create)
			r.Get("/{bookingID}", h.Booking.GetByID)
			r.Post("/{bookingID}/cancel", h.Booking.Cancel)
		})

		// Staff surface.
		r.Group(func(r chi.Router) {
			r.Use(staffOnly)

			r.Post("/locations", h.Location.Create)
			r.Put("/locations/{locationID}", h.Location.Update)
			r.Post("/locations/{locationID}/active", h.Location.SetActive)
			r.Post("/locations/{locationID}/photo", h.Location.UploadPhoto)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/users/{userID}/ban", h.Admin.BanUser)
				r.Post("/users/{userID}/unban", h.Admin.UnbanUser)
				r.Get("/audit", h.Admin.AuditTrail)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Authorize(models.RoleAdmin))
					r.Post("/users/{userID}/credits", h.Admin.AdjustCredits)
				})
			})
		})
	})
}
