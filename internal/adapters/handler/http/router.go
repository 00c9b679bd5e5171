package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

func NewHandler(
	pollHandler *PollHandler,
	voteHandler *VoteHandler,
	authHandler *AuthHandler,
	userHandler *UserHandler,
	authService ports.AuthService,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/oauth/callback", authHandler.GoogleCallback)

	r.Route("/auth", func(r chi.Router) {
		r.With(Authenticate(authService)).Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(authService))

		r.With(RequireIdentity).Get("/me", userHandler.GetMe)

		r.Route("/polls", func(r chi.Router) {
			r.Post("/", pollHandler.CreatePoll)
			r.Get("/", pollHandler.ListPolls)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", pollHandler.GetPoll)
				r.Patch("/", pollHandler.UpdatePoll)
				r.Delete("/", pollHandler.DeletePoll)
				r.Get("/results", voteHandler.Results)

				r.Group(func(r chi.Router) {
					r.Use(RequireIdentity)
					r.Post("/votes", voteHandler.VoteOnPoll)
					r.Get("/my-vote", voteHandler.MyVote)
				})
			})
		})
	})

	return r
}
