// Package server assembles the HTTP router.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/yourkin666/community/internal/apperr"
	"github.com/yourkin666/community/internal/article"
	"github.com/yourkin666/community/internal/auth"
	"github.com/yourkin666/community/internal/metrics"
	"github.com/yourkin666/community/internal/middleware"
	"github.com/yourkin666/community/internal/response"
	"github.com/yourkin666/community/internal/user"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router is built from. DB and History are
// optional.
type Deps struct {
	Log        *zap.Logger
	Users      *user.Service
	Articles   *article.Service
	Sessions   auth.SessionStore
	Cookie     auth.CookieConfig
	History    user.ActivityReader
	DB         Pinger
	CORSOrigin string
}

// NewRouter builds the full route tree.
func NewRouter(d Deps) chi.Router {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	authHandler := auth.NewHandler(d.Users, d.Sessions, d.Cookie)
	userHandler := user.NewHandler(d.Users, d.History)
	articleHandler := article.NewHandler(d.Articles)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(middleware.LoadSession(d.Sessions))

	r.Get("/health", health(d.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/current", authHandler.Current)
				r.Get("/current/activity", userHandler.Activity)
				r.Put("/profile", userHandler.UpdateProfile)
				if d.Users.AvatarsEnabled() {
					r.Post("/profile/avatar", userHandler.UploadAvatar)
				}
			})

			r.Get("/{username}", userHandler.GetByUsername)
		})

		if d.Users.AvatarsEnabled() {
			r.Get("/avatars/*", userHandler.Avatar)
		}

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", articleHandler.ListPublished)
			r.Get("/author/{authorId}", articleHandler.ListByAuthor)
			r.Get("/{id}", articleHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", articleHandler.Publish)
				r.Get("/my", articleHandler.ListMine)
				r.Put("/{id}", articleHandler.Update)
				r.Delete("/{id}", articleHandler.Delete)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, apperr.NotFound("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, &response.Envelope{Message: "method not allowed", Code: http.StatusMethodNotAllowed})
	})

	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				response.Error(w, r, apperr.Wrap(apperr.KindInternal, "database unavailable", err))
				return
			}
		}
		response.OK(w, r, "", map[string]string{"status": "ok"})
	}
}
