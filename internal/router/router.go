package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/themehub/themehub-api/internal/api/auth"
	"github.com/themehub/themehub-api/internal/api/catalog"
	"github.com/themehub/themehub-api/internal/api/library"
	"github.com/themehub/themehub-api/internal/api/user"
)

// Config contains the handlers and middleware the router mounts.
type Config struct {
	AuthHandler            *auth.HandlerImpl
	CatalogHandler         *catalog.HandlerImpl
	LibraryHandler         *library.HandlerImpl
	UserHandler            *user.HandlerImpl
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong")) //nolint:errcheck
	})

	r.Route("/api/v1", func(r chi.Router) {

		// public routes; browsing the catalog needs no identity
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Get("/auth/status", cfg.AuthHandler.Status)

			r.Get("/themes", cfg.CatalogHandler.GetAllThemes)
			r.Get("/themes/featured", cfg.CatalogHandler.GetFeaturedThemes)
			r.Get("/themes/top-rated", cfg.CatalogHandler.GetTopRatedThemes)
			r.Get("/themes/new-releases", cfg.CatalogHandler.GetNewReleases)
			r.Get("/themes/trending", cfg.CatalogHandler.GetTrendingThemes)
			r.Get("/themes/search", cfg.CatalogHandler.SearchThemes)
			r.Get("/themes/by-ids", cfg.CatalogHandler.GetThemesByIDs)
			r.Get("/themes/category/{id}", cfg.CatalogHandler.GetThemesByCategory)
			// generic {id} last so it does not shadow the named views
			r.Get("/themes/{id}", cfg.CatalogHandler.GetThemeByID)

			r.Get("/categories", cfg.CatalogHandler.GetAllCategories)
		})

		// protected routes; everything here fails closed without a session
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/themes", cfg.CatalogHandler.CreateTheme)
			r.Post("/categories", cfg.CatalogHandler.CreateCategory)

			r.Route("/user", func(r chi.Router) {
				r.Get("/profile", cfg.UserHandler.GetProfile)
				r.Put("/profile", cfg.UserHandler.UpdateProfile)

				r.Get("/favorites", cfg.LibraryHandler.GetFavorites)
				r.Post("/favorites", cfg.LibraryHandler.AddFavorite)
				r.Delete("/favorites/{id}", cfg.LibraryHandler.RemoveFavorite)

				r.Get("/downloads", cfg.LibraryHandler.GetDownloads)
				r.Post("/downloads", cfg.LibraryHandler.RecordDownload)

				r.Get("/purchases", cfg.LibraryHandler.GetPurchases)
				r.Post("/purchases", cfg.LibraryHandler.PurchaseTheme)

				r.Get("/subscription", cfg.LibraryHandler.GetSubscription)
			})
		})
	})

	return r
}
