package routes

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/catalog-admin/api/controllers"
	"github.com/angelmondragon/catalog-admin/api/middleware"
	"github.com/angelmondragon/catalog-admin/pkg/auth/session"
	"github.com/angelmondragon/catalog-admin/pkg/config"
	"github.com/angelmondragon/catalog-admin/pkg/db/models"
	"github.com/angelmondragon/catalog-admin/pkg/logger"
	pkgredis "github.com/angelmondragon/catalog-admin/pkg/redis"
)

// CatalogService is everything the catalog routes call on catalog.Manager.
type CatalogService interface {
	controllers.CategoryService
	controllers.ProductService
}

// Params bundles what NewRouter mounts. Gatherer may be nil to skip /metrics.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Limiter  pkgredis.RateLimiter
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer

	Auth    controllers.AuthService
	Admins  controllers.AdminService
	Catalog CatalogService

	// ArtifactRoot is served read-only under cfg.Artifacts.PublicPrefix.
	ArtifactRoot string
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginLimit,
	)
	secureCookie := cfg.App.IsProd()
	maxUpload := cfg.Artifacts.MaxBytes()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": p.DB,
			"redis":    p.Redis,
		}))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	if p.ArtifactRoot != "" {
		prefix := strings.TrimRight(cfg.Artifacts.PublicPrefix, "/")
		files := http.StripPrefix(prefix+"/", http.FileServer(noDirFS{http.Dir(p.ArtifactRoot)}))
		r.Handle(prefix+"/*", files)
	}

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Limiter, logg)).
			Post("/auth/login", controllers.AdminLogin(p.Auth, secureCookie, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

			r.Post("/auth/logout", controllers.AdminLogout(p.Auth, secureCookie, logg))
			r.Get("/roles", controllers.ListRoles(p.Admins, logg))

			r.Route("/admins", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, models.RoleMaster))
				r.Get("/", controllers.ListAdmins(p.Admins, logg))
				r.Post("/", controllers.CreateAdmin(p.Admins, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.ListCategories(p.Catalog, logg))
				r.Post("/", controllers.CreateCategory(p.Catalog, maxUpload, logg))
				r.Get("/{categoryId}", controllers.GetCategory(p.Catalog, logg))
				r.Put("/{categoryId}", controllers.UpdateCategory(p.Catalog, maxUpload, logg))
				r.Delete("/{categoryId}", controllers.DeleteCategory(p.Catalog, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(p.Catalog, logg))
				r.Post("/", controllers.CreateProduct(p.Catalog, maxUpload, logg))
				r.Get("/{productId}", controllers.GetProduct(p.Catalog, logg))
				r.Put("/{productId}", controllers.UpdateProduct(p.Catalog, maxUpload, logg))
				r.Delete("/{productId}", controllers.DeleteProduct(p.Catalog, logg))
			})
		})
	})

	return r
}

// noDirFS hides directory listings from the image file server.
type noDirFS struct {
	fs http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
