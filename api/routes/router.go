package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderdeskhq/orderdesk-backend/api/controllers"
	ordercontrollers "github.com/orderdeskhq/orderdesk-backend/api/controllers/orders"
	"github.com/orderdeskhq/orderdesk-backend/api/middleware"
	"github.com/orderdeskhq/orderdesk-backend/internal/auth"
	"github.com/orderdeskhq/orderdesk-backend/internal/catalog"
	"github.com/orderdeskhq/orderdesk-backend/internal/imports"
	"github.com/orderdeskhq/orderdesk-backend/internal/orders"
	"github.com/orderdeskhq/orderdesk-backend/internal/users"
	"github.com/orderdeskhq/orderdesk-backend/pkg/auth/session"
	"github.com/orderdeskhq/orderdesk-backend/pkg/config"
	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	"github.com/orderdeskhq/orderdesk-backend/pkg/logger"
	"github.com/orderdeskhq/orderdesk-backend/pkg/metrics"
	"github.com/orderdeskhq/orderdesk-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          *redis.Client
	SessionManager session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics

	AuthService    auth.Service
	OrdersService  orders.Service
	CatalogService catalog.Service
	UsersService   users.Service
	ImportsService imports.Service
	ObjectSigner   controllers.ObjectSigner
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.SessionManager, logg)).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/me", controllers.Me(deps.UsersService, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.CatalogService, logg))
			r.Get("/{productID}", controllers.GetProduct(deps.CatalogService, logg))
		})
		r.Get("/categories", controllers.ListCategories(deps.CatalogService, logg))
		r.Get("/promotions", controllers.ListPromotions(deps.CatalogService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(deps.OrdersService, logg))
			r.Get("/", ordercontrollers.List(deps.OrdersService, logg))
			r.Get("/{orderID}", ordercontrollers.Detail(deps.OrdersService, logg))
			r.Post("/{orderID}/submit", ordercontrollers.Submit(deps.OrdersService, logg))
			r.Post("/{orderID}/verify", ordercontrollers.Verify(deps.OrdersService, logg))
			r.Post("/{orderID}/cancel", ordercontrollers.Cancel(deps.OrdersService, logg))
			r.Post("/{orderID}/attachments", ordercontrollers.AddAttachment(deps.OrdersService, logg))
			r.Delete("/{orderID}/attachments/{index}", ordercontrollers.RemoveAttachment(deps.OrdersService, logg))
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/presign", controllers.MediaPresign(deps.ObjectSigner, cfg.GCS, logg))
			r.Delete("/", controllers.MediaDelete(deps.ObjectSigner, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.With(middleware.RequireRole(enums.RoleAdmin, logg)).Get("/ping", controllers.AdminPing())

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireCapability(enums.CapManageUsers, logg))
			r.Get("/", controllers.ListUsers(deps.UsersService, logg))
			r.Post("/", controllers.CreateUser(deps.UsersService, logg))
			r.Post("/batch", controllers.BatchCreateUsers(deps.UsersService, logg))
			r.Post("/import", controllers.ImportUsers(deps.ImportsService, logg))
			r.Get("/template", controllers.UserTemplate(deps.ImportsService, logg))
			r.Get("/{userID}", controllers.GetUser(deps.UsersService, logg))
			r.Patch("/{userID}", controllers.UpdateUser(deps.UsersService, logg))
			r.Post("/{userID}/deactivate", controllers.DeactivateUser(deps.UsersService, logg))
			r.Delete("/{userID}", controllers.DeleteUser(deps.UsersService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Use(middleware.RequireCapability(enums.CapManageCatalog, logg))
			r.Post("/", controllers.CreateProduct(deps.CatalogService, logg))
			r.Post("/batch", controllers.BatchCreateProducts(deps.CatalogService, logg))
			r.Post("/import", controllers.ImportProducts(deps.ImportsService, logg))
			r.Get("/template", controllers.ProductTemplate(deps.ImportsService, logg))
			r.Patch("/{productID}", controllers.UpdateProduct(deps.CatalogService, logg))
			r.Post("/{productID}/enabled", controllers.SetProductEnabled(deps.CatalogService, logg))
			r.Delete("/{productID}", controllers.DeleteProduct(deps.CatalogService, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(middleware.RequireCapability(enums.CapManageCatalog, logg))
			r.Post("/", controllers.CreateCategory(deps.CatalogService, logg))
			r.Patch("/{categoryID}", controllers.UpdateCategory(deps.CatalogService, logg))
			r.Delete("/{categoryID}", controllers.DeleteCategory(deps.CatalogService, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Use(middleware.RequireCapability(enums.CapManagePromotions, logg))
			r.Post("/", controllers.CreatePromotion(deps.CatalogService, logg))
			r.Patch("/{promotionID}", controllers.UpdatePromotion(deps.CatalogService, logg))
			r.Delete("/{promotionID}", controllers.DeletePromotion(deps.CatalogService, logg))
		})
	})

	return r
}
