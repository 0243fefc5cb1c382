package flexbitapi

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/flexbit-dev/flexbit-api/internal/config"
	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/admin/importtrigger"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/auth/login"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/auth/logout"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/auth/me"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/auth/passwordchange"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/auth/passwordforgot"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/auth/passwordreset"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/auth/profile"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/auth/register"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/content/faq"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/content/news"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/content/wiki"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/health"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/payment/paymentcreate"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/payment/paymentlist"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/payment/paymentverify"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/payment/paymentwebhook"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/stock/stockexport"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/stock/stocklist"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/stock/stockread"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/stock/stockscreener"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/stock/stockstats"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/user/userlist"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/user/userremove"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/user/userupdate"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/watchlist/watchlistadd"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/watchlist/watchlistalert"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/watchlist/watchlistexport"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/watchlist/watchlistget"
	"github.com/flexbit-dev/flexbit-api/internal/http/handlers/watchlist/watchlistremove"
	"github.com/flexbit-dev/flexbit-api/internal/http/middlewarectx"
	"github.com/flexbit-dev/flexbit-api/internal/lib/jwt"
	authservice "github.com/flexbit-dev/flexbit-api/internal/services/auth"
	contentservice "github.com/flexbit-dev/flexbit-api/internal/services/content"
	importerservice "github.com/flexbit-dev/flexbit-api/internal/services/importer"
	paymentservice "github.com/flexbit-dev/flexbit-api/internal/services/payment"
	stockservice "github.com/flexbit-dev/flexbit-api/internal/services/stock"
	userservice "github.com/flexbit-dev/flexbit-api/internal/services/user"
	watchlistservice "github.com/flexbit-dev/flexbit-api/internal/services/watchlist"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
)

// Services — собранные бизнес-сервисы приложения.
type Services struct {
	Auth      *authservice.Service
	Payment   *paymentservice.Service
	Stock     *stockservice.Service
	Watchlist *watchlistservice.Service
	Content   *contentservice.Service
	User      *userservice.Service
	Importer  *importerservice.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	db *mongo.Storage, jwtMaker jwt.Maker, s *Services) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	authMw := middlewarectx.AuthMiddleware(logger, jwtMaker, db)
	// Общий лимитер для чувствительных маршрутов: вход, сброс пароля,
	// создание заказа.
	sensitiveLimit := middlewarectx.RateLimitMiddleware(logger, rate.NewLimiter(5, 10))

	secure := cfg.IsProduction()

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(sensitiveLimit)
			r.Post("/auth/register", register.New(logger, s.Auth, cfg.TokenTTL, secure).ServeHTTP)
			r.Post("/auth/login", login.New(logger, s.Auth, cfg.TokenTTL, secure).ServeHTTP)
			r.Post("/auth/forgot-password", passwordforgot.New(logger, s.Auth).ServeHTTP)
			r.Post("/auth/reset-password", passwordreset.New(logger, s.Auth).ServeHTTP)
		})
		r.Post("/auth/logout", logout.New(logger, secure).ServeHTTP)

		// Уведомления шлюза аутентифицируются подписью, не сессией
		r.Post("/payment/notification", paymentwebhook.New(logger, s.Payment).ServeHTTP)

		// Справочный контент открыт без сессии
		r.Get("/news", news.New(logger, s.Content).ServeHTTP)
		r.Get("/faq", faq.New(logger, s.Content).ServeHTTP)
		r.Get("/wiki", wiki.New(logger, s.Content).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/me", me.New(logger).ServeHTTP)
			r.Patch("/auth/profile", profile.New(logger, s.Auth).ServeHTTP)
			r.Put("/auth/password", passwordchange.New(logger, s.Auth).ServeHTTP)

			r.Get("/stocks", stocklist.New(logger, s.Stock).ServeHTTP)
			r.Get("/stocks/stats", stockstats.New(logger, s.Stock).ServeHTTP)
			r.With(middlewarectx.RequirePermission(logger, entitlement.FeatureCoreAnalysis)).
				Get("/stocks/screener", stockscreener.New(logger, s.Stock).ServeHTTP)
			r.With(middlewarectx.RequirePermission(logger, entitlement.FeatureExportData)).
				Get("/stocks/export", stockexport.New(logger, s.Stock).ServeHTTP)
			r.Get("/stocks/{ticker}", stockread.New(logger, s.Stock).ServeHTTP)

			r.Get("/watchlist", watchlistget.New(logger, s.Watchlist).ServeHTTP)
			r.Post("/watchlist", watchlistadd.New(logger, s.Watchlist).ServeHTTP)
			r.With(middlewarectx.RequirePermission(logger, entitlement.FeatureExportData)).
				Get("/watchlist/export", watchlistexport.New(logger, s.Watchlist).ServeHTTP)
			r.Delete("/watchlist/{ticker}", watchlistremove.New(logger, s.Watchlist).ServeHTTP)
			r.Put("/watchlist/{ticker}/alert", watchlistalert.New(logger, s.Watchlist).ServeHTTP)

			r.With(sensitiveLimit).
				Post("/payment/transaction", paymentcreate.New(logger, s.Payment).ServeHTTP)
			r.Get("/payment/history", paymentlist.New(logger, s.Payment).ServeHTTP)
			if !cfg.IsProduction() {
				r.Post("/payment/verify", paymentverify.New(logger, s.Payment).ServeHTTP)
			}

			// Администрирование
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Get("/users", userlist.New(logger, s.User).ServeHTTP)
				r.Put("/users/{id}", userupdate.New(logger, s.User).ServeHTTP)
				r.Delete("/users/{id}", userremove.New(logger, s.User).ServeHTTP)
				r.Post("/admin/import", importtrigger.New(logger, s.Importer).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.Get("/", health.New(logger).ServeHTTP)
}
