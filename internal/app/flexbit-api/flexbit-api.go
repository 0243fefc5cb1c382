// Package flexbitapi собирает основной HTTP-сервис платформы: хранилище,
// кеш, брокер, платёжный шлюз и все маршруты.
package flexbitapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/flexbit-dev/flexbit-api/internal/cache"
	"github.com/flexbit-dev/flexbit-api/internal/config"
	"github.com/flexbit-dev/flexbit-api/internal/lib/jwt"
	"github.com/flexbit-dev/flexbit-api/internal/lib/rabbitmq"
	"github.com/flexbit-dev/flexbit-api/internal/notifier"
	"github.com/flexbit-dev/flexbit-api/internal/paymentgateway"
	authservice "github.com/flexbit-dev/flexbit-api/internal/services/auth"
	contentservice "github.com/flexbit-dev/flexbit-api/internal/services/content"
	importerservice "github.com/flexbit-dev/flexbit-api/internal/services/importer"
	paymentservice "github.com/flexbit-dev/flexbit-api/internal/services/payment"
	stockservice "github.com/flexbit-dev/flexbit-api/internal/services/stock"
	userservice "github.com/flexbit-dev/flexbit-api/internal/services/user"
	watchlistservice "github.com/flexbit-dev/flexbit-api/internal/services/watchlist"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mysqlsource"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *mongo.Storage
	source *mysqlsource.Source
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := mongo.New(ctx, cfg.MongoConnection)
	if err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	events := notifier.New(ch)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	gateway := paymentgateway.NewClient(cfg.ServerKey, cfg.IsProduction())

	authService := authservice.New(logger, db, jwtMaker, events, cfg.ClientURL)
	paymentService := paymentservice.New(logger, db, db, gateway, events, cfg.ServerKey)
	stockService := stockservice.New(logger, db, cacheRedis)
	watchlistService := watchlistservice.New(logger, db, db)
	contentService := contentservice.New(db)
	userService := userservice.New(logger, db)

	source, err := mysqlsource.New(ctx, cfg.MySQLDSN)
	if err != nil {
		conn.Close()
		return nil, err
	}
	importerService := importerservice.New(logger, source, db, cacheRedis)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, db, jwtMaker, &Services{
		Auth:      authService,
		Payment:   paymentService,
		Stock:     stockService,
		Watchlist: watchlistService,
		Content:   contentService,
		User:      userService,
		Importer:  importerService,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		source: source,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		if closeErr := a.source.Close(); closeErr != nil {
			a.logger.Error("failed to close mysql source", slog.Any("err", closeErr))
		}
		if closeErr := a.db.Close(timeoutCtx); closeErr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", closeErr))
		}
		return err
	}
}
