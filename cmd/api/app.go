// cmd/api/app.go
package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/mongo"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/infrastructure/events"
	"github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
	"github.com/your-org/storefront-backend/internal/pkg/storage"
)

// application owns every backend connection and long-lived service
type application struct {
	log       *logrus.Logger
	db        *postgres.DB
	redis     *redis.Client
	mongo     *mongo.Client
	carts     *cart.Service
	publisher events.Publisher
	deps      *http.Dependencies
}

func newApplication(cfg *config.Config, log *logrus.Logger) (app *application, err error) {
	app = &application{log: log}
	defer func() {
		if err != nil {
			app.close(context.Background())
			app = nil
		}
	}()

	if app.db, err = postgres.NewConnection(cfg, log); err != nil {
		return app, err
	}
	if app.redis, err = redis.NewConnection(cfg, log); err != nil {
		return app, err
	}
	if app.mongo, err = mongo.NewConnection(cfg, log); err != nil {
		return app, err
	}

	if err = migrate(cfg, app.db, log); err != nil {
		return app, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	defer cancel()

	cartRepo := cart.NewMongoRepository(app.mongo.Database())
	if err = cartRepo.CreateIndexes(ctx); err != nil {
		return app, fmt.Errorf("failed to create cart indexes: %w", err)
	}

	rdb := app.redis.GetClient()
	gdb := app.db.GetDB()

	passwords := auth.NewPasswordManager(cfg)
	tokens := auth.NewJWTManager(cfg)

	users := user.NewService(user.NewRepository(gdb), passwords, log)
	sessions := session.NewManager(users, session.NewRedisStore(rdb), tokens, log)

	feed := notify.NewRedisFeed(rdb)
	notifier := notify.NewService(log, notify.NewLogSink(log), feed)

	products := product.NewService(product.NewRepository(gdb), storage.NewLocalStorage(cfg), cfg, log)
	app.carts = cart.NewService(
		cartRepo,
		cart.NewRedisCache(rdb),
		cart.NewHydrator(products, log),
		sessions,
		notifier,
		cfg,
		log,
	)

	orders := order.NewService(order.NewRepository(gdb), pdf.NewService(cfg), cfg, log)

	app.publisher = events.New(cfg, log)
	checkouts := checkout.NewService(app.carts, orders, app.publisher, notifier, cfg, log)

	app.deps = &http.Dependencies{
		Handlers: &routes.Handlers{
			Auth:          handlers.NewAuthHandler(sessions, users, log),
			Products:      handlers.NewProductHandler(products, log),
			Cart:          handlers.NewCartHandler(app.carts, log),
			Checkout:      handlers.NewCheckoutHandler(checkouts, log),
			Orders:        handlers.NewOrderHandler(orders, log),
			Notifications: handlers.NewNotificationHandler(feed, log),
		},
		Sessions: sessions,
		Redis:    rdb,
		Checks: map[string]http.HealthCheck{
			"postgres": app.db.Health,
			"redis":    app.redis.Health,
			"mongo":    app.mongo.Health,
		},
	}

	log.Info("All systems operational")
	return app, nil
}

func migrate(cfg *config.Config, db *postgres.DB, log *logrus.Logger) error {
	migration := postgres.NewMigration(db.GetDB(), log)

	if err := migration.RunAutoMigrations(); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}

	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			log.WithError(err).Warn("Data seeding failed")
		}
	}
	return nil
}

// close releases everything in reverse order of construction
func (a *application) close(ctx context.Context) {
	if a.carts != nil {
		a.carts.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close event publisher")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Close(ctx); err != nil {
			a.log.WithError(err).Warn("Failed to disconnect MongoDB")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close Redis")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close database")
		}
	}
}
