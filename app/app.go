// Package app assembles the engine, storage and HTTP layer from configuration.
package app

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"makerchecker-backend/config"
	"makerchecker-backend/database"
	"makerchecker-backend/events"
	"makerchecker-backend/makerchecker"
	"makerchecker-backend/metrics"
	"makerchecker-backend/middlewares"
	"makerchecker-backend/models"
	"makerchecker-backend/routes"
)

type App struct {
	Config    *config.Configuration
	Log       logrus.FieldLogger
	DB        *gorm.DB
	Requests  *database.RequestStore
	Articles  *database.Entity[models.Article]
	Customers *database.Entity[models.Customer]
	Suppliers *database.Entity[models.Supplier]
	Registry  *makerchecker.Registry
	Bus       events.Bus
	Manager   *makerchecker.Manager
	Metrics   *metrics.Collector
}

// Open connects to the configured database and builds the App on it.
func Open(cfg *config.Configuration, log logrus.FieldLogger) (*App, error) {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	return New(cfg, log, db), nil
}

// New wires every component on an existing connection.
func New(cfg *config.Configuration, log logrus.FieldLogger, db *gorm.DB, options ...makerchecker.Option) *App {
	validate := middlewares.Validator()

	a := &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Requests:  database.NewRequestStore(db),
		Articles:  database.NewEntity[models.Article](db, validate),
		Customers: database.NewEntity[models.Customer](db, validate),
		Suppliers: database.NewEntity[models.Supplier](db, validate),
		Registry:  makerchecker.NewRegistry(),
		Bus:       events.NewBus(log),
		Metrics:   metrics.New(),
	}
	a.Registry.RegisterEntity(models.ArticleMorph, a.Articles)
	a.Registry.RegisterEntity(models.CustomerMorph, a.Customers)
	a.Registry.RegisterEntity(models.SupplierMorph, a.Suppliers)
	a.Metrics.Subscribe(a.Bus)

	options = append([]makerchecker.Option{
		makerchecker.WithLogger(log),
		makerchecker.WithBus(a.Bus),
	}, options...)
	a.Manager = makerchecker.New(a.Requests, a.Registry, cfg.MakerChecker.Options(), options...)
	return a
}

// HTTP builds the fiber application with global middleware and all routes.
func (a *App) HTTP() *fiber.App {
	httpCfg := a.Config.HTTP

	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler(a.Log),
		BodyLimit:    httpCfg.BodyLimitMB * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     httpCfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	if httpCfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        httpCfg.RateLimitMax,
			Expiration: time.Duration(httpCfg.RateLimitWindowSeconds) * time.Second,
		}))
	}

	if a.Config.Metrics.Enabled {
		app.Get(a.Config.Metrics.Path, a.Metrics.Handler())
	}

	routes.Register(app, routes.Dependencies{
		DB:        a.DB,
		Manager:   a.Manager,
		Requests:  a.Requests,
		Articles:  a.Articles,
		Customers: a.Customers,
		Suppliers: a.Suppliers,
		JWTSecret: httpCfg.JWTSecret,
	})
	return app
}

// ExpireOverdue runs the expiry sweep and records the result.
func (a *App) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := a.Manager.ExpireOverdue(ctx)
	if err != nil {
		return 0, err
	}
	a.Metrics.ObserveExpired(n)
	return n, nil
}
