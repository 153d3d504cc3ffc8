package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/task-list-service/internal/config"
	"github.com/iliyamo/task-list-service/internal/database"
	"github.com/iliyamo/task-list-service/internal/handler"
	"github.com/iliyamo/task-list-service/internal/middleware"
	"github.com/iliyamo/task-list-service/internal/queue"
	"github.com/iliyamo/task-list-service/internal/repository"
	"github.com/iliyamo/task-list-service/internal/router"
	queue_publisher "github.com/iliyamo/task-list-service/internal/service"
)

func main() {
	// Load a local .env when present; real deployments set env vars directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("database migrate failed: %v", err)
	}
	cancel()

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	items := repository.NewItemRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	itemHandler := handler.NewItemHandler(items, queue_publisher.PublishTaskCompleted)

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, rateLimit)
	router.RegisterItems(e, itemHandler, cfg.JWTSecret, rateLimit, cache)

	// Background consumer for task.completed events; it reconnects forever
	// and never takes the API down with it.
	go func() {
		if err := queue.StartTaskCompletedConsumer(); err != nil {
			log.Printf("task consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
