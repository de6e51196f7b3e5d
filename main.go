package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mkazancev/brt-harness/internal/cdr"
	"github.com/mkazancev/brt-harness/internal/config"
	"github.com/mkazancev/brt-harness/internal/db"
	"github.com/mkazancev/brt-harness/internal/logger"
	"github.com/mkazancev/brt-harness/internal/middleware"
	"github.com/mkazancev/brt-harness/internal/migrate"
	"github.com/mkazancev/brt-harness/internal/queue"
	"github.com/mkazancev/brt-harness/internal/subscriber"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	slogger := logger.New(cfg.Log.Level)

	ctx := context.Background()
	database, err := db.New(ctx, db.Config{
		URL:             cfg.DB.DSN(),
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		log.Fatalf("connect to brt postgres: %v", err)
	}
	defer database.Close()

	if err := migrate.Up(ctx, database); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(slogger))

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	subSvc := subscriber.NewService(database, slogger)
	subscriber.NewHandler(subSvc, slogger).RegisterRoutes(router)

	publisher := queue.NewPublisher(cfg.Rabbit.URL(), slogger)
	cdrStore := cdr.NewStore(database)
	cdr.NewHandler(cdrStore, publisher, slogger).RegisterRoutes(router)

	slogger.Info("brt harness listening", "port", cfg.App.Port)
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("start http server: %v", err)
	}
}
