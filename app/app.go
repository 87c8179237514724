package app

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"toolcabinet-backend/config"
	"toolcabinet-backend/db"
)

// Shorthand aliases for handlers.
type Ctx = gin.Context
type H = gin.H

// App aggregates the process-wide dependencies.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Repo   *db.Repo
	Config *config.Config
}

func MustNew(cfg *config.Config) *App {
	conn := db.ConnectDB()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	r := gin.Default()
	useCORS(r, cfg.Server.WebOrigin)

	return &App{
		Router: r,
		DB:     conn,
		RDB:    rdb,
		Repo:   db.NewRepo(conn),
		Config: cfg,
	}
}

func (a *App) Close() { _ = a.RDB.Close() }
