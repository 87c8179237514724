package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/SherClockHolmes/webpush-go"

	"toolcabinet-backend/app"
	"toolcabinet-backend/config"
	"toolcabinet-backend/controllers"
	"toolcabinet-backend/notify"
	"toolcabinet-backend/routes"
	"toolcabinet-backend/sweep"
)

func main() {
	config.LoadEnv()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("config %s: %v, using defaults", cfgPath, err)
		cfg = config.Default()
	}

	a := app.MustNew(cfg)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pushPool := notify.NewPushPool(cfg.Push.PoolSize, a.Repo, &webpush.Options{
		Subscriber:      cfg.Push.Subject,
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		TTL:             cfg.Push.TTL,
	})
	pushPool.Start(ctx)

	var mailer notify.Mailer = notify.NopMailer{}
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTP)
	}

	srv := controllers.NewSrv(
		a.Repo,
		&app.CityKeyAuthorizer{Repo: a.Repo},
		pushPool,
		mailer,
		notify.NewRedisThrottle(a.RDB, cfg.Lifecycle.ReminderCooldown()),
		cfg.Lifecycle,
	)
	sweeper := sweep.NewService(a.Repo, notify.NewWebhookMessenger(cfg.Reminder),
		cfg.Lifecycle.OverdueAfter(), cfg.Lifecycle.ReminderCooldown())

	routes.RegisterRoutes(a.Router, srv, sweeper, cfg)
	a.Router.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if err := a.Router.Run(addr); err != nil {
		log.Fatal(err)
	}
}
