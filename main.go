package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"stockwatch/internal/config"
	"stockwatch/internal/db"
	"stockwatch/internal/handlers/items"
	"stockwatch/internal/monitor"
	"stockwatch/internal/notify"
	"stockwatch/internal/server"
	"stockwatch/internal/store"
	"stockwatch/internal/websocket"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("config: ", err)
	}

	conn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("DB init failed: ", err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New(conn)
	hub := websocket.NewHub()
	handler := &items.Handler{Store: st, Hub: hub}

	if !cfg.Monitor.Disabled {
		sched, rdb, err := startMonitor(ctx, cfg, st, hub)
		if err != nil {
			log.Fatal("monitor: ", err)
		}
		if rdb != nil {
			defer rdb.Close()
		}
		defer sched.Stop()
		handler.Monitor = sched
	}

	app := &server.App{DB: conn, Hub: hub, Items: handler}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Handler(cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	go func() {
		<-ctx.Done()
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("stockwatch listening on %s (db %s)", cfg.Addr, cfg.DB)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// startMonitor wires the alert sinks and starts the periodic demand check.
// The returned Redis client is nil when no Redis address is configured.
func startMonitor(ctx context.Context, cfg config.Config, st *store.Store, hub *websocket.Hub) (*monitor.Scheduler, *redis.Client, error) {
	model, err := monitor.ParseModel(cfg.Monitor.Model)
	if err != nil {
		return nil, nil, err
	}
	opts := monitor.DefaultOptions()
	opts.Model = model
	opts.Sigma = cfg.Monitor.Sigma
	opts.Floor = cfg.Monitor.Floor
	opts.ProjectStock = cfg.Monitor.ProjectStock

	sinks := notify.Multi{
		notify.LogSink{Logger: log.Default()},
		notify.StoreSink{Store: st},
		notify.HubSink{Hub: hub},
	}
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		var rs *notify.RedisSink
		rs, rdb = notify.NewRedisSink(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.Channel)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis %s unreachable, alerts will retry each publish: %v", cfg.Redis.Addr, err)
		}
		sinks = append(sinks, rs)
	}

	sched := monitor.NewScheduler(monitor.New(st, sinks, opts), cfg.Monitor.Interval, nil)
	sched.Start(ctx)
	log.Printf("monitor: %s model every %s", model, cfg.Monitor.Interval)
	return sched, rdb, nil
}
