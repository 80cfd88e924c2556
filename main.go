package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wedding-planner-go/internal/config"
	"wedding-planner-go/internal/handlers"
	"wedding-planner-go/internal/logger"
	"wedding-planner-go/internal/push"
	"wedding-planner-go/internal/store"
)

func main() {
	generate := flag.Bool("generate-vapid", false, "print a fresh VAPID key pair and exit")
	flag.Parse()

	if *generate {
		priv, pub, err := push.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("Failed to generate VAPID keys: %v", err)
		}
		fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	cfg, loadedEnv, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	if !loadedEnv {
		zl.Info("No .env file found, using environment")
	}
	if !cfg.HasVAPIDKeys() {
		zl.Warn("VAPID keys are not configured; push deliveries will fail")
	}

	ctx := context.Background()
	subs, err := openStore(ctx, cfg)
	if err != nil {
		zl.Fatal("Failed to open subscription store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer subs.Close()
	zl.Info("Subscription store ready", zap.String("driver", cfg.StoreDriver))

	metrics := push.NewMetrics(prometheus.DefaultRegisterer)
	registrar := push.NewRegistrar(subs, zl, metrics)
	dispatcher := push.NewDispatcher(subs, push.Config{
		AppName: cfg.AppName,
		VAPID: push.VAPIDConfig{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subject:    cfg.VAPIDSubject,
		},
		TTL:         cfg.PushTTL,
		Concurrency: cfg.PushConcurrency,
		SendTimeout: cfg.PushSendTimeout,
	}, zl, push.WithMetrics(metrics))

	h := handlers.NewHandler(registrar, dispatcher, zl)
	h.TriggerSecret = cfg.PushTriggerSecret
	h.AppName = cfg.AppName

	zl.Info("Listening", zap.String("addr", ":"+cfg.Port), zap.String("app", cfg.AppName))
	if err := http.ListenAndServe(":"+cfg.Port, h.Routes()); err != nil {
		zl.Error("Server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.SubscriptionStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverRedis:
		rs := store.NewRedisStore(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, err
		}
		return rs, nil
	default:
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return pg, nil
	}
}
