package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/alert"
	"storefront/cache"
	"storefront/config"
	"storefront/jwt"
	"storefront/logger"
	"storefront/password"
	"storefront/routers"
	"storefront/services"
	"storefront/store"
)

func main() {
	if err := run(); err != nil {
		logger.Event(context.Background(), "error", "startup", err, nil)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = config.DefaultFile
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	client, db, err := config.SetupMongoConnection(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()
	mongoStore := store.NewMongo(client, db, cfg.Mongo.Transactions)
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := config.SetupRedisConnection(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	deps := services.Deps{
		Store:             mongoStore,
		Alerts:            alert.NewReporter(rdb),
		StrictTransitions: cfg.Orders.StrictTransitions,
	}
	//沒有設定Redis時改用記憶體內的登出清單，且不快取商品列表
	var denylist jwt.Denylist = cache.NewLocalDenylist()
	if rdb != nil {
		defer rdb.Close()
		denylist = cache.NewRedisDenylist(rdb)
		deps.Cache = cache.NewProductCache(rdb)
	} else {
		logger.Event(ctx, "warn", "redis_disabled", nil, nil)
	}

	hasher, err := password.NewHasher(cfg.Auth.SaltRounds)
	if err != nil {
		return err
	}
	issuer, err := jwt.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration, denylist)
	if err != nil {
		return err
	}
	deps.Hasher = hasher
	deps.Tokens = issuer

	router := routers.SetupRouters(routers.Deps{
		Services:       services.New(deps),
		Tokens:         issuer,
		UploadDir:      cfg.Server.UploadDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Event(ctx, "info", "listen", nil, map[string]any{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	//停止接收新請求，等待進行中的請求完成
	logger.Event(context.Background(), "info", "shutdown", nil, nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
