package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/cart"
	"github.com/ariefcatur/go-bookstore/internal/catalog"
	"github.com/ariefcatur/go-bookstore/internal/config"
	"github.com/ariefcatur/go-bookstore/internal/httpx"
	kafkax "github.com/ariefcatur/go-bookstore/internal/kafka"
	"github.com/ariefcatur/go-bookstore/internal/logger"
	"github.com/ariefcatur/go-bookstore/internal/orders"
	"github.com/ariefcatur/go-bookstore/internal/postgres"
	"github.com/ariefcatur/go-bookstore/internal/redisx"
	"github.com/ariefcatur/go-bookstore/internal/users"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := logger.Init(cfg.IsDev()); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	store := &redisx.Store{RDB: rdb, ProfileTTL: cfg.ProfileCacheTTL}

	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start()

	orderRepo := &orders.Repo{DB: db}
	dir := &users.Directory{Users: &users.Repo{DB: db}, Orders: orderRepo, Cache: store, Log: log}

	router := httpx.NewRouter(log, cfg.QueryTimeout)
	admin := httpx.RequireAdmin(cfg.AdminAPIKey)
	if cfg.AdminAPIKey == "" {
		log.Warn("ADMIN_API_KEY is empty, admin routes are locked")
	}
	(&httpx.OrdersHandler{
		Repo:     orderRepo,
		Producer: prod,
		Idem:     store,
		Profiles: dir,
		Service:  cfg.ServiceName,
		Log:      log,
	}).Register(router, admin)
	(&httpx.UsersHandler{Dir: dir, Log: log}).Register(router, admin)
	(&httpx.CatalogHandler{
		Books:      &catalog.BookRepo{DB: db},
		Categories: &catalog.CategoryRepo{DB: db},
		Profiles:   store,
		Log:        log,
	}).Register(router, admin)
	(&httpx.CartHandler{
		Cart:     &cart.Repo{DB: db},
		Wishlist: &cart.WishlistRepo{DB: db},
		Log:      log,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	prod.Close()
}
