package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/orial-storefront/internal/cart"
	"github.com/ariefcatur/orial-storefront/internal/checkout"
	"github.com/ariefcatur/orial-storefront/internal/config"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/ariefcatur/orial-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/orial-storefront/internal/kafka"
	"github.com/ariefcatur/orial-storefront/internal/logging"
	"github.com/ariefcatur/orial-storefront/internal/memstore"
	"github.com/ariefcatur/orial-storefront/internal/postgres"
	"github.com/ariefcatur/orial-storefront/internal/pricing"
	"github.com/ariefcatur/orial-storefront/internal/redisx"
	"github.com/ariefcatur/orial-storefront/internal/store"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type backend interface {
	store.UnitOfWork
	Repos() store.Repos
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logging.New(cfg.ServiceName, cfg.Dev())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		db         backend
		selections discount.SelectionStore
		events     checkout.Publisher
		prod       *kafkax.Producer
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		mem := memstore.New()
		mem.Seed()
		db = mem
		selections = memstore.NewSelections()
		log.Warn("running on the in-memory store; data is lost on exit")
	case config.DriverPostgres:
		if cfg.RunMigrations {
			if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
				log.Fatal("migrate", zap.Error(err))
			}
		}
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		db = &store.Postgres{Pool: pool}

		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		selections = &redisx.Selections{Redis: rdb, TTL: cfg.SelectionTTL}

		prod = kafkax.NewProducer(kafkax.NewWriter(cfg.KafkaBrokers), 1024, log.Named("kafka"))
		prod.Start()
		events = &kafkax.Publisher{Producer: prod}
	default:
		log.Fatal("unknown STORE_DRIVER", zap.String("driver", cfg.StoreDriver))
	}

	repos := db.Repos()
	policy := &pricing.SettingsSource{Settings: repos.Settings, Log: log}
	carts := &cart.Service{
		Lines:      repos.Cart,
		Catalog:    repos.Catalog,
		Discounts:  repos.Discounts,
		Selections: selections,
		Pricing:    policy,
		Log:        log.Named("cart"),
	}
	checkouts := &checkout.Service{
		UoW:        db,
		Orders:     repos.Orders,
		Cart:       carts,
		Selections: selections,
		Pricing:    policy,
		Events:     events,
		Producer:   cfg.ServiceName,
		Log:        log.Named("checkout"),
	}

	router := httpx.NewRouter(log.Named("http"), cfg.RequestTimeout)
	httpx.API{
		Catalog:  &httpx.CatalogHandler{Catalog: repos.Catalog, Log: log},
		Cart:     &httpx.CartHandler{Cart: carts, Log: log},
		Checkout: &httpx.CheckoutHandler{Checkout: checkouts, Log: log},
	}.Mount(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
}
