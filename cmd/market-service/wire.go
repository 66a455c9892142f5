package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MikeMC777/agromarket/internal/bid"
	"github.com/MikeMC777/agromarket/internal/cart"
	"github.com/MikeMC777/agromarket/internal/catalog"
	"github.com/MikeMC777/agromarket/internal/config"
	"github.com/MikeMC777/agromarket/internal/events"
	"github.com/MikeMC777/agromarket/internal/httpx"
	"github.com/MikeMC777/agromarket/internal/idempotency"
	"github.com/MikeMC777/agromarket/internal/identity"
	"github.com/MikeMC777/agromarket/internal/mandate"
	"github.com/MikeMC777/agromarket/internal/metrics"
	"github.com/MikeMC777/agromarket/internal/order"
	"github.com/MikeMC777/agromarket/internal/storage"
	"github.com/MikeMC777/agromarket/internal/workflow"
)

const cartTTL = 30 * 24 * time.Hour

// app holds the wired service and what must be closed on shutdown.
type app struct {
	router  routerDeps
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type repos struct {
	orders   order.Repository
	bids     bid.Repository
	mandates mandate.Repository
	tx       storage.TxManager
	db       *storage.Postgres
}

func build(ctx context.Context, cfg config.Config, log *zap.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	r, err := buildRepos(ctx, cfg, log, a)
	if err != nil {
		return nil, err
	}

	var rdb redis.UniversalClient
	if cfg.UsesRedis() {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		a.closers = append(a.closers, func() { _ = client.Close() })
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rdb = client
	}

	var carts cart.Store
	switch cfg.Storage.CartBackend {
	case "redis":
		carts = cart.NewRedisStore(rdb, cartTTL, log.Named("cart"))
	case "postgres":
		carts = cart.NewPGStore(r.db)
	default:
		carts = cart.NewMemoryStore()
	}

	var idem idempotency.Store = idempotency.NewMemoryStore()
	if cfg.Idempotency.Backend == "redis" {
		idem = idempotency.NewRedisStore(rdb)
	}

	var publisher events.Publisher = events.NewLogPublisher(log)
	if brokers := events.ParseBrokers(cfg.Kafka.Brokers); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, func() { _ = kp.Close() })
		publisher = kp
		log.Info("publishing events to kafka", zap.Strings("brokers", brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	auth := httpx.Authenticator{TrustHeaders: cfg.Identity.TrustHeaders}
	if cfg.Identity.JWTSecret != "" {
		auth.Verifier = identity.NewVerifier(cfg.Identity.JWTSecret)
	}
	var directory identity.Directory
	if cfg.Identity.GRPCAddr != "" {
		conn, err := identity.Dial(cfg.Identity.GRPCAddr)
		if err != nil {
			return nil, fmt.Errorf("dial identity: %w", err)
		}
		a.closers = append(a.closers, func() { _ = conn.Close() })
		directory = identity.NewGRPCDirectory(conn, cfg.Identity.Timeout)
		auth.Directory = directory
	}

	lookup := catalog.NewHTTPLookup(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	m := metrics.NewDefault()

	coord := workflow.New(workflow.Deps{
		Cart:           carts,
		Ledger:         order.NewLedger(r.orders, lookup, r.tx, log),
		Board:          bid.NewBoard(r.bids, r.orders, r.tx, log),
		Registry:       mandate.NewRegistry(r.mandates, lookup, directory, r.tx, log),
		Tx:             r.tx,
		Idempotency:    idem,
		IdempotencyTTL: cfg.Idempotency.TTL,
		Events:         publisher,
		Metrics:        m,
		Log:            log,
	})

	a.router = routerDeps{
		Coord:   coord,
		Metrics: m,
		Auth:    auth,
		Log:     log,
	}
	if cfg.HTTP.RateLimitRPS > 0 {
		a.router.Limiter = httpx.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	}
	if r.db != nil {
		a.router.Ready = func(ctx context.Context) error { return r.db.Pool.Ping(ctx) }
	}
	return a, nil
}

func buildRepos(ctx context.Context, cfg config.Config, log *zap.Logger, a *app) (repos, error) {
	if cfg.Storage.Backend != "postgres" {
		mem := storage.NewMemory()
		log.Warn("using in-memory storage; data is lost on restart")
		return repos{
			orders:   order.NewMemoryRepo(mem),
			bids:     bid.NewMemoryRepo(mem),
			mandates: mandate.NewMemoryRepo(mem),
			tx:       mem,
		}, nil
	}

	if cfg.Storage.AutoMigrate {
		if err := storage.Migrate(cfg.Storage.PostgresDSN, log); err != nil {
			return repos{}, err
		}
	}
	pool, err := storage.Connect(ctx, cfg.Storage.PostgresDSN, cfg.Storage.MaxConns)
	if err != nil {
		return repos{}, fmt.Errorf("connect postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	db := storage.NewPostgres(pool, cfg.Storage.QueryTimeout)
	return repos{
		orders:   order.NewPGRepo(db),
		bids:     bid.NewPGRepo(db),
		mandates: mandate.NewPGRepo(db),
		tx:       db,
		db:       db,
	}, nil
}
