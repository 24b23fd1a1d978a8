package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "storefront/docs"
	"storefront/pkg/api"
	"storefront/pkg/catalog"
	"storefront/pkg/checkout"
	"storefront/pkg/config"
	"storefront/pkg/logger"
	"storefront/pkg/notify"
	"storefront/pkg/order"
	"storefront/pkg/otel"
	"storefront/pkg/session"
	sessionmem "storefront/pkg/session/memory"
	sessionredis "storefront/pkg/session/redis"
	"storefront/pkg/store/memory"
	"storefront/pkg/store/postgres"
)

// store is what one storage backend provides.
type store interface {
	catalog.Store
	order.Repository
}

// @title Storefront API
// @version 1.0
// @description Catalog, session cart, checkout and order administration
// @host localhost:8443
// @BasePath /
func main() {
	configPath := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, logger.ParseLevel(cfg.Log.Level), cfg.ServiceName, otel.GetTraceID)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(context.Background(), "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	_, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: cfg.ServiceName,
		Host:        cfg.Tracing.Host,
		Probability: cfg.Tracing.Probability,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}()

	st, db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		closers = append(closers, db)
	}

	sessions, rdb, err := openSessions(ctx, cfg, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		closers = append(closers, rdb)
	}

	notifier, notifyClosers := buildNotifier(cfg, log)
	closers = append(closers, notifyClosers...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	coord := checkout.New(checkout.Config{
		Sessions:      sessions,
		Catalog:       st,
		Orders:        st,
		Notifier:      notifier,
		Logger:        log,
		Metrics:       checkout.NewMetrics(reg),
		Timeout:       cfg.Checkout.Timeout,
		NotifyTimeout: cfg.Checkout.NotifyTimeout,
	})

	r := api.NewRouter(api.Config{
		Catalog:      st,
		Sessions:     sessions,
		Checkout:     coord,
		Orders:       order.NewQuery(st),
		Logger:       log,
		Cookie:       cfg.Session.Cookie,
		CookieTTL:    cfg.Session.TTL,
		SecureCookie: cfg.HTTP.TLSCert != "",
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      otelhttp.NewHandler(r, cfg.ServiceName),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.HTTP.Addr, "tls", cfg.HTTP.TLSCert != "")
		if cfg.HTTP.TLSCert != "" {
			errCh <- srv.ListenAndServeTLS(cfg.HTTP.TLSCert, cfg.HTTP.TLSKey)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		coord.Wait()
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server closed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "http shutdown", "error", err)
	}
	coord.Wait()
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store, *sql.DB, error) {
	switch cfg.Store.Backend {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		st := postgres.New(db)
		if cfg.Store.Seed {
			if err := st.Seed(ctx, demoCatalog()...); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("seed catalog: %w", err)
			}
		}
		log.Info(ctx, "using postgres store")
		return st, db, nil
	default:
		st := memory.New()
		if cfg.Store.Seed {
			st.Seed(demoCatalog()...)
		}
		log.Info(ctx, "using in-memory store", "seeded", cfg.Store.Seed)
		return st, nil, nil
	}
}

func openSessions(ctx context.Context, cfg *config.Config, log *logger.Logger) (*session.Store, *redis.Client, error) {
	if cfg.Session.Backend != "redis" {
		return session.NewStore(sessionmem.New(), nil), nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	lockTTL := 2 * cfg.Checkout.Timeout
	return session.NewStore(sessionredis.New(client, cfg.Session.TTL), sessionredis.NewLocker(client, lockTTL, log)), client, nil
}

func buildNotifier(cfg *config.Config, log *logger.Logger) (notify.Notifier, []io.Closer) {
	var (
		fanout  notify.Fanout
		closers []io.Closer
	)
	if cfg.SMTP.Host != "" {
		fanout = append(fanout, notify.NewMailer(notify.MailerConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, nil))
		log.Info(context.Background(), "order mails enabled", "smtp_host", cfg.SMTP.Host)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		w := notify.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		fanout = append(fanout, notify.NewKafkaPublisher(w))
		closers = append(closers, w)
		log.Info(context.Background(), "order events enabled", "topic", cfg.Kafka.Topic)
	}
	if len(fanout) == 0 {
		return notify.Nop{}, nil
	}
	return fanout, closers
}
