// README: App wiring: builds every service from config and runs the agent's background loops and HTTP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"courier/internal/ai"
	"courier/internal/backend"
	"courier/internal/config"
	"courier/internal/demo"
	httptransport "courier/internal/http"
	"courier/internal/infra"
	"courier/internal/logger"
	"courier/internal/maps"
	"courier/internal/modules/aiusage"
	"courier/internal/modules/events"
	"courier/internal/modules/ledger"
	"courier/internal/modules/location"
	"courier/internal/modules/order"
	"courier/internal/modules/pricing"
	"courier/internal/modules/session"
	"courier/internal/modules/tips"
	"courier/internal/types"
)

// ledgerStore is a durable ledger that also keeps the transition audit trail.
type ledgerStore interface {
	ledger.Store
	order.Recorder
}

type App struct {
	Config config.Config
	Log    *slog.Logger

	DB    *sql.DB
	Pool  *pgxpool.Pool
	Redis *redis.Client

	API      backend.API
	Sim      *backend.Sim
	KV       session.KV
	Session  *session.Service
	Ledger   *ledger.Ledger
	Orders   *order.Service
	Reporter *location.Reporter
	Tracker  *location.Tracker
	ETA      *location.ETAService
	Usage    *aiusage.Service
	Tips     *tips.Service
	Demo     *demo.Generator
	Offers   order.OfferSource
	Router   *gin.Engine

	closers []func() error
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases everything Build opened, last opened first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Build opens storage, connects optional infrastructure and wires the
// services. Optional parts (Postgres, Redis, Kafka, RabbitMQ, Firebase,
// Maps, Gemini) are only touched when configured.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	log, logCloser := logger.New(cfg.Log)
	a := &App{Config: cfg, Log: log}
	a.onClose(logCloser.Close)
	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config
	partnerID := types.ID(cfg.Partner.ID)

	if err := a.openStorage(ctx); err != nil {
		return err
	}
	store, err := a.openLedgerStore(ctx)
	if err != nil {
		return err
	}

	switch cfg.Backend.Mode {
	case config.BackendHTTP:
		var tokens backend.TokenSource = backend.KVToken{KV: a.KV}
		if cfg.Partner.Token != "" {
			tokens = backend.StaticToken(cfg.Partner.Token)
		}
		a.API = backend.NewClient(backend.ClientConfig{
			BaseURL:     cfg.Backend.BaseURL,
			Timeout:     cfg.Backend.Timeout,
			MaxAttempts: cfg.Backend.MaxAttempts,
			RetryDelay:  cfg.Backend.RetryDelay,
		}, tokens, a.Log)
	default:
		a.Sim = backend.NewSim(cfg.Backend.SimLatency)
		a.API = a.Sim
	}

	a.Ledger = ledger.New(store, a.Log)
	if err := a.Ledger.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	a.Session = session.NewService(partnerID, a.API, a.KV, a.Log)

	recorders := []order.Recorder{store}
	pubs, err := a.publishers()
	if err != nil {
		return err
	}
	for _, p := range pubs {
		recorders = append(recorders, events.NewRecorder(p, partnerID))
	}

	sinks, err := a.locationSinks(ctx, partnerID)
	if err != nil {
		return err
	}
	a.Reporter = location.NewReporter(location.ReporterConfig{
		Interval:  cfg.Location.ReportInterval,
		MinMeters: cfg.Location.ReportMinMeters,
	}, sinks, a.Log)
	a.Tracker = location.NewTracker(location.TrackerConfig{
		TransitInterval: cfg.Location.TransitInterval,
		TransitStep:     cfg.Location.TransitStep,
	}, a.Reporter, a.Log)

	var router location.Router
	var locator backend.Locator
	if cfg.Maps.APIKey != "" {
		routes, err := maps.NewRouteService(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			return fmt.Errorf("maps routes: %w", err)
		}
		places, err := maps.NewPlacesService(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			return fmt.Errorf("maps places: %w", err)
		}
		router, locator = routes, places
	}
	a.ETA = location.NewETAService(a.Tracker, router, a.Log)

	a.Orders = order.NewService(order.Config{
		OfferWindow: cfg.Offer.Window,
		Tick:        cfg.Offer.Tick,
	}, order.Deps{
		Backend:   a.API,
		Ledger:    a.Ledger,
		Session:   a.Session,
		Mover:     a.Tracker,
		Recorders: recorders,
		Logger:    a.Log,
	})

	a.Usage = aiusage.NewService(aiusage.NewStore(a.DB))
	var provider ai.LLMProvider
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey, cfg.AI.Model)
		if err != nil {
			return fmt.Errorf("gemini: %w", err)
		}
		a.onClose(func() error { gemini.Close(); return nil })
		provider = gemini
	}
	a.Tips = tips.NewService(provider, a.Usage, partnerID, cfg.AI.TipTTL, a.Log)

	a.Demo = demo.NewGenerator(demo.Config{Synthetic: cfg.Offer.Synthetic}, pricing.NewService(pricing.DefaultRate))
	a.Offers = backend.NewOffers(a.API, locator, a.Log)

	verifier, err := a.verifier(ctx)
	if err != nil {
		return err
	}
	deps := httptransport.RouterDeps{
		PartnerID: cfg.Partner.ID,
		Verifier:  verifier,
		Logger:    a.Log,
		Session:   a.Session,
		Order:     a.Orders,
		Ledger:    a.Ledger,
		Tracker:   a.Tracker,
		ETA:       a.ETA,
		Tips:      a.Tips,
		Usage:     a.Usage,
	}
	if cfg.Offer.Demo {
		deps.Demo = a.Demo
	}
	a.Router = httptransport.NewRouter(deps)
	return nil
}

// openStorage opens the device-local SQLite database and picks the session
// KV: Redis when configured, SQLite otherwise.
func (a *App) openStorage(ctx context.Context) error {
	cfg := a.Config
	d, err := infra.OpenSQLite(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	a.DB = d
	a.onClose(d.Close)

	if cfg.Redis.Addr == "" {
		a.KV = session.NewSQLiteStore(d)
		return nil
	}
	rc, err := infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	a.Redis = rc
	a.onClose(rc.Close)
	a.KV = session.NewRedisStore(rc, cfg.Redis.SessionTTL)
	return nil
}

func (a *App) openLedgerStore(ctx context.Context) (ledgerStore, error) {
	if a.Config.Storage.PostgresDSN == "" {
		return ledger.NewSQLiteStore(a.DB), nil
	}
	pool, err := infra.NewDB(ctx, a.Config.Storage.PostgresDSN)
	if err != nil {
		return nil, err
	}
	a.Pool = pool
	a.onClose(func() error { pool.Close(); return nil })
	if err := infra.MigratePostgres(ctx, pool); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return ledger.NewPostgresStore(pool, types.ID(a.Config.Partner.ID)), nil
}

func (a *App) publishers() ([]events.Publisher, error) {
	cfg := a.Config.Events
	var pubs []events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		a.onClose(p.Close)
		pubs = append(pubs, p)
	}
	if cfg.RabbitMQ.URL != "" {
		p, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		a.onClose(p.Close)
		pubs = append(pubs, p)
	}
	return pubs, nil
}

func (a *App) locationSinks(ctx context.Context, partnerID types.ID) ([]location.Sink, error) {
	sinks := []location.Sink{location.NewBackendSink(a.API)}
	if a.Redis != nil {
		sinks = append(sinks, location.NewRedisSink(a.Redis, partnerID))
	}
	if url := a.Config.Firebase.DatabaseURL; url != "" {
		client, err := infra.NewFirebaseDatabase(ctx, url, a.Config.Firebase.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("firebase database: %w", err)
		}
		sinks = append(sinks, location.NewFirebaseSink(client, partnerID, a.presence))
	}
	return sinks, nil
}

func (a *App) presence() string {
	if a.Session != nil && a.Session.Online() {
		return "online"
	}
	return "offline"
}

func (a *App) verifier(ctx context.Context) (infra.TokenVerifier, error) {
	cfg := a.Config
	switch cfg.Auth.Mode {
	case config.AuthJWT:
		return infra.NewJWTVerifier(cfg.Auth.JWTSecret)
	case config.AuthFirebase:
		v, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("firebase init: %w", err)
		}
		return v, nil
	}
	return nil, nil
}

// Start restores state from the backend and launches the background loops.
// It returns once the loops are running; they stop with ctx.
func (a *App) Start(ctx context.Context) {
	cfg := a.Config
	a.Session.Load(ctx)

	if cfg.Backend.Mode == config.BackendHTTP {
		n, err := backend.ImportHistory(ctx, a.API, a.Ledger, cfg.Backend.HistoryPages)
		if err != nil {
			a.Log.Warn("history import failed", "error", err)
		} else if n > 0 {
			a.Log.Info("history imported", "orders", n)
		}
	}
	if restored, err := backend.RestoreAssigned(ctx, a.API, a.Orders); err != nil {
		a.Log.Warn("restore assigned order failed", "error", err)
	} else if restored {
		a.Log.Info("assigned order restored")
	}

	go a.Orders.RunOfferPoller(ctx, a.Offers, cfg.Backend.PollInterval)
	if a.Sim != nil && cfg.Offer.Demo {
		go a.Demo.Feed(ctx, a.Sim, cfg.Offer.DemoInterval)
	}
	go a.runDashboardRefresh(ctx, cfg.Backend.DashboardInterval)
}

func (a *App) runDashboardRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := backend.RefreshDashboard(ctx, a.API, a.Session); err != nil && ctx.Err() == nil {
			a.Log.Debug("dashboard refresh failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Run starts the loops and serves the local API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.Start(ctx)
	srv := httptransport.NewServer(a.Config.HTTP.Addr, a.Router, a.Log)
	err := srv.Run(ctx)
	a.Tracker.StopTransit()
	a.Reporter.Wait()
	return err
}
