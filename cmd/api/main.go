package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/josh-kwaku/bizledger/internal/config"
	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/events/kafka"
	"github.com/josh-kwaku/bizledger/internal/handler"
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/metrics"
	"github.com/josh-kwaku/bizledger/internal/middleware"
	"github.com/josh-kwaku/bizledger/internal/policy"
	"github.com/josh-kwaku/bizledger/internal/repository"
	"github.com/josh-kwaku/bizledger/internal/service/credit"
	"github.com/josh-kwaku/bizledger/internal/service/ledger"
	"github.com/josh-kwaku/bizledger/internal/service/loyalty"
	"github.com/josh-kwaku/bizledger/internal/service/outbox"
	"github.com/josh-kwaku/bizledger/internal/service/reconcile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("bizledger-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	app := newApp(cfg, db)

	var workers sync.WaitGroup
	app.startWorkers(ctx, &workers, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.routes(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	workers.Wait()
	app.close()
	slog.Info("server stopped")
}

type app struct {
	cfg *config.Config
	db  *sql.DB

	idempotency *repository.IdempotencyRepository
	outboxRepo  *repository.OutboxRepository
	publisher   *kafka.Publisher
	limiter     *middleware.RateLimiter

	ledger    *ledger.Service
	reconcile *reconcile.Service
	credit    *credit.Service
	loyalty   *loyalty.Service
	users     *repository.UserRepository
	audit     *repository.AuditRepository
}

func newApp(cfg *config.Config, db *sql.DB) *app {
	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)
	entries := repository.NewLedgerRepository(db)
	audit := repository.NewAuditRepository(db)
	events := repository.NewOutboxRepository(db)
	contacts := repository.NewContactRepository(db)

	a := &app{
		cfg:         cfg,
		db:          db,
		idempotency: repository.NewIdempotencyRepository(db),
		outboxRepo:  events,
		limiter:     middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		users:       repository.NewUserRepository(db),
		audit:       audit,

		ledger:    ledger.NewService(accounts, transactions, entries, audit, events, db),
		reconcile: reconcile.NewService(accounts, entries, audit, db, cfg.SuspenseAccountCode, domain.Currency(cfg.SuspenseCurrency)),
		credit:    credit.NewService(contacts, repository.NewCustomerLedgerRepository(db), audit, db),
		loyalty: loyalty.NewService(
			repository.NewOutletRepository(db),
			contacts,
			repository.NewLoyaltyRepository(db),
			events,
			audit,
			db,
		),
	}
	if len(cfg.KafkaBrokers) > 0 {
		a.publisher = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
	}
	return a
}

func (a *app) startWorkers(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger) {
	done := ctx.Done()
	a.limiter.StartCleanup(done, 10*time.Minute)

	if a.publisher != nil {
		d := outbox.NewDispatcher(a.outboxRepo, a.publisher, a.db,
			logger.With("component", "outbox"), a.cfg.OutboxPollInterval, a.cfg.OutboxBatchSize)
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Start(ctx)
		}()
	} else {
		slog.Warn("KAFKA_BROKERS not set, outbox events will accumulate until a dispatcher runs")
	}

	if a.cfg.ReconcileInterval > 0 {
		s := reconcile.NewScheduler(a.reconcile, a.idempotency,
			logger.With("component", "reconcile"), a.cfg.ReconcileInterval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Start(ctx)
		}()
	}
}

func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Error("failed to close kafka publisher", "error", err)
		}
	}
}

func (a *app) routes() http.Handler {
	health := handler.NewHealthHandler(a.db)
	authH := handler.NewAuthHandler(a.users, a.cfg.JWTSecret, a.cfg.JWTExpiry)
	users := handler.NewUserHandler(a.users)
	accounts := handler.NewAccountHandler(a.ledger)
	transactions := handler.NewTransactionHandler(a.ledger)
	maintenance := handler.NewMaintenanceHandler(a.reconcile)
	creditH := handler.NewCreditHandler(a.credit)
	loyaltyH := handler.NewLoyaltyHandler(a.loyalty)
	auditH := handler.NewAuditHandler(a.audit)

	authn := middleware.Auth(a.cfg.JWTSecret)
	idem := middleware.Idempotency(a.idempotency)

	// protect authenticates, rate limits and authorizes; idempotent also
	// caches the response under the caller's Idempotency-Key.
	protect := func(c policy.Capability, h http.HandlerFunc) http.Handler {
		return authn(a.limiter.Handler(middleware.Require(c)(h)))
	}
	idempotent := func(c policy.Capability, h http.HandlerFunc) http.Handler {
		return protect(c, idem(h).ServeHTTP)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("POST /api/v1/auth/login", a.limiter.Handler(http.HandlerFunc(authH.Login)))
	mux.Handle("GET /api/v1/me", authn(http.HandlerFunc(users.Me)))

	mux.Handle("GET /api/v1/accounts", protect(policy.AccountsRead, accounts.List))
	mux.Handle("POST /api/v1/accounts", idempotent(policy.AccountsWrite, accounts.Create))
	mux.Handle("POST /api/v1/accounts/ensure", protect(policy.AccountsWrite, accounts.Ensure))
	mux.Handle("GET /api/v1/accounts/{id}", protect(policy.AccountsRead, accounts.Get))
	mux.Handle("GET /api/v1/accounts/{id}/entries", protect(policy.LedgerRead, accounts.Entries))

	mux.Handle("POST /api/v1/transactions", idempotent(policy.LedgerPost, transactions.Post))
	mux.Handle("GET /api/v1/transactions/{id}", protect(policy.LedgerRead, transactions.Get))

	mux.Handle("POST /api/v1/maintenance/reconcile", protect(policy.MaintenanceRun, maintenance.Reconcile))
	mux.Handle("POST /api/v1/maintenance/repair", protect(policy.MaintenanceRun, maintenance.Repair))
	mux.Handle("POST /api/v1/maintenance/normalize", protect(policy.MaintenanceRun, maintenance.Normalize))

	mux.Handle("GET /api/v1/contacts/{id}/credit-score", protect(policy.CreditRead, creditH.Score))
	mux.Handle("POST /api/v1/contacts/{id}/entries", idempotent(policy.CustomerConfirm, creditH.RecordEntry))
	mux.Handle("POST /api/v1/customer-entries/{id}/confirm", protect(policy.CustomerConfirm, creditH.ConfirmEntry))

	mux.Handle("POST /api/v1/loyalty/earn", idempotent(policy.LoyaltyEarn, loyaltyH.Earn))
	mux.Handle("POST /api/v1/loyalty/redeem", idempotent(policy.LoyaltyRedeem, loyaltyH.Redeem))
	mux.Handle("GET /api/v1/loyalty/{customerId}", protect(policy.LoyaltyRead, loyaltyH.Balance))

	mux.Handle("GET /api/v1/audit/{entityType}/{id}", protect(policy.AuditRead, auditH.List))

	return middleware.Tracing(middleware.Logging(middleware.Recovery(metrics.InstrumentHandler(mux))))
}
