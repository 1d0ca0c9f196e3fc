package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
	appcontact "github.com/Zhima-Mochi/storefront/internal/application/contact"
	"github.com/Zhima-Mochi/storefront/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
	apptracking "github.com/Zhima-Mochi/storefront/internal/application/tracking"
	"github.com/Zhima-Mochi/storefront/internal/config"
	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domcontact "github.com/Zhima-Mochi/storefront/internal/domain/contact"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/kafka"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/payment"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/seed"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/tracking"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
	"github.com/Zhima-Mochi/storefront/internal/pkg/logging"
	"github.com/Zhima-Mochi/storefront/internal/pkg/retry"
	httppresentation "github.com/Zhima-Mochi/storefront/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/storefront/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const retryBackoff = 200 * time.Millisecond

type stores struct {
	products domcatalog.Repository
	orders   domorder.Repository
	contacts domcontact.Repository
	close    func()
}

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "optional config file (yaml, json, toml)")
	issueToken := flag.String("issue-token", "", "print a bearer token for user[:role] and exit")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	if *issueToken != "" {
		if err := printToken(tokens, *issueToken); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		LogFile: cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	counters, histograms := prometrics.Standard(prometrics.New(nil, "", ""))
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), zaplogger.New(baseLogger), counters, histograms)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		systemLogger.Fatal("store_open_failed", zap.Error(err))
	}
	defer st.close()

	if cfg.SeedCatalog {
		n, err := seed.Catalog(ctx, st.products)
		if err != nil {
			systemLogger.Fatal("catalog_seed_failed", zap.Error(err))
		}
		if n > 0 {
			systemLogger.Info("catalog_seeded", zap.Int("products", n))
		}
	}

	// In-process bus; handlers run after the publishing request has returned.
	bus := outbox.NewBus(zaplogger.New(systemLogger))
	eventLogger := zaplogger.New(baseLogger, observability.F("component", "event_worker"))
	for _, name := range domorder.EventNames() {
		bus.Subscribe(name, workerpresentation.Handle(eventLogger, logEvent))
	}

	var relay *kafka.Relay
	if brokers := kafka.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		relay = kafka.NewRelay(kafka.NewWriter(brokers, cfg.KafkaTopic), tel)
		relay.Register(bus, func(h domoutbox.Handler) domoutbox.Handler {
			return workerpresentation.Handle(eventLogger, h)
		}, domorder.EventNames()...)
		systemLogger.Info("kafka_relay_enabled",
			zap.Strings("brokers", brokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}
	bus.Start(context.Background())

	ids := id.NewUUIDGenerator()
	stock := inventory.NewService(st.products, tel)
	gateway := payment.NewRetrying(payment.NewStubDispatcher(), retry.Policy{
		Attempts:   cfg.PaymentAttempts,
		Backoff:    retryBackoff,
		PerAttempt: cfg.PaymentTimeout,
	})
	carrier := tracking.NewRetrying(tracking.NewStubCarrier(), retry.Policy{
		Attempts:   cfg.TrackingAttempts,
		Backoff:    retryBackoff,
		PerAttempt: cfg.TrackingTimeout,
	})

	handler := httppresentation.NewHandler(httppresentation.UseCases{
		ListProducts:  appcatalog.NewListProductsUseCase(st.products, tel),
		GetProduct:    appcatalog.NewGetProductUseCase(st.products, tel),
		SubmitInquiry: appcontact.NewSubmitInquiryUseCase(st.contacts, ids, tel),
		ListInquiries: appcontact.NewListInquiriesUseCase(st.contacts, tel),
		CreateOrder: apporder.NewCreateOrderUseCase(st.orders, st.products, stock, ids, id.NewOrderNumbers(), bus,
			apporder.CreateOrderConfig{ShippingFee: cfg.ShippingFee}, tel),
		GetOrder:       apporder.NewGetOrderUseCase(st.orders, tel),
		ListOrders:     apporder.NewListOrdersUseCase(st.orders, tel),
		UpdateStatus:   apporder.NewUpdateStatusUseCase(st.orders, stock, bus, tel),
		ProcessPayment: apppayment.NewProcessPaymentUseCase(st.orders, gateway, bus, tel),
		TrackOrder:     apptracking.NewTrackOrderUseCase(st.orders, carrier, tel),
	}, tokens, tel)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}

	// Drain queued events before the relay's writer goes away.
	if err := bus.Stop(shutdownCtx); err != nil {
		systemLogger.Error("event_bus_stop_error", zap.Error(err))
	}
	if relay != nil {
		if err := relay.Close(); err != nil {
			systemLogger.Error("kafka_relay_close_error", zap.Error(err))
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.DatabaseURL == "" {
		return &stores{
			products: memory.NewProductRepository(),
			orders:   memory.NewOrderRepository(),
			contacts: memory.NewContactRepository(),
			close:    func() {},
		}, nil
	}

	pool, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		products: postgres.NewProductStore(pool),
		orders:   postgres.NewOrderStore(pool),
		contacts: postgres.NewContactStore(pool),
		close:    pool.Close,
	}, nil
}

// logEvent records every order event with the logger bound by workerpresentation.Handle.
func logEvent(ctx context.Context, _ domoutbox.Event) error {
	logctx.FromOr(ctx, observability.NopLogger()).Info("event_observed")
	return nil
}

// printToken issues a token for "user" or "user:role".
func printToken(tokens *auth.Tokens, subject string) error {
	userID, role, _ := strings.Cut(subject, ":")
	caller := identity.Caller{UserID: userID, Role: identity.RoleUser}
	if identity.Role(role) == identity.RoleAdmin {
		caller.Role = identity.RoleAdmin
	}
	token, err := tokens.Issue(caller)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
