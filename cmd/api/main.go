package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/address"
	"github.com/imrishuroy/go-storefront-checkout/internal/aws"
	"github.com/imrishuroy/go-storefront-checkout/internal/backend"
	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/checkout"
	"github.com/imrishuroy/go-storefront-checkout/internal/config"
	"github.com/imrishuroy/go-storefront-checkout/internal/gateway"
	"github.com/imrishuroy/go-storefront-checkout/internal/handlers"
	"github.com/imrishuroy/go-storefront-checkout/internal/idempotency"
	"github.com/imrishuroy/go-storefront-checkout/internal/kv"
	"github.com/imrishuroy/go-storefront-checkout/internal/notify"
	"github.com/imrishuroy/go-storefront-checkout/internal/observability"
	"github.com/imrishuroy/go-storefront-checkout/internal/orders"
)

// submitLockTTL bounds how long a crashed submission can block its cart.
const submitLockTTL = 2 * time.Minute

type app struct {
	router *gin.Engine
	bridge *gateway.Bridge
}

func setupRouter(deps handlers.Deps, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(observability.RequestLogger(logger), observability.Recovery(logger))
	handlers.Register(r, deps)
	return r
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	clients, err := aws.NewClients(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("aws clients ready", zap.String("region", clients.Region))

	api, err := backend.New(backend.Config{
		BaseURL:            cfg.Backend.BaseURL,
		Timeout:            cfg.Backend.Timeout,
		BreakerMaxFailures: cfg.Backend.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Backend.BreakerOpenTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	pricing := orders.Pricing{
		TaxRate:               cfg.Pricing.TaxRate,
		TaxPlaces:             cfg.Pricing.TaxRoundingPlaces,
		ShippingFee:           cfg.Pricing.ShippingFee,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		Currency:              cfg.Pricing.Currency,
	}

	carts := cart.NewRegistry(kv.NewDynamoStore(clients.DynamoDB, cfg.Storage.CartTable, 0), logger)
	addresses := address.NewResolver(api, logger)
	pipeline := orders.NewPipeline(api, logger)

	bridge := gateway.NewBridge(gateway.Config{
		Action:              cfg.Gateway.URL,
		MerchantCode:        cfg.Gateway.MerchantCode,
		PayItemID:           cfg.Gateway.PayItemID,
		Mode:                cfg.Gateway.Mode,
		PayMethod:           cfg.Gateway.PayMethod,
		ReturnURL:           cfg.Gateway.ReturnURL,
		Currency:            cfg.Pricing.Currency,
		VerificationTimeout: cfg.Gateway.VerificationTimeout,
	}, gateway.Deps{
		Backend:  api,
		Orders:   pipeline,
		Carts:    carts,
		Sessions: gateway.NewDynamoSessionStore(clients.DynamoDB, cfg.Storage.PaymentSessionsTable, cfg.Storage.IdempotencyTTL),
		Claims:   idempotency.NewStore(clients.DynamoDB, cfg.Storage.IdempotencyTable, cfg.Storage.IdempotencyTTL),
		Metrics:  clients.Metrics(cfg.Notifier.MetricsNamespace),
		Pricing:  pricing,
		Logger:   logger,
	})

	service := checkout.NewService(checkout.Deps{
		Carts:     carts,
		Addresses: addresses,
		Orders:    pipeline,
		Gateway:   bridge,
		Notifier:  notify.NewDispatcher(clients.Publisher(cfg.Notifier.QueueURL), logger),
		Locks:     idempotency.NewStore(clients.DynamoDB, cfg.Storage.IdempotencyTable, submitLockTTL),
		Pricing:   pricing,
		Contact: checkout.Contact{
			WhatsAppNumber: cfg.Contact.WhatsAppNumber,
			SupportPhone:   cfg.Contact.SupportPhone,
			Bank: checkout.BankDetails{
				BankName:      cfg.Contact.BankName,
				AccountNumber: cfg.Contact.BankAccountNumber,
				AccountName:   cfg.Contact.BankAccountName,
			},
		},
		Logger: logger,
	})

	router := setupRouter(handlers.Deps{
		Carts:         carts,
		Addresses:     addresses,
		Checkout:      service,
		Logger:        logger,
		SecureCookies: !cfg.RunLocal,
	}, logger)
	return &app{router: router, bridge: bridge}, nil
}

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	a, err := build(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to init api", zap.Error(err))
	}

	// if RUN_LOCAL is true, serve plain HTTP for development.
	if cfg.RunLocal {
		runLocal(a, ":"+cfg.Port, logger)
		return
	}

	adapter := ginadapter.New(a.router)
	lambda.StartWithOptions(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	}, lambda.WithEnableSIGTERM(a.bridge.Wait))
}

func runLocal(a *app, addr string, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(a.router, "storefront-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("running local server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	a.bridge.Wait()
	logger.Info("server stopped")
}
