package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "tabib_ai/docs"
	"tabib_ai/internal/adapter/http/routes"
	"tabib_ai/internal/adapter/messaging"
	"tabib_ai/internal/adapter/persistence/repository"
	"tabib_ai/internal/clock"
	"tabib_ai/internal/config"
	"tabib_ai/internal/infrastructure/broker"
	"tabib_ai/internal/infrastructure/database"
	"tabib_ai/internal/infrastructure/llm"
	"tabib_ai/internal/infrastructure/metrics"
	"tabib_ai/internal/infrastructure/notify"
	"tabib_ai/internal/infrastructure/payments"
	"tabib_ai/internal/infrastructure/realtime"
	"tabib_ai/internal/infrastructure/scheduler"
	"tabib_ai/internal/usecase"
	"tabib_ai/internal/usecase/interfaces"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
)

// @title           Tabib AI API
// @version         1.0
// @description     Herbal consultation backend: recipe generation, pricing, order lifecycle and payments.

// @host      localhost:8080
// @BasePath  /

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ddb := database.ConnectDynamoDB()
	startupCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	if err := database.EnsureOrdersTable(startupCtx, ddb); err != nil {
		log.Fatalf("failed to prepare orders table: %v", err)
	}
	cancel()
	orderRepo := repository.NewOrderDynamoRepository(ddb)

	var recipes interfaces.IRecipeProvider
	together, err := llm.NewTogetherClient()
	if err != nil {
		log.Printf("LLM client not configured: %v", err)
	} else {
		recipes = together
	}

	var paymentGateway interfaces.IPaymentGateway
	mpGateway, err := payments.NewMercadoPagoGateway(os.Getenv("MERCADOPAGO_ACCESS_TOKEN"))
	if err != nil {
		log.Printf("Mercado Pago gateway not configured: %v", err)
	} else {
		paymentGateway = mpGateway
	}

	deviceBroker, err := broker.New(cfg.Notify)
	if err != nil {
		log.Fatalf("failed to start device broker: %v", err)
	}
	defer func() {
		if err := deviceBroker.Close(); err != nil {
			log.Printf("device broker close failed: %v", err)
		}
	}()

	hub := realtime.NewHub(cfg.CORSOrigins...)
	go hub.Run(ctx)

	deviceNotifier := notify.NewDeviceNotifier(deviceBroker, cfg.Notify.RecipeTopic, cfg.Notify.StatusTopic)
	go deviceNotifier.Run(ctx)

	serverMetrics := metrics.NewServerMetrics(prometheus.DefaultRegisterer, "api")
	notifier := notify.Fanout{
		deviceNotifier,
		hub,
		serverMetrics,
	}

	completions := scheduler.NewCompletionScheduler(cfg.CompletionDelayMin, cfg.CompletionDelayMax)
	defer completions.Stop()

	clk := clock.NewSystem()
	paymentUseCase := usecase.NewPaymentUseCase(orderRepo, paymentGateway, notifier, clk, cfg.Pricing)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, recipes, completions, notifier, paymentUseCase, clk, usecase.OrderSettings{
		Pricing:              cfg.Pricing,
		RejectUnparsedRecipe: cfg.RecipeFallback == config.RecipeFallbackReject,
	})

	listener := messaging.NewSignalListener(deviceBroker, orderUseCase, cfg.Notify.SignalTopic)
	go func() {
		if err := listener.Run(ctx); err != nil {
			log.Printf("device signal listener stopped: %v", err)
		}
	}()

	router := routes.NewRouter(routes.Dependencies{
		Orders:      orderUseCase,
		Payments:    paymentUseCase,
		Realtime:    hub,
		Metrics:     serverMetrics,
		Gatherer:    prometheus.DefaultGatherer,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err := routes.Run(ctx, cfg.Port, router); err != nil {
		log.Printf("Failed to run the application: %v", err)
	}
}
