package routes

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	_ "tabib_ai/docs"
	"tabib_ai/internal/adapter/http/handlers"
	"tabib_ai/internal/infrastructure/metrics"
	"tabib_ai/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	shutdownTimeout = 10 * time.Second
	bannerText      = "Tabib AI backend is running"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Orders      usecase.IOrderUseCase
	Payments    usecase.IPaymentUseCase
	Realtime    http.Handler
	Metrics     *metrics.ServerMetrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	setMiddlewares(router, deps)

	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, bannerText) })
	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	orderHandler := handlers.NewOrderHandler(deps.Orders)
	paymentHandler := handlers.NewPaymentHandler(deps.Payments)

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addOrderRoutes(v1, orderHandler, paymentHandler)
	addPaymentRoutes(v1, paymentHandler)
	if deps.Realtime != nil {
		v1.GET(PathRealtime, gin.WrapH(deps.Realtime))
	}
	return router
}

// Run serves handler on port until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, port string, handler http.Handler) error {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}
	log.Printf("[http][server] listening on :%s", port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Printf("[http][server] shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Printf("[http][server] server stopped")
	return nil
}

func setMiddlewares(router *gin.Engine, deps Dependencies) {
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	router.Use(cors(deps.CORSOrigins))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}
}
