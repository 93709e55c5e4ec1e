package routes

import (
	"tabib_ai/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathOrders   = "/orders"
	PathStatus   = "/status"
	PathPricing  = "/pricing"
	PathAsk      = "/ask"
	PathPayments = "/payments"
	PathRealtime = "/ws"
)

func addOrderRoutes(rg *gin.RouterGroup, orderHandler *handlers.OrderHandler, paymentHandler *handlers.PaymentHandler) {
	orders := rg.Group(PathOrders)
	{
		orders.POST("", orderHandler.SubmitOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/payment", paymentHandler.RequestPayment)
	}

	rg.GET(PathStatus, orderHandler.GetStatus)
	rg.POST(PathStatus, orderHandler.GetStatus)
	rg.POST(PathPricing+"/quote", orderHandler.QuotePrice)
	rg.POST(PathAsk, orderHandler.Ask)
}

func addPaymentRoutes(rg *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	payments := rg.Group(PathPayments)
	{
		payments.POST("/webhook", paymentHandler.Webhook)
	}
}
