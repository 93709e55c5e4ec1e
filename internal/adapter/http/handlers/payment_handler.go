package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	request "tabib_ai/internal/adapter/http/dto/request"
	response "tabib_ai/internal/adapter/http/dto/response"
	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/usecase"
	"tabib_ai/pkg"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidWebhookPayload = pkg.NewDomainErrorSimple("INVALID_WEBHOOK_INPUT", "Invalid webhook payload", http.StatusBadRequest)
)

type PaymentHandler struct {
	usecase usecase.IPaymentUseCase
}

func NewPaymentHandler(uc usecase.IPaymentUseCase) *PaymentHandler {
	return &PaymentHandler{usecase: uc}
}

// RequestPayment godoc
// @Summary      Request a payment link for an order
// @Description  Creates a MercadoPago checkout and moves the order to "menunggu_pembayaran". Repeated calls return the same link.
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  response.PaymentLinkResponse
// @Failure      404  {object}  pkg.HTTPError
// @Failure      409  {object}  pkg.HTTPError
// @Router       /v1/orders/{id}/payment [post]
func (h *PaymentHandler) RequestPayment(c *gin.Context) {
	orderID := c.Param("id")
	log.Printf("[payment][handler] request payment order_id=%s", orderID)

	o, err := h.usecase.RequestPayment(c.Request.Context(), orderID)
	if err != nil {
		log.Printf("[payment][handler] request payment failed order_id=%s err=%v", orderID, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPaymentLink(o))
}

// Webhook godoc
// @Summary      Payment provider callback
// @Description  Accepts {invoice_code, status} or a MercadoPago payment notification. Answers 200 unless the payload is malformed.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        payload  body      request.PaymentWebhookRequest  false  "Notification"
// @Success      200      {object}  response.WebhookResponse
// @Failure      400      {object}  pkg.HTTPError
// @Router       /v1/payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var payload request.PaymentWebhookRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			log.Printf("[payment][handler] webhook malformed err=%v", err)
			c.JSON(errInvalidWebhookPayload.HTTPStatus, errInvalidWebhookPayload.ToHTTPError())
			return
		}
	}
	if payload.Type == "" && payload.Topic == "" {
		payload.Topic = firstQuery(c, "type", "topic")
	}

	ctx := c.Request.Context()
	var (
		o   entities.Order
		err error
	)
	if invoice, status := payload.ResolveInvoice(); invoice != "" {
		log.Printf("[payment][handler] webhook invoice=%s status=%s", invoice, status)
		o, err = h.usecase.MarkPaid(ctx, invoice, status)
	} else if id := payload.ResolveProviderPaymentID(firstQuery(c, "data.id", "id")); id != "" {
		log.Printf("[payment][handler] webhook provider_payment_id=%s", id)
		o, err = h.usecase.HandleProviderNotification(ctx, id)
	} else if payload.Type != "" || payload.Topic != "" {
		log.Printf("[payment][handler] webhook ignored type=%s topic=%s", payload.Type, payload.Topic)
		c.JSON(http.StatusOK, response.WebhookResponse{Received: true})
		return
	} else {
		c.JSON(errInvalidWebhookPayload.HTTPStatus, errInvalidWebhookPayload.ToHTTPError())
		return
	}

	if errors.Is(err, usecase.ErrInvalidInvoiceCode) || errors.Is(err, usecase.ErrInvalidProviderPaymentID) {
		c.JSON(errInvalidWebhookPayload.HTTPStatus, errInvalidWebhookPayload.ToHTTPError())
		return
	}
	if err != nil {
		log.Printf("[payment][handler] webhook processing failed err=%v", err)
	}
	c.JSON(http.StatusOK, response.FromWebhook(o))
}

func firstQuery(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	return ""
}

func mapPaymentError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidOrderID), errors.Is(err, usecase.ErrInvalidInvoiceCode), errors.Is(err, usecase.ErrPaymentGatewayBadRequest):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayUnauthorized):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_UNAUTHORIZED", "Payment provider unauthorized", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrOrderNotFound):
		return pkg.NewDomainErrorSimple("ORDER_NOT_FOUND", "Order not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrOrderAlreadyPaid):
		return pkg.NewDomainErrorSimple("ORDER_ALREADY_PAID", "Order already paid", http.StatusConflict)
	case errors.Is(err, usecase.ErrPaymentGatewayNotConfigured):
		return pkg.NewDomainError("PAYMENT_PROVIDER_NOT_CONFIGURED", "Payment provider not configured", err, http.StatusServiceUnavailable)
	case errors.Is(err, usecase.ErrUpstream):
		return pkg.NewDomainError("UPSTREAM_ERROR", "Gagal memproses", err, http.StatusBadGateway)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
