package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	request "tabib_ai/internal/adapter/http/dto/request"
	response "tabib_ai/internal/adapter/http/dto/response"
	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/usecase"
	"tabib_ai/pkg"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidOrderPayload = pkg.NewDomainErrorSimple("INVALID_ORDER_INPUT", "Invalid order payload", http.StatusBadRequest)
	errInvalidQuotePayload = pkg.NewDomainErrorSimple("INVALID_RECIPE_INPUT", "Invalid recipe payload", http.StatusBadRequest)
	errInvalidAskPayload   = pkg.NewDomainErrorSimple("INVALID_MESSAGE", "Message is required", http.StatusBadRequest)
)

// OrderHandler serves the consultation flow: submission, status lookups,
// price quotes and the free-form LLM passthrough.
type OrderHandler struct {
	usecase usecase.IOrderUseCase
}

func NewOrderHandler(uc usecase.IOrderUseCase) *OrderHandler {
	return &OrderHandler{usecase: uc}
}

// SubmitOrder godoc
// @Summary      Submit a consultation
// @Description  Asks the herbalist model for a recipe, prices it and stores the order in "proses".
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        payload  body      request.SubmitOrderRequest  true  "Patient and complaint"
// @Success      201      {object}  response.SubmitResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      422      {object}  pkg.HTTPError
// @Failure      502      {object}  pkg.HTTPError
// @Router       /v1/orders [post]
func (h *OrderHandler) SubmitOrder(c *gin.Context) {
	var payload request.SubmitOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("[order][handler] invalid payload err=%v", err)
		c.JSON(errInvalidOrderPayload.HTTPStatus, errInvalidOrderPayload.ToHTTPError())
		return
	}

	result, err := h.usecase.Submit(c.Request.Context(), usecase.SubmitInput{
		Name:           payload.ResolveName(),
		Complaint:      payload.ResolveComplaint(),
		RequestPayment: payload.RequestPayment,
	})
	if err != nil {
		log.Printf("[order][handler] submit failed err=%v", err)
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.FromSubmit(result.Order, result.Payment))
}

// GetOrder godoc
// @Summary  Get an order by id
// @Tags     orders
// @Produce  json
// @Param    id   path      string  true  "Order id"
// @Success  200  {object}  response.OrderResponse
// @Failure  404  {object}  pkg.HTTPError
// @Router   /v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromOrder(o))
}

// ListOrders godoc
// @Summary  List orders by status
// @Tags     orders
// @Produce  json
// @Param    status  query     string  true   "proses | done | menunggu_pembayaran | paid"
// @Param    limit   query     int     false  "Page size (default 20, max 100)"
// @Success  200     {array}   response.OrderResponse
// @Failure  400     {object}  pkg.HTTPError
// @Router   /v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			appErr := pkg.NewDomainErrorSimple("INVALID_LIMIT", "Limit must be a number", http.StatusBadRequest)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		limit = n
	}

	status := entities.OrderStatus(strings.TrimSpace(c.Query("status")))
	orders, err := h.usecase.ListByStatus(c.Request.Context(), status, limit)
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromOrders(orders))
}

// GetStatus godoc
// @Summary      Latest order status of a patient
// @Description  Accepts ?name= on GET or {"name": ...} on POST.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        name  query     string  false  "Patient name"
// @Success      200   {object}  response.StatusResponse
// @Failure      404   {object}  pkg.HTTPError
// @Router       /v1/status [get]
// @Router       /v1/status [post]
func (h *OrderHandler) GetStatus(c *gin.Context) {
	var payload request.StatusRequest
	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(errInvalidOrderPayload.HTTPStatus, errInvalidOrderPayload.ToHTTPError())
			return
		}
	} else if err := c.ShouldBindQuery(&payload); err != nil {
		c.JSON(errInvalidOrderPayload.HTTPStatus, errInvalidOrderPayload.ToHTTPError())
		return
	}

	o, err := h.usecase.StatusOf(c.Request.Context(), payload.ResolveName())
	if err != nil {
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromStatus(o))
}

// QuotePrice godoc
// @Summary  Price a recipe with the active policy
// @Tags     pricing
// @Accept   json
// @Produce  json
// @Param    payload  body      request.QuoteRequest  true  "Recipe"
// @Success  200      {object}  response.QuoteResponse
// @Failure  400      {object}  pkg.HTTPError
// @Router   /v1/pricing/quote [post]
func (h *OrderHandler) QuotePrice(c *gin.Context) {
	var payload request.QuoteRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidQuotePayload.HTTPStatus, errInvalidQuotePayload.ToHTTPError())
		return
	}
	recipe, err := payload.ResolveRecipe()
	if err != nil {
		c.JSON(errInvalidQuotePayload.HTTPStatus, errInvalidQuotePayload.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromQuote(recipe, h.usecase.Quote(recipe)))
}

// Ask godoc
// @Summary  Free-form question to the herbalist model
// @Tags     ask
// @Accept   json
// @Produce  json
// @Param    payload  body      request.AskRequest  true  "Message"
// @Success  200      {object}  response.AskResponse
// @Failure  400      {object}  pkg.HTTPError
// @Failure  502      {object}  pkg.HTTPError
// @Router   /v1/ask [post]
func (h *OrderHandler) Ask(c *gin.Context) {
	var payload request.AskRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidAskPayload.HTTPStatus, errInvalidAskPayload.ToHTTPError())
		return
	}

	reply, err := h.usecase.Ask(c.Request.Context(), payload.Message)
	if err != nil {
		log.Printf("[ask][handler] ask failed err=%v", err)
		appErr := mapOrderError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.AskResponse{Reply: reply})
}

func mapOrderError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidPatientName):
		return pkg.NewDomainErrorSimple("INVALID_NAME", "Patient name is required", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidComplaint):
		return pkg.NewDomainErrorSimple("INVALID_COMPLAINT", "Complaint is required", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidOrderID), errors.Is(err, usecase.ErrInvalidOrderStatus):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidMessage):
		return errInvalidAskPayload
	case errors.Is(err, entities.ErrRecipeUnparsable):
		return pkg.NewDomainErrorSimple("RECIPE_UNPARSABLE", "The recipe could not be read from the model reply", http.StatusUnprocessableEntity)
	case errors.Is(err, usecase.ErrOrderNotFound):
		return pkg.NewDomainErrorSimple("ORDER_NOT_FOUND", "Order not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrUpstream):
		return pkg.NewDomainError("UPSTREAM_ERROR", "Gagal memproses", err, http.StatusBadGateway)
	case errors.Is(err, usecase.ErrRecipeProviderNotConfigured), errors.Is(err, usecase.ErrPaymentUseCaseNotConfigured):
		return pkg.NewDomainError("SERVICE_UNAVAILABLE", "Service not configured", err, http.StatusServiceUnavailable)
	default:
		return mapPaymentError(err)
	}
}
