package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tabib_ai/internal/adapter/http/handlers/mocks"
	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/mock/gomock"
)

func newTestRouter(t *testing.T, origins ...string) (*gin.Engine, *mocks.MockIOrderUseCase, *mocks.MockIPaymentUseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockIOrderUseCase(ctrl)
	payments := mocks.NewMockIPaymentUseCase(ctrl)
	reg := prometheus.NewRegistry()

	r := NewRouter(Dependencies{
		Orders:      orders,
		Payments:    payments,
		Realtime:    http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }),
		Metrics:     metrics.NewServerMetrics(reg, "api"),
		Gatherer:    reg,
		CORSOrigins: origins,
	})
	return r, orders, payments
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewRouter_BannerAndPing(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || w.Body.String() != bannerText {
		t.Fatalf("unexpected banner %d %q", w.Code, w.Body.String())
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Fatalf("unexpected ping %d %q", w.Code, w.Body.String())
	}
}

func TestNewRouter_WiresUseCases(t *testing.T) {
	r, orders, payments := newTestRouter(t)
	orders.EXPECT().GetByID(gomock.Any(), "ord-1").Return(entities.Order{ID: "ord-1", Status: entities.OrderStatusDone}, nil)
	payments.EXPECT().RequestPayment(gomock.Any(), "ord-1").Return(entities.Order{ID: "ord-1", Status: entities.OrderStatusMenungguPembayaran}, nil)

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/v1/orders/ord-1", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodPost, "/v1/orders/ord-1/payment", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/v1/ws", nil)); w.Code != http.StatusTeapot {
		t.Fatalf("realtime handler not mounted, got %d", w.Code)
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)
	serve(r, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `tabib_api_http_requests_total{handler="/v1/ping",method="GET",status="200"} 1`) {
		t.Fatalf("request metric missing:\n%s", w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	t.Run("allow all preflight", func(t *testing.T) {
		r, _, _ := newTestRouter(t, "*")
		req := httptest.NewRequest(http.MethodOptions, "/v1/orders", nil)
		req.Header.Set("Origin", "http://kiosk.local")
		req.Header.Set("Access-Control-Request-Method", "POST")

		w := serve(r, req)
		if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("unexpected preflight %d headers=%v", w.Code, w.Header())
		}
	})

	t.Run("listed origin is echoed", func(t *testing.T) {
		r, _, _ := newTestRouter(t, "http://kiosk.local")
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set("Origin", "http://kiosk.local")

		w := serve(r, req)
		if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "http://kiosk.local" {
			t.Fatalf("unexpected response %d headers=%v", w.Code, w.Header())
		}
	})

	t.Run("unknown origin preflight is forbidden", func(t *testing.T) {
		r, _, _ := newTestRouter(t, "http://kiosk.local")
		req := httptest.NewRequest(http.MethodOptions, "/v1/orders", nil)
		req.Header.Set("Origin", "http://evil.local")
		req.Header.Set("Access-Control-Request-Method", "POST")

		if w := serve(r, req); w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "0", http.NotFoundHandler()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
