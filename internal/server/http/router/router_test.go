package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vusallyv/ds-practice-2025/internal/app"
	"github.com/vusallyv/ds-practice-2025/internal/config"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/inventory"
	pkgAuth "github.com/vusallyv/ds-practice-2025/internal/pkg/auth"
	"github.com/vusallyv/ds-practice-2025/internal/queue"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/handlers"
	testhelpers "github.com/vusallyv/ds-practice-2025/internal/test"
)

func newEngine(roles []string, node *app.Node) *gin.Engine {
	return Setup(Params{
		Config: &config.Config{Roles: roles},
		Logger: testhelpers.DiscardLogger(),
		Tokens: testhelpers.TokenStrategyStub{},
		Facade: &testhelpers.CheckoutFacadeStub{},
		Node:   node,
	})
}

func serve(engine *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(pkgAuth.TokenHeader, token)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupPublicRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := newEngine([]string{config.RoleCheckout}, &app.Node{})

	order := dto.CheckoutRequest{OrderID: "o-1", Items: []model.Item{{Title: "Dune", Quantity: 1}}}
	if resp := serve(engine, http.MethodPost, "/api/checkout", order, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for checkout, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodGet, "/api/orders/o-1", nil, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown result, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodGet, "/healthz", nil, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for health, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodPost, "/rpc/queue/enqueue", model.Order{ID: "o-1"}, "node-1"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected queue routes to be absent, got %d", resp.Code)
	}
}

func TestSetupRPCRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	node := &app.Node{
		Inventory: inventory.NewStore(map[string]int{"Dune": 3}, nil, testhelpers.DiscardLogger()),
		Queue:     queue.NewPriorityOrderQueue(),
	}
	engine := newEngine([]string{config.RoleInventory, config.RoleQueue}, node)

	if resp := serve(engine, http.MethodPost, "/api/checkout", dto.CheckoutRequest{}, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected checkout to be absent, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodPost, "/rpc/inventory/read", dto.StockRequest{Title: "Dune"}, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	resp := serve(engine, http.MethodPost, "/rpc/inventory/read", dto.StockRequest{Title: "Dune"}, "node-2")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for read, got %d", resp.Code)
	}
	var stock dto.StockResult
	if err := json.Unmarshal(resp.Body.Bytes(), &stock); err != nil || stock.Stock != 3 {
		t.Fatalf("unexpected stock result %+v: %v", stock, err)
	}

	resp = serve(engine, http.MethodPost, "/rpc/inventory/prepare", dto.PrepareRequest{OrderID: "o-1", Title: "Dune", Amount: 2}, "node-2")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for prepare, got %d", resp.Code)
	}
	if node.Inventory.Reserved("Dune") != 2 {
		t.Fatalf("expected reservation to be held, got %d", node.Inventory.Reserved("Dune"))
	}

	if resp := serve(engine, http.MethodPost, "/rpc/queue/enqueue", model.Order{ID: "o-1"}, "node-2"); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for enqueue, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodPost, "/rpc/payment/prepare", dto.PrepareRequest{OrderID: "o-1"}, "node-2"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected payment routes to be absent, got %d", resp.Code)
	}
}

var _ handlers.CheckoutFacade = (*testhelpers.CheckoutFacadeStub)(nil)

func TestSetupCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := Setup(Params{
		Config: &config.Config{Roles: []string{config.RoleCheckout}, AllowedOrigins: []string{"http://shop.local"}},
		Logger: testhelpers.DiscardLogger(),
		Tokens: testhelpers.TokenStrategyStub{},
		Facade: &testhelpers.CheckoutFacadeStub{},
		Node:   &app.Node{},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/checkout", nil)
	req.Header.Set("Origin", "http://shop.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://shop.local" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestCORSConfig(t *testing.T) {
	if cfg := corsConfig([]string{"*"}); !cfg.AllowAllOrigins {
		t.Fatal("expected wildcard to allow all origins")
	}
	if cfg := corsConfig([]string{"http://a"}); cfg.AllowAllOrigins || len(cfg.AllowOrigins) != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
