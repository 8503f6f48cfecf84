package router

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/vusallyv/ds-practice-2025/internal/app"
	"github.com/vusallyv/ds-practice-2025/internal/config"
	pkgAuth "github.com/vusallyv/ds-practice-2025/internal/pkg/auth"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/handlers"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/middleware"
)

const maxBodyBytes = 1 << 20

type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	Tokens pkgAuth.TokenStrategy
	Facade handlers.CheckoutFacade
	Node   *app.Node
}

// Setup configures gin router with the public API of a checkout node and
// the internal RPC routes of every component the node hosts.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(p.Logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(middleware.LimitBody(maxBodyBytes))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	if p.Config.Has(config.RoleCheckout) {
		// Preflight requests match no route, so CORS has to run engine wide.
		engine.Use(cors.New(corsConfig(p.Config.AllowedOrigins)))
	}

	checkout := handlers.NewCheckoutHandler(p.Facade)
	engine.GET("/healthz", checkout.Health)

	if p.Config.Has(config.RoleCheckout) {
		api := engine.Group("/api")
		api.POST("/checkout", middleware.RateLimit(p.Config.CheckoutRateLimit, p.Config.CheckoutBurst), checkout.Checkout)
		api.GET("/orders/:id", checkout.Result)
		api.GET("/stock/:title", checkout.Stock)
	}

	rpc := engine.Group("/rpc")
	rpc.Use(middleware.ClusterAuth(p.Tokens))

	if inv := p.Node.Inventory; inv != nil {
		group := rpc.Group("/inventory")
		registerParticipant(group, handlers.NewParticipantHandler(inv, p.Logger))
		stock := handlers.NewInventoryHandler(inv)
		group.POST("/read", stock.Read)
		group.POST("/write", stock.Write)
		group.POST("/decrement", stock.Decrement)
		group.POST("/increment", stock.Increment)
	}
	if ledger := p.Node.Ledger; ledger != nil {
		registerParticipant(rpc.Group("/payment"), handlers.NewParticipantHandler(ledger, p.Logger))
	}
	if q := p.Node.Queue; q != nil {
		queue := handlers.NewQueueHandler(q)
		group := rpc.Group("/queue")
		group.POST("/enqueue", queue.Enqueue)
		group.POST("/dequeue", queue.Dequeue)
	}
	if elector := p.Node.Elector; elector != nil {
		election := handlers.NewElectionHandler(elector)
		group := rpc.Group("/election")
		group.POST("/declare-election", election.DeclareElection)
		group.POST("/declare-victory", election.DeclareVictory)
	}

	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Encoding"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func registerParticipant(group *gin.RouterGroup, h *handlers.ParticipantHandler) {
	group.POST("/prepare", h.Prepare)
	group.POST("/commit", h.Commit)
	group.POST("/abort", h.Abort)
}
