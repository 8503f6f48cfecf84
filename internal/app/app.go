package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/vusallyv/ds-practice-2025/internal/config"
	"github.com/vusallyv/ds-practice-2025/internal/usecase"
	"github.com/vusallyv/ds-practice-2025/internal/worker"
)

// Module wires node components, runtime services, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newTransport,
		newNode,
		newOrderQueue,
		newStockReader,
		newParticipants,
		newCoordinator,
		newVerifier,
		newOrderProcessor,
		NewNodeFacade,
		newHTTPServer,
		func(q OrderQueue) usecase.OrderQueue { return q },
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.OrderProcessor
	Node       *Node
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting node",
				slog.Int("node_id", p.Config.NodeID),
				slog.Any("roles", p.Config.Roles),
				slog.String("addr", p.Server.Addr),
			)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			if p.Worker != nil {
				p.Worker.Start(context.WithoutCancel(ctx))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if p.Worker != nil {
				p.Worker.Stop()
			}

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			if p.Node != nil && p.Node.Elector != nil {
				p.Node.Elector.Wait()
			}
			p.Logger.Info("node stopped", slog.Int("node_id", p.Config.NodeID))
			return nil
		},
	})
}
