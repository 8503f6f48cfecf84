package di

import (
	"go.uber.org/fx"

	"github.com/vusallyv/ds-practice-2025/internal/adapter/oracle"
	"github.com/vusallyv/ds-practice-2025/internal/app"
	"github.com/vusallyv/ds-practice-2025/internal/config"
	"github.com/vusallyv/ds-practice-2025/internal/logger"
	"github.com/vusallyv/ds-practice-2025/internal/pkg/auth"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/handlers"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/router"
	"github.com/vusallyv/ds-practice-2025/internal/storage"
	"github.com/vusallyv/ds-practice-2025/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		storage.Module,
		oracle.Module,
		usecase.Module,
		fx.Provide(func(f *app.NodeFacade) handlers.CheckoutFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
