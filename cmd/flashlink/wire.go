//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"flashlink/internal/biz"
	"flashlink/internal/conf"
	"flashlink/internal/data"
	"flashlink/internal/infra/enrichment"
	"flashlink/internal/infra/eventbus"
	"flashlink/internal/infra/ratelimit"
	"flashlink/internal/metrics"
	"flashlink/internal/server"
	"flashlink/internal/service"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Shortener, *conf.Analytics, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		metrics.ProviderSet,
		data.ProviderSet,
		ratelimit.ProviderSet,
		eventbus.ProviderSet,
		enrichment.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		server.ProviderSet,
		newApp,
	))
}
