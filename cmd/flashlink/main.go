package main

import (
	"flag"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"github.com/go-kratos/kratos/v2/transport/http"

	"flashlink/internal/biz"
	"flashlink/internal/conf"
	zlog "flashlink/internal/infra/logger"
	"flashlink/internal/server"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "flashlink"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string
	// flaglevel is the minimum log level.
	flaglevel string
	// flagconsole switches the log sink to console output.
	flagconsole bool

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs", "config path, eg: -conf config.yaml")
	flag.StringVar(&flaglevel, "log.level", "info", "minimum log level: debug, info, warn, error")
	flag.BoolVar(&flagconsole, "log.console", false, "human readable log output")
}

func newApp(
	logger log.Logger,
	hs *http.Server,
	cs *server.ConsumerServer,
	rs *server.ReaperServer,
	producer *biz.AnalyticsProducer,
) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
			producer,
			cs,
			rs,
		),
	)
}

func main() {
	flag.Parse()
	sink := zlog.New(os.Stdout, zlog.Options{Console: flagconsole, Level: flaglevel})
	defer sink.Sync()

	logger := log.With(sink,
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
		"trace.id", tracing.TraceID(),
		"span.id", tracing.SpanID(),
	)
	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	app, cleanup, err := wireApp(bc.Server, bc.Data, bc.Shortener, bc.Analytics, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
