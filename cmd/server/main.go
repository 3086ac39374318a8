package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stratify-hq/stratify/modules/planning/infrastructure/persistence"
	"github.com/stratify-hq/stratify/modules/planning/presentation/controllers"
	"github.com/stratify-hq/stratify/modules/planning/services"
	"github.com/stratify-hq/stratify/pkg/application"
	"github.com/stratify-hq/stratify/pkg/configuration"
	"github.com/stratify-hq/stratify/pkg/eventbus"
	"github.com/stratify-hq/stratify/pkg/logging"
	"github.com/stratify-hq/stratify/pkg/middleware"
	"github.com/stratify-hq/stratify/pkg/policy"
	"github.com/stratify-hq/stratify/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := logging.ConsoleLogger(conf.LogrusLevel())
	if conf.LogPath != "" {
		logger = logging.FileLogger(conf.LogPath, conf.LogrusLevel())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		logger.WithError(err).Fatal("failed to create database pool")
	}
	defer pool.Close()

	bus := eventbus.New(logger)
	bus.Subscribe("#", func(_ context.Context, e eventbus.Envelope) {
		logger.WithField("routing_key", e.RoutingKey).Debug("event published")
	})

	gateway := policy.NewHTTPGateway(conf.Policy.EndpointURL, conf.Policy.Timeout, logger)
	emitter := services.NewEventEmitter(bus, conf.Events.Exchange, logger)

	workItems := services.NewWorkItemService(
		persistence.NewWorkItemRepository(),
		persistence.NewLineageRepository(),
		persistence.NewStatusHistoryRepository(),
		gateway,
		emitter,
	)
	lineageQueries := services.NewLineageQueryService(
		persistence.NewLineageQueryRepository(),
		persistence.NewWorkItemRepository(),
		persistence.NewLineageRepository(),
		gateway,
	)

	app := application.New(&application.Options{
		Pool:     pool,
		EventBus: bus,
		Logger:   logger,
	})
	app.RegisterServices(workItems, lineageQueries)

	srv := server.NewHTTPServer(
		[]server.Controller{
			controllers.NewWorkItemController(workItems, lineageQueries),
		},
		middleware.RequestLogger(logger),
		middleware.ProvidePool(pool),
		middleware.RequirePrincipal(),
	)

	go func() {
		logger.WithField("port", conf.ServerPort).Info("planning api listening")
		if err := srv.Start(fmt.Sprintf(":%d", conf.ServerPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
