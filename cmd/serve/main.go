// Package classification CRM Manager Service.
//
// Keeps the resource dependency graph of a Pacemaker cluster, checks constraint changes against it
// and translates them into CRM commands run live or simulated.
//
// Terms Of Service:
//
// there are no TOS at this moment, use at your own risk we take no responsibility
//
//    Version: 0.1.0
//
//    Consumes:
//      - application/json
//
//    Produces:
//      - application/json
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis"
	"github.com/lcmc/crm-manager/internal/handler"
	internalLog "github.com/lcmc/crm-manager/internal/log"
	"github.com/lcmc/crm-manager/internal/server"
	"github.com/lcmc/crm-manager/pkg/catalog"
	"github.com/lcmc/crm-manager/pkg/cluster"
	"github.com/lcmc/crm-manager/pkg/command"
	"github.com/lcmc/crm-manager/pkg/config"
	"github.com/lcmc/crm-manager/pkg/constraint"
	"github.com/lcmc/crm-manager/pkg/event"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/lcmc/crm-manager/pkg/service"
	"github.com/lcmc/crm-manager/pkg/status"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger := slog.New(internalLog.New(internalLog.NewPrettyJSONHandler(os.Stdout, &internalLog.PrettyJSONHandlerOptions{
		HandlerOptions: slog.HandlerOptions{AddSource: true},
		PrettyPrint:    cfg.LogPretty,
	})))
	slog.SetDefault(logger)

	if err := handler.RegisterValidation(); err != nil {
		return err
	}

	cat, err := catalog.New(catalog.NewYAMLSource(cfg.CatalogDir, logger))
	if err != nil {
		return err
	}

	graph := constraint.New()
	factory := service.NewFactory(logger, service.NewRegistry(), service.NewRegistry(),
		service.WithNodes(graph),
		service.WithSubnets(cfg.HostSubnets...),
	)

	source := status.CRMMonSource{Fetcher: status.CommandFetcher{Name: cfg.CRMMonCommand[0], Args: cfg.CRMMonCommand[1:]}}
	pollerOptions := []status.Option{status.WithInterval(cfg.StatusPollInterval)}
	if cfg.Redis != nil {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address()})
		defer redisClient.Close()
		pollerOptions = append(pollerOptions, status.WithStore(status.NewRedisStore(redisClient, "")))
	}
	poller := status.NewPoller(logger, source, pollerOptions...)
	if err := poller.Restore(); err != nil {
		logger.Error("Failed restoring cluster status", "error", err)
	}

	var live command.Sink
	if cfg.RabbitMqURL != nil {
		conn, err := amqp.Dial(cfg.RabbitMqURL.GetUrl())
		if err != nil {
			return err
		}
		defer conn.Close()

		sink, err := command.NewAMQPSink(logger, conn, cfg.CommandQueue)
		if err != nil {
			return err
		}
		defer sink.Close()
		live = sink
	} else {
		logger.Warn("No RabbitMQ configured, live mutations will be refused")
	}
	translator := command.NewTranslator(logger, live, command.NewSimulator())

	broker := event.NewEventBroker()
	var session *cluster.Session
	queue := event.NewQueue(logger, func(ctx context.Context, keys []string) error {
		return session.RefreshTask(poller, broker)(ctx, keys)
	})
	session = cluster.NewSession(logger, cat, factory, graph, translator, poller, queue)

	poller.OnUpdate(func(s *model.ClusterStatus) {
		broker.Publish(event.Event{Type: "status", Message: s.PolledAt.Format(time.RFC3339)})
		if removed := session.ConfirmRemovals(s); len(removed) > 0 {
			broker.Publish(event.Event{Type: "removed", Message: strings.Join(removed, ",")})
		}
		if orphans := session.SyncOrphans(s); len(orphans) > 0 {
			broker.Publish(event.Event{Type: "orphaned", Message: strings.Join(orphans, ",")})
		}
	})

	r := server.GetEngine(logger, cfg.BasePath)
	router := r.Group(cfg.BasePath)
	catalog.Routes(router, catalog.NewHandler(cat))
	cluster.Routes(router, cluster.NewHandler(session))
	event.Routes(router, event.NewHandler(logger, broker))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(ctx)
	})
	g.Go(func() error {
		return queue.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("Listening", "address", srv.Addr, "basePath", cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
