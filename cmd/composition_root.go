package cmd

import (
	"log/slog"
	"net/http"
	"time"

	httpin "marketplace/internal/adapters/in/http"
	"marketplace/internal/adapters/out/postgres"
	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/application/usecases/queries"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/core/ports"
	"marketplace/internal/jobs"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/gommon/log"
	"github.com/ulule/limiter/v3"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg        Config
	sqlxDB     *sqlx.DB
	uowFactory postgres.GormUnitOfWorkFactory
	lifecycle  *services.Lifecycle
	logger     *slog.Logger
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, sqlxDB *sqlx.DB, logger *slog.Logger) (CompositionRoot, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return CompositionRoot{}, err
	}

	return CompositionRoot{
		cfg:        cfg,
		sqlxDB:     sqlxDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		lifecycle:  services.NewLifecycle(policy, order.RandomPinGenerator{}, nil),
		logger:     logger,
	}, nil
}

func (c *CompositionRoot) uow() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreatePlaceOrderCommandHandler() commands.PlaceOrderCommandHandler {
	return commands.NewPlaceOrderCommandHandler(c.uow(), c.lifecycle)
}

func (c *CompositionRoot) CreateRepriceOrderCommandHandler() commands.RepriceOrderCommandHandler {
	return commands.NewRepriceOrderCommandHandler(c.uow(), c.lifecycle)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	return commands.NewTransitionOrderCommandHandler(c.uow(), c.lifecycle)
}

func (c *CompositionRoot) CreateVerifyPinCommandHandler() commands.VerifyPinCommandHandler {
	return commands.NewVerifyPinCommandHandler(c.uow(), c.lifecycle)
}

func (c *CompositionRoot) CreateOpenDisputeCommandHandler() commands.OpenDisputeCommandHandler {
	return commands.NewOpenDisputeCommandHandler(c.uow(), c.lifecycle)
}

func (c *CompositionRoot) CreateDisputeActionCommandHandler() commands.DisputeActionCommandHandler {
	return commands.NewDisputeActionCommandHandler(c.uow(), c.lifecycle)
}

func (c *CompositionRoot) CreateResolveDisputeCommandHandler() commands.ResolveDisputeCommandHandler {
	return commands.NewResolveDisputeCommandHandler(c.uow(), c.lifecycle, c.logger)
}

func (c *CompositionRoot) CreateUnlockPinCommandHandler() commands.UnlockPinCommandHandler {
	return commands.NewUnlockPinCommandHandler(c.uow(), c.lifecycle, c.logger)
}

func (c *CompositionRoot) CreateSettleDeliveredCommandHandler() commands.SettleDeliveredCommandHandler {
	return commands.NewSettleDeliveredCommandHandler(c.uow(), c.lifecycle, c.logger)
}

func (c *CompositionRoot) CreateRelayOutboxCommandHandler(publisher ports.EventPublisher) commands.RelayOutboxCommandHandler {
	var f commands.OutboxUoWFactory = FuncOutboxUoWFactory(func() commands.OutboxUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRelayOutboxCommandHandler(f, publisher, commands.DefaultRetrySchedule(), nil, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.sqlxDB)
}

func (c *CompositionRoot) CreateGetDeliveryPinQueryHandler() queries.GetDeliveryPinQueryHandler {
	return queries.NewGetDeliveryPinQueryHandler(c.sqlxDB)
}

func (c *CompositionRoot) CreateListOrderDisputesQueryHandler() queries.ListOrderDisputesQueryHandler {
	return queries.NewListOrderDisputesQueryHandler(c.sqlxDB)
}

// CreateHTTPServer wires every command and query handler into the HTTP adapter.
func (c *CompositionRoot) CreateHTTPServer(api *httpin.APIDocument, metrics http.Handler) *httpin.Server {
	return httpin.NewServer(httpin.Handlers{
		PlaceOrder:      c.CreatePlaceOrderCommandHandler(),
		RepriceOrder:    c.CreateRepriceOrderCommandHandler(),
		TransitionOrder: c.CreateTransitionOrderCommandHandler(),
		VerifyPin:       c.CreateVerifyPinCommandHandler(),
		OpenDispute:     c.CreateOpenDisputeCommandHandler(),
		DisputeAction:   c.CreateDisputeActionCommandHandler(),
		ResolveDispute:  c.CreateResolveDisputeCommandHandler(),
		UnlockPin:       c.CreateUnlockPinCommandHandler(),
		GetOrder:        c.CreateGetOrderQueryHandler(),
		GetDeliveryPin:  c.CreateGetDeliveryPinQueryHandler(),
		ListDisputes:    c.CreateListOrderDisputesQueryHandler(),
	}, api, httpin.Options{
		PinVerifyRate: limiter.Rate{Period: time.Minute, Limit: c.cfg.PinVerifyPerMinute},
		Metrics:       metrics,
		LogLevel:      echoLogLevel(c.cfg.LogLevel),
	}, c.logger)
}

// CreateJobManager wires the outbox relay to publisher and the settlement sweeper.
func (c *CompositionRoot) CreateJobManager(publisher ports.EventPublisher) (*jobs.JobManager, error) {
	return jobs.NewJobManager(
		c.CreateRelayOutboxCommandHandler(publisher),
		c.CreateSettleDeliveredCommandHandler(),
		jobs.Config{
			RelayBatchSize:      c.cfg.RelayBatchSize,
			RelayMaxAttempts:    c.cfg.RelayMaxAttempts,
			SettlementBatchSize: c.cfg.SettlementBatchSize,
			RunTimeout:          c.cfg.JobRunTimeout,
		},
		c.logger,
	)
}

func echoLogLevel(level string) log.Lvl {
	switch level {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncOutboxUoWFactory func() commands.OutboxUoW

func (f FuncOutboxUoWFactory) Create() commands.OutboxUoW {
	return f()
}
