package http

import (
	"context"
	"log/slog"
	"net/http"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/ulule/limiter/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type (
	placeOrderHandler interface {
		Handle(ctx context.Context, cmd commands.PlaceOrderCommand) error
	}
	repriceOrderHandler interface {
		Handle(ctx context.Context, cmd commands.RepriceOrderCommand) error
	}
	transitionOrderHandler interface {
		Handle(ctx context.Context, cmd commands.TransitionOrderCommand) error
	}
	verifyPinHandler interface {
		Handle(ctx context.Context, cmd commands.VerifyPinCommand) error
	}
	openDisputeHandler interface {
		Handle(ctx context.Context, cmd commands.OpenDisputeCommand) error
	}
	disputeActionHandler interface {
		Handle(ctx context.Context, cmd commands.DisputeActionCommand) error
	}
	resolveDisputeHandler interface {
		Handle(ctx context.Context, cmd commands.ResolveDisputeCommand) error
	}
	unlockPinHandler interface {
		Handle(ctx context.Context, cmd commands.UnlockPinCommand) error
	}
	getOrderHandler interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (queries.GetOrderQueryResponse, error)
	}
	getDeliveryPinHandler interface {
		Handle(ctx context.Context, query queries.GetDeliveryPinQuery) (queries.GetDeliveryPinQueryResponse, error)
	}
	listDisputesHandler interface {
		Handle(ctx context.Context, query queries.ListOrderDisputesQuery) ([]queries.DisputeView, error)
	}
)

// Handlers groups the use cases reachable over HTTP.
type Handlers struct {
	PlaceOrder      placeOrderHandler
	RepriceOrder    repriceOrderHandler
	TransitionOrder transitionOrderHandler
	VerifyPin       verifyPinHandler
	OpenDispute     openDisputeHandler
	DisputeAction   disputeActionHandler
	ResolveDispute  resolveDisputeHandler
	UnlockPin       unlockPinHandler

	GetOrder       getOrderHandler
	GetDeliveryPin getDeliveryPinHandler
	ListDisputes   listDisputesHandler
}

// Options tunes the outer surface of the server.
type Options struct {
	// PinVerifyRate limits PIN submissions per order. Zero uses DefaultPinVerifyRate.
	PinVerifyRate limiter.Rate
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	// LogLevel is the echo logger level. Zero keeps echo's default.
	LogLevel log.Lvl
}

// Server translates HTTP requests into commands and queries. It holds no
// state of its own: every mutation goes through a command handler.
type Server struct {
	handlers   Handlers
	api        *APIDocument
	pinLimiter *limiter.Limiter
	metrics    http.Handler
	logLevel   log.Lvl
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(handlers Handlers, api *APIDocument, opts Options, logger *slog.Logger) *Server {
	return &Server{
		handlers:   handlers,
		api:        api,
		pinLimiter: newPinLimiter(opts.PinVerifyRate),
		metrics:    opts.Metrics,
		logLevel:   opts.LogLevel,
		logger:     logger.With("component", "http_server"),
	}
}

// Echo builds the router with every route registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if s.logLevel != 0 {
		e.Logger.SetLevel(s.logLevel)
	}
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = s.ErrorHandler
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/api/v1")

	orders := v1.Group("/orders")
	orders.POST("", s.PlaceOrder)
	orders.GET("/:id", s.GetOrder)
	orders.POST("/:id/reprice", s.RepriceOrder)
	orders.POST("/:id/accept", s.AcceptOrder)
	orders.POST("/:id/cancel", s.CancelOrder)
	orders.POST("/:id/start-delivery", s.StartDelivery)
	orders.POST("/:id/mark-delivered", s.MarkDelivered)
	orders.POST("/:id/confirm-receipt", s.ConfirmReceipt)
	orders.POST("/:id/reject-delivery", s.RejectDelivery)

	orders.POST("/:id/delivery/pin", s.VerifyDeliveryPin, limitPerOrder(s.pinLimiter))
	orders.GET("/:id/delivery/pin", s.GetDeliveryPin)

	orders.POST("/:id/disputes", s.ReportIssue)
	orders.GET("/:id/disputes", s.ListDisputes)
	orders.POST("/:id/dispute/evidence", s.AddDisputeEvidence)
	orders.POST("/:id/dispute/investigate", s.InvestigateDispute)
	orders.POST("/:id/dispute/escalate", s.EscalateDispute)
	orders.POST("/:id/dispute/site-visit", s.ScheduleSiteVisit)
	orders.POST("/:id/dispute/site-visit/complete", s.CompleteSiteVisit)
	orders.POST("/:id/dispute/resolve", s.ResolveDispute)

	admin := v1.Group("/admin/orders")
	admin.POST("/:id/delivery/unlock", s.UnlockDeliveryPin)
	admin.POST("/:id/dispute/force-resolve", s.ForceResolveDispute)

	return e
}

// Handler wraps the router with OpenTelemetry server instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.Echo(), "marketplace.http")
}
