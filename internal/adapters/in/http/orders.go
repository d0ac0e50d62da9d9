package http

import (
	"net/http"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/application/usecases/queries"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// PlaceOrder handles POST /api/v1/orders - the buyer places an order priced by
// the pricing collaborator.
func (s *Server) PlaceOrder(c echo.Context) error {
	buyer, err := actorFromRequest(c)
	if err != nil {
		return err
	}

	var req PlaceOrderRequest
	if err := s.bindBody(c, "PlaceOrderRequest", &req); err != nil {
		return err
	}

	supplierID, err := kernel.UUIDFromString(req.SupplierID)
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause("supplier_id", err)
	}
	subtotal, err := kernel.MoneyFromString(req.Subtotal)
	if err != nil {
		return err
	}
	fee, err := kernel.MoneyFromString(req.DeliveryFee)
	if err != nil {
		return err
	}
	window, err := order.NewDeliveryWindow(req.WindowStart, req.WindowEnd)
	if err != nil {
		return err
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewPlaceOrderCommand(orderID, buyer, supplierID, subtotal, fee, window)
	if err != nil {
		return err
	}
	if err := s.handlers.PlaceOrder.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/api/v1/orders/"+orderID.String())
	return c.JSON(http.StatusCreated, PlaceOrderResponse{ID: orderID.String()})
}

// GetOrder handles GET /api/v1/orders/{id}.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetOrderQuery(orderID, actor)
	if err != nil {
		return err
	}
	view, err := s.handlers.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(view))
}

// RepriceOrder handles POST /api/v1/orders/{id}/reprice.
func (s *Server) RepriceOrder(c echo.Context) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	var req RepriceOrderRequest
	if err := s.bindBody(c, "RepriceOrderRequest", &req); err != nil {
		return err
	}
	subtotal, err := kernel.MoneyFromString(req.Subtotal)
	if err != nil {
		return err
	}
	fee, err := kernel.MoneyFromString(req.DeliveryFee)
	if err != nil {
		return err
	}

	cmd, err := commands.NewRepriceOrderCommand(orderID, actor, subtotal, fee)
	if err != nil {
		return err
	}
	if err := s.handlers.RepriceOrder.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) AcceptOrder(c echo.Context) error {
	return s.transition(c, commands.ActionAccept, "")
}

func (s *Server) CancelOrder(c echo.Context) error {
	var req CancelOrderRequest
	if err := s.bindBody(c, "CancelOrderRequest", &req); err != nil {
		return err
	}
	return s.transition(c, commands.ActionCancel, req.Reason)
}

func (s *Server) StartDelivery(c echo.Context) error {
	return s.transition(c, commands.ActionStartDelivery, "")
}

// MarkDelivered carries the photo evidence reference for photo-confirmed orders.
func (s *Server) MarkDelivered(c echo.Context) error {
	var req MarkDeliveredRequest
	if err := s.bindBody(c, "MarkDeliveredRequest", &req); err != nil {
		return err
	}
	return s.transition(c, commands.ActionMarkDelivered, req.EvidenceRef)
}

func (s *Server) ConfirmReceipt(c echo.Context) error {
	return s.transition(c, commands.ActionConfirmReceipt, "")
}

func (s *Server) transition(c echo.Context, action commands.OrderAction, note string) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	cmd, err := commands.NewTransitionOrderCommand(orderID, actor, action, note)
	if err != nil {
		return err
	}
	if err := s.handlers.TransitionOrder.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// VerifyDeliveryPin handles POST /api/v1/orders/{id}/delivery/pin. A wrong PIN
// answers 422 with the remaining attempts; the last wrong one answers 423.
func (s *Server) VerifyDeliveryPin(c echo.Context) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	var req VerifyPinRequest
	if err := s.bindBody(c, "VerifyPinRequest", &req); err != nil {
		return err
	}

	cmd, err := commands.NewVerifyPinCommand(orderID, actor, req.Pin)
	if err != nil {
		return err
	}
	if err := s.handlers.VerifyPin.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetDeliveryPin handles GET /api/v1/orders/{id}/delivery/pin (buyer only).
func (s *Server) GetDeliveryPin(c echo.Context) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetDeliveryPinQuery(orderID, actor)
	if err != nil {
		return err
	}
	pin, err := s.handlers.GetDeliveryPin.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, DeliveryPinResponse{
		Pin:               pin.Pin,
		AttemptsRemaining: pin.AttemptsRemaining,
		Locked:            pin.Locked,
	})
}
