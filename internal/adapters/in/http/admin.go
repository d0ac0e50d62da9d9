package http

import (
	"net/http"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/domain/model/dispute"

	"github.com/labstack/echo/v4"
)

// Administrative overrides. The command handlers check the operator role and
// write the audit entry; the routes only require a justification.

// UnlockDeliveryPin handles POST /api/v1/admin/orders/{id}/delivery/unlock.
func (s *Server) UnlockDeliveryPin(c echo.Context) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	var req UnlockPinRequest
	if err := s.bindBody(c, "UnlockPinRequest", &req); err != nil {
		return err
	}

	cmd, err := commands.NewUnlockPinCommand(orderID, actor, req.Justification)
	if err != nil {
		return err
	}
	if err := s.handlers.UnlockPin.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ForceResolveDispute handles POST /api/v1/admin/orders/{id}/dispute/force-resolve.
func (s *Server) ForceResolveDispute(c echo.Context) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	var req ForceResolveRequest
	if err := s.bindBody(c, "ForceResolveRequest", &req); err != nil {
		return err
	}
	outcome, err := dispute.OutcomeFromString(req.Outcome)
	if err != nil {
		return err
	}

	cmd, err := commands.NewResolveDisputeCommand(orderID, actor, outcome, req.Resolution, true, req.Justification)
	if err != nil {
		return err
	}
	if err := s.handlers.ResolveDispute.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
