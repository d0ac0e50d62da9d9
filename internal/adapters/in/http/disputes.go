package http

import (
	"net/http"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/application/usecases/queries"
	"marketplace/internal/core/domain/model/dispute"
	"marketplace/internal/core/domain/services"

	"github.com/labstack/echo/v4"
)

// RejectDelivery handles POST /api/v1/orders/{id}/reject-delivery. The buyer
// refuses a delivery awaiting confirmation, which opens a dispute.
func (s *Server) RejectDelivery(c echo.Context) error {
	return s.openDispute(c, commands.OriginRejection)
}

// ReportIssue handles POST /api/v1/orders/{id}/disputes.
func (s *Server) ReportIssue(c echo.Context) error {
	return s.openDispute(c, commands.OriginReport)
}

func (s *Server) openDispute(c echo.Context, origin commands.DisputeOrigin) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	var req IssueRequest
	if err := s.bindBody(c, "IssueRequest", &req); err != nil {
		return err
	}

	cmd, err := commands.NewOpenDisputeCommand(orderID, actor, origin, services.IssueReport{
		Reason:         dispute.Reason(req.Reason),
		Description:    req.Description,
		Evidence:       req.Evidence,
		ForceSiteVisit: req.ForceSiteVisit,
	})
	if err != nil {
		return err
	}
	if err := s.handlers.OpenDispute.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

// ListDisputes handles GET /api/v1/orders/{id}/disputes.
func (s *Server) ListDisputes(c echo.Context) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	query, err := queries.NewListOrderDisputesQuery(orderID, actor)
	if err != nil {
		return err
	}
	views, err := s.handlers.ListDisputes.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	response := make([]DisputeResponse, len(views))
	for i, v := range views {
		response[i] = toDisputeResponse(v)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) AddDisputeEvidence(c echo.Context) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	var req EvidenceRequest
	if err := s.bindBody(c, "EvidenceRequest", &req); err != nil {
		return err
	}

	cmd, err := commands.NewAddEvidenceCommand(orderID, actor, req.Ref)
	if err != nil {
		return err
	}
	return s.runDisputeAction(c, cmd)
}

func (s *Server) InvestigateDispute(c echo.Context) error {
	return s.disputeStep(c, commands.DisputeInvestigate)
}

func (s *Server) EscalateDispute(c echo.Context) error {
	return s.disputeStep(c, commands.DisputeEscalate)
}

func (s *Server) ScheduleSiteVisit(c echo.Context) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	var req ScheduleSiteVisitRequest
	if err := s.bindBody(c, "ScheduleSiteVisitRequest", &req); err != nil {
		return err
	}

	cmd, err := commands.NewScheduleSiteVisitCommand(orderID, actor, req.ScheduledAt, req.Inspector)
	if err != nil {
		return err
	}
	return s.runDisputeAction(c, cmd)
}

func (s *Server) CompleteSiteVisit(c echo.Context) error {
	return s.disputeStep(c, commands.DisputeCompleteSiteVisit)
}

// disputeStep runs the workflow steps that carry no payload.
func (s *Server) disputeStep(c echo.Context, action commands.DisputeAction) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	cmd, err := commands.NewDisputeActionCommand(orderID, actor, action)
	if err != nil {
		return err
	}
	return s.runDisputeAction(c, cmd)
}

func (s *Server) runDisputeAction(c echo.Context, cmd commands.DisputeActionCommand) error {
	if err := s.handlers.DisputeAction.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ResolveDispute handles POST /api/v1/orders/{id}/dispute/resolve. It fails
// with 409 while a required site visit is outstanding.
func (s *Server) ResolveDispute(c echo.Context) error {
	orderID, actor, err := orderRequest(c)
	if err != nil {
		return err
	}

	var req ResolveDisputeRequest
	if err := s.bindBody(c, "ResolveDisputeRequest", &req); err != nil {
		return err
	}
	outcome, err := dispute.OutcomeFromString(req.Outcome)
	if err != nil {
		return err
	}

	cmd, err := commands.NewResolveDisputeCommand(orderID, actor, outcome, req.Resolution, false, "")
	if err != nil {
		return err
	}
	if err := s.handlers.ResolveDispute.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
