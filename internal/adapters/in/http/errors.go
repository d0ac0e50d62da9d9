package http

import (
	"errors"
	"net/http"

	"marketplace/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// errorStatus maps an engine error to its HTTP status and response body.
// Unknown errors are internal and their text is not exposed.
func errorStatus(err error) (int, ErrorResponse) {
	var (
		transition *errs.InvalidTransitionError
		conflict   *errs.EscrowStateConflictError
		mismatch   *errs.PinMismatchError
		exhausted  *errs.PinAttemptsExhaustedError
		blocked    *errs.DisputeBlocksSettlementError
		visit      *errs.SiteVisitIncompleteError
		denied     *errs.ActorNotPermittedError
		notFound   *errs.ObjectNotFoundError
		exists     *errs.ObjectAlreadyExistsError
		httpErr    *echo.HTTPError
	)

	switch {
	case errors.As(err, &transition):
		return http.StatusConflict, ErrorResponse{
			Code:    "invalid_transition",
			Message: err.Error(),
			Details: map[string]any{
				"entity":    transition.Entity,
				"current":   transition.Current,
				"requested": transition.Requested,
			},
		}
	case errors.As(err, &conflict):
		return http.StatusConflict, ErrorResponse{
			Code:    "escrow_state_conflict",
			Message: err.Error(),
			Details: map[string]any{
				"operation":     conflict.Operation,
				"current_state": conflict.CurrentState,
				"order_status":  conflict.OrderStatus,
				"required":      conflict.Required,
			},
		}
	case errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Code:    "pin_mismatch",
			Message: err.Error(),
			Details: map[string]any{"attempts_remaining": mismatch.AttemptsRemaining},
		}
	case errors.As(err, &exhausted):
		return http.StatusLocked, ErrorResponse{
			Code:    "pin_attempts_exhausted",
			Message: err.Error(),
			Details: map[string]any{"max_attempts": exhausted.MaxAttempts},
		}
	case errors.As(err, &blocked):
		return http.StatusConflict, ErrorResponse{
			Code:    "dispute_blocks_settlement",
			Message: err.Error(),
			Details: map[string]any{"operation": blocked.Operation, "dispute_id": blocked.DisputeID},
		}
	case errors.As(err, &visit):
		return http.StatusConflict, ErrorResponse{
			Code:    "site_visit_incomplete",
			Message: err.Error(),
			Details: map[string]any{"dispute_id": visit.DisputeID, "scheduled": visit.Scheduled},
		}
	case errors.As(err, &denied):
		return http.StatusForbidden, ErrorResponse{
			Code:    "actor_not_permitted",
			Message: err.Error(),
			Details: map[string]any{"actor_id": denied.ActorID, "role": denied.Role, "action": denied.Action},
		}
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorResponse{
			Code:    "not_found",
			Message: err.Error(),
			Details: map[string]any{"object": notFound.ParamName},
		}
	case errors.As(err, &exists):
		return http.StatusConflict, ErrorResponse{
			Code:    "already_exists",
			Message: err.Error(),
			Details: map[string]any{"object": exists.ParamName},
		}
	case errs.IsValidation(err):
		return http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()}
	case errors.As(err, &httpErr):
		return httpErr.Code, ErrorResponse{Code: "http_error", Message: http.StatusText(httpErr.Code)}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Code:    "internal",
			Message: "internal server error",
		}
	}
}

// ErrorHandler renders handler errors as ErrorResponse. It replaces echo's
// default handler so that every route, including unmatched ones, answers in
// one format.
func (s *Server) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "Request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	if writeErr := c.JSON(status, body); writeErr != nil {
		s.logger.WarnContext(c.Request().Context(), "Failed to write error response", "error", writeErr)
	}
}
