package http

import (
	"bytes"
	"io"
	"strings"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// RequestValidator adapts validator/v10 to echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *RequestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	return nil
}

// actorFromRequest reads the principal supplied by the auth collaborator.
// Both headers are required.
func actorFromRequest(c echo.Context) (kernel.Actor, error) {
	rawID := strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
	if rawID == "" {
		return kernel.Actor{}, errs.NewValueIsRequiredError(HeaderActorID)
	}
	id, err := kernel.UUIDFromString(rawID)
	if err != nil {
		return kernel.Actor{}, errs.NewValueIsInvalidErrorWithCause(HeaderActorID, err)
	}

	rawRole := c.Request().Header.Get(HeaderActorRole)
	if strings.TrimSpace(rawRole) == "" {
		return kernel.Actor{}, errs.NewValueIsRequiredError(HeaderActorRole)
	}
	role, err := kernel.RoleFromString(rawRole)
	if err != nil {
		return kernel.Actor{}, err
	}

	return kernel.NewActor(id, role)
}

// orderIDParam binds the {id} path parameter the same way generated
// oapi-codegen servers do.
func orderIDParam(c echo.Context) (kernel.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}
	return kernel.UUIDFromGoogle(id)
}

// orderRequest resolves the order id and the actor shared by every order route.
func orderRequest(c echo.Context) (kernel.UUID, kernel.Actor, error) {
	orderID, err := orderIDParam(c)
	if err != nil {
		return kernel.UUID{}, kernel.Actor{}, err
	}
	actor, err := actorFromRequest(c)
	if err != nil {
		return kernel.UUID{}, kernel.Actor{}, err
	}
	return orderID, actor, nil
}

// bindBody checks the raw body against the named component schema of the
// API document, then binds and validates it into dst.
func (s *Server) bindBody(c echo.Context, schema string, dst any) error {
	req := c.Request()
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	if err := s.api.ValidateBody(schema, raw); err != nil {
		return err
	}

	req.Body = io.NopCloser(bytes.NewReader(raw))
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}
