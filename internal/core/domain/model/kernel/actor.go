package kernel

import (
	"errors"
	"fmt"
	"strings"

	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/guard"

	"github.com/google/uuid"
)

// Role is the capacity in which an actor performs an action.
// The auth collaborator supplies it; the engine only checks party membership.
type Role int

const (
	// RoleUnknown is the invalid zero value.
	RoleUnknown Role = iota
	// RoleBuyer is the contractor who placed the order.
	RoleBuyer
	// RoleSupplier is the material supplier fulfilling the order.
	RoleSupplier
	// RoleOperator is platform staff handling disputes and overrides.
	RoleOperator
	// RoleSystem is the engine itself (scheduled jobs).
	RoleSystem
)

var roleStrings = map[Role]string{
	RoleUnknown:  "unknown",
	RoleBuyer:    "buyer",
	RoleSupplier: "supplier",
	RoleOperator: "operator",
	RoleSystem:   "system",
}

// systemActorID identifies actions taken by scheduled jobs.
var systemActorID = UUID{id: uuid.MustParse("00000000-0000-0000-0000-00000000a11c")}

// ErrActorIsNotConstructed is returned when a zero-value Actor is used.
var ErrActorIsNotConstructed = errs.NewValueIsRequiredError("actor must be created via NewActor or SystemActor")

// String returns the lowercase role name used on the wire.
func (r Role) String() string {
	if s, ok := roleStrings[r]; ok {
		return s
	}
	return "unknown"
}

// Validate rejects RoleUnknown and out-of-range values.
func (r Role) Validate() error {
	if r <= RoleUnknown || r > RoleSystem {
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%d is not a valid role", r))
	}
	return nil
}

// RoleFromString parses a role name case-insensitively.
func RoleFromString(s string) (Role, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for r, name := range roleStrings {
		if r != RoleUnknown && name == needle {
			return r, nil
		}
	}
	return RoleUnknown, errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a valid role", s))
}

// Actor is the authenticated principal behind a command.
type Actor struct { //nolint:recvcheck //using for validation
	id    UUID
	role  Role
	guard guard.ConstructorGuard
}

// NewActor validates and builds an Actor.
func NewActor(id UUID, role Role) (Actor, error) {
	a := Actor{guard: guard.NewConstructorGuard()}

	if err := errors.Join(a.setID(id), a.setRole(role)); err != nil {
		return Actor{}, err
	}

	return a, nil
}

// SystemActor returns the actor used by scheduled jobs.
func SystemActor() Actor {
	return Actor{id: systemActorID, role: RoleSystem, guard: guard.NewConstructorGuard()}
}

// Validate returns ErrActorIsNotConstructed for the zero value.
func (a Actor) Validate() error {
	return a.guard.Validate(ErrActorIsNotConstructed)
}

func (a Actor) ID() UUID {
	return a.id
}

func (a Actor) Role() Role {
	return a.role
}

// Is reports whether the actor has the given role and identity.
func (a Actor) Is(role Role, id UUID) bool {
	return a.role == role && a.id.IsEqual(id)
}

// String renders "role:id", e.g. "buyer:550e8400-e29b-41d4-a716-446655440000".
func (a Actor) String() string {
	return a.role.String() + ":" + a.id.String()
}

func (a *Actor) setID(id UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	a.id = id
	return nil
}

func (a *Actor) setRole(role Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	a.role = role
	return nil
}
