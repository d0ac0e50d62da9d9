// Package audit records administrative overrides of the lifecycle rules.
package audit

import (
	"errors"
	"strings"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"
)

// ErrEntryIsNotConstructed is returned when an Entry was not created through NewEntry.
var ErrEntryIsNotConstructed = errors.New("Entry must be created via NewEntry constructor")

// Kind names the override that was performed.
type Kind string

const (
	KindPinUnlock           Kind = "pin_unlock"
	KindDisputeForceResolve Kind = "dispute_force_resolve"
)

func (k Kind) Validate() error {
	switch k {
	case KindPinUnlock, KindDisputeForceResolve:
		return nil
	default:
		return errs.NewValueIsInvalidError("audit kind")
	}
}

// Entry is an append-only record of an operator override.
type Entry struct {
	id            kernel.UUID
	orderID       kernel.UUID
	kind          Kind
	operatorID    kernel.UUID
	justification string
	recordedAt    time.Time

	isConstructed bool
}

// NewEntry builds an audit entry. The operator must state a justification.
func NewEntry(
	id kernel.UUID,
	orderID kernel.UUID,
	kind Kind,
	operator kernel.Actor,
	justification string,
	now time.Time,
) (*Entry, error) {
	justification = strings.TrimSpace(justification)

	var errList []error
	errList = append(errList, id.Validate(), orderID.Validate(), kind.Validate(), operator.Validate())
	if operator.Validate() == nil && operator.Role() != kernel.RoleOperator {
		errList = append(errList, errs.NewActorNotPermittedError(operator.ID().String(), operator.Role().String(), string(kind)))
	}
	if justification == "" {
		errList = append(errList, errs.NewValueIsRequiredError("justification"))
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	return &Entry{
		id:            id,
		orderID:       orderID,
		kind:          kind,
		operatorID:    operator.ID(),
		justification: justification,
		recordedAt:    now,
		isConstructed: true,
	}, nil
}

func (e *Entry) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrEntryIsNotConstructed
	}
	return nil
}

func (e *Entry) ID() kernel.UUID {
	return e.id
}

func (e *Entry) OrderID() kernel.UUID {
	return e.orderID
}

func (e *Entry) Kind() Kind {
	return e.kind
}

func (e *Entry) OperatorID() kernel.UUID {
	return e.operatorID
}

func (e *Entry) Justification() string {
	return e.justification
}

func (e *Entry) RecordedAt() time.Time {
	return e.recordedAt
}
