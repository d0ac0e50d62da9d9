package order

import (
	"errors"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"
)

// Default thresholds applied when configuration does not override them.
const (
	DefaultPinThreshold              = "120.00"
	DefaultSiteVisitThreshold        = "350.00"
	DefaultMaxPinAttempts            = 3
	DefaultMinIssueDescriptionLength = 10
)

// Policy carries the configurable business thresholds of the lifecycle.
// It is loaded once at startup and shared read-only by all commands.
type Policy struct {
	pinThreshold              kernel.Money
	siteVisitThreshold        kernel.Money
	maxPinAttempts            int
	minIssueDescriptionLength int
	settlementWindow          time.Duration
}

// NewPolicy validates and builds a Policy.
//
// settlementWindow delays completion of photo deliveries acknowledged by the
// buyer: the order rests in Delivered until the window elapses. Zero disables it.
func NewPolicy(
	pinThreshold kernel.Money,
	siteVisitThreshold kernel.Money,
	maxPinAttempts int,
	minIssueDescriptionLength int,
	settlementWindow time.Duration,
) (Policy, error) {
	var errList []error
	if err := pinThreshold.Validate(); err != nil {
		errList = append(errList, err)
	}
	if err := siteVisitThreshold.Validate(); err != nil {
		errList = append(errList, err)
	}
	if maxPinAttempts < 1 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("maxPinAttempts", maxPinAttempts, 1, "unbounded"))
	}
	if minIssueDescriptionLength < 0 {
		errList = append(errList,
			errs.NewValueIsOutOfRangeError("minIssueDescriptionLength", minIssueDescriptionLength, 0, "unbounded"))
	}
	if settlementWindow < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("settlementWindow", settlementWindow, 0, "unbounded"))
	}
	if err := errors.Join(errList...); err != nil {
		return Policy{}, err
	}

	return Policy{
		pinThreshold:              pinThreshold,
		siteVisitThreshold:        siteVisitThreshold,
		maxPinAttempts:            maxPinAttempts,
		minIssueDescriptionLength: minIssueDescriptionLength,
		settlementWindow:          settlementWindow,
	}, nil
}

// DefaultPolicy returns the policy with built-in defaults and no settlement window.
func DefaultPolicy() Policy {
	pin, _ := kernel.MoneyFromString(DefaultPinThreshold)
	visit, _ := kernel.MoneyFromString(DefaultSiteVisitThreshold)
	return Policy{
		pinThreshold:              pin,
		siteVisitThreshold:        visit,
		maxPinAttempts:            DefaultMaxPinAttempts,
		minIssueDescriptionLength: DefaultMinIssueDescriptionLength,
	}
}

func (p Policy) PinThreshold() kernel.Money {
	return p.pinThreshold
}

func (p Policy) SiteVisitThreshold() kernel.Money {
	return p.siteVisitThreshold
}

func (p Policy) MaxPinAttempts() int {
	return p.maxPinAttempts
}

func (p Policy) MinIssueDescriptionLength() int {
	return p.minIssueDescriptionLength
}

func (p Policy) SettlementWindow() time.Duration {
	return p.settlementWindow
}

// MethodFor returns MethodPin when total >= the PIN threshold, MethodPhoto otherwise.
func (p Policy) MethodFor(total kernel.Money) Method {
	if total.GreaterThanOrEqual(p.pinThreshold) {
		return MethodPin
	}
	return MethodPhoto
}

// RequiresSiteVisit reports whether a dispute on an order of this total needs an inspection.
func (p Policy) RequiresSiteVisit(total kernel.Money) bool {
	return total.GreaterThanOrEqual(p.siteVisitThreshold)
}
