package order

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"marketplace/internal/pkg/errs"
)

// PinLength is the number of digits in a delivery PIN.
const PinLength = 4

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// Method is the delivery confirmation method, derived once at confirmation.
type Method int

const (
	// MethodUnknown is the invalid zero value and the method of unconfirmed orders.
	MethodUnknown Method = iota
	// MethodPin requires the supplier to relay the buyer's 4-digit PIN.
	MethodPin
	// MethodPhoto requires photo evidence plus the buyer's acknowledgment.
	MethodPhoto
)

func getMethodStrings() map[Method]string {
	return map[Method]string{
		MethodUnknown: "",
		MethodPin:     "pin",
		MethodPhoto:   "photo",
	}
}

// String returns "pin", "photo", or "" for MethodUnknown.
func (m Method) String() string {
	return getMethodStrings()[m]
}

// MethodFromString parses the persisted representation. The empty string maps to MethodUnknown.
func MethodFromString(s string) (Method, error) {
	for method, str := range getMethodStrings() {
		if str == s {
			return method, nil
		}
	}
	return MethodUnknown, errs.NewValueIsInvalidErrorWithCause("delivery method", fmt.Errorf("%q is not a valid method", s))
}

// PinGenerator produces fresh delivery PINs.
type PinGenerator interface {
	Generate() (string, error)
}

// RandomPinGenerator draws PINs from crypto/rand.
type RandomPinGenerator struct{}

// Generate returns a uniformly distributed zero-padded 4-digit PIN.
func (RandomPinGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10_000))
	if err != nil {
		return "", fmt.Errorf("generate pin: %w", err)
	}
	return fmt.Sprintf("%0*d", PinLength, n.Int64()), nil
}

// Delivery is the confirmation entity embedded in the Order aggregate.
//
// A delivery is confirmed by exactly one successful event of its own method:
//   - pin: a constant-time PIN match before the attempts run out
//   - photo: an evidence reference, followed by the buyer's acknowledgment on the order
//
// When the PIN attempts run out the delivery locks. Only Unlock clears the lock;
// lockout itself never moves the order or the escrow.
type Delivery struct {
	method            Method
	pin               string
	attemptsRemaining int
	maxAttempts       int
	locked            bool
	verifiedAt        *time.Time
	evidenceRef       string
	uploadedAt        *time.Time
	unlockCount       int
}

// DeliverySnapshot is the persisted form of a Delivery.
type DeliverySnapshot struct {
	Method            Method
	Pin               string
	AttemptsRemaining int
	MaxAttempts       int
	Locked            bool
	VerifiedAt        *time.Time
	EvidenceRef       string
	UploadedAt        *time.Time
	UnlockCount       int
}

// NewPinDelivery creates a PIN-method delivery with a full attempt budget.
func NewPinDelivery(pin string, maxAttempts int) (Delivery, error) {
	if !pinPattern.MatchString(pin) {
		return Delivery{}, errs.NewValueIsInvalidErrorWithCause("pin", fmt.Errorf("must be %d digits", PinLength))
	}
	if maxAttempts < 1 {
		return Delivery{}, errs.NewValueIsOutOfRangeError("maxAttempts", maxAttempts, 1, "unbounded")
	}
	return Delivery{
		method:            MethodPin,
		pin:               pin,
		attemptsRemaining: maxAttempts,
		maxAttempts:       maxAttempts,
	}, nil
}

// NewPhotoDelivery creates a photo-method delivery.
func NewPhotoDelivery() Delivery {
	return Delivery{method: MethodPhoto}
}

// RestoreDelivery rebuilds a Delivery from storage without re-running business rules.
func RestoreDelivery(s DeliverySnapshot) Delivery {
	return Delivery{
		method:            s.Method,
		pin:               s.Pin,
		attemptsRemaining: s.AttemptsRemaining,
		maxAttempts:       s.MaxAttempts,
		locked:            s.Locked,
		verifiedAt:        s.VerifiedAt,
		evidenceRef:       s.EvidenceRef,
		uploadedAt:        s.UploadedAt,
		unlockCount:       s.UnlockCount,
	}
}

// Snapshot returns the persisted form of the delivery.
func (d Delivery) Snapshot() DeliverySnapshot {
	return DeliverySnapshot{
		Method:            d.method,
		Pin:               d.pin,
		AttemptsRemaining: d.attemptsRemaining,
		MaxAttempts:       d.maxAttempts,
		Locked:            d.locked,
		VerifiedAt:        d.verifiedAt,
		EvidenceRef:       d.evidenceRef,
		UploadedAt:        d.uploadedAt,
		UnlockCount:       d.unlockCount,
	}
}

func (d Delivery) Method() Method {
	return d.method
}

// Pin returns the PIN. Only the buyer read path may expose it.
func (d Delivery) Pin() string {
	return d.pin
}

func (d Delivery) AttemptsRemaining() int {
	return d.attemptsRemaining
}

func (d Delivery) MaxAttempts() int {
	return d.maxAttempts
}

func (d Delivery) IsLocked() bool {
	return d.locked
}

func (d Delivery) IsVerified() bool {
	return d.verifiedAt != nil
}

func (d Delivery) VerifiedAt() *time.Time {
	return d.verifiedAt
}

func (d Delivery) EvidenceRef() string {
	return d.evidenceRef
}

// HasEvidence reports whether photo evidence was uploaded.
func (d Delivery) HasEvidence() bool {
	return d.evidenceRef != ""
}

func (d Delivery) UploadedAt() *time.Time {
	return d.uploadedAt
}

func (d Delivery) UnlockCount() int {
	return d.unlockCount
}

// verifyPin checks input against the stored PIN.
//
// Returns:
//   - nil on a match; the delivery is marked verified
//   - ValueIsInvalidError if input is not exactly 4 digits (no attempt consumed)
//   - PinAttemptsExhaustedError if the delivery is already locked (no attempt consumed)
//   - PinMismatchError while attempts remain after a wrong PIN
//   - PinAttemptsExhaustedError on the wrong PIN that uses the last attempt; the delivery locks
func (d *Delivery) verifyPin(input string, now time.Time) error {
	if d.method != MethodPin {
		return errs.NewValueIsInvalidErrorWithCause("pin", fmt.Errorf("delivery method is %q", d.method))
	}
	if !pinPattern.MatchString(input) {
		return errs.NewValueIsInvalidErrorWithCause("pin", fmt.Errorf("must be %d digits", PinLength))
	}
	if d.locked {
		return errs.NewPinAttemptsExhaustedError(d.maxAttempts)
	}

	if subtle.ConstantTimeCompare([]byte(input), []byte(d.pin)) == 1 {
		d.verifiedAt = &now
		return nil
	}

	d.attemptsRemaining--
	if d.attemptsRemaining <= 0 {
		d.attemptsRemaining = 0
		d.locked = true
		return errs.NewPinAttemptsExhaustedError(d.maxAttempts)
	}
	return errs.NewPinMismatchError(d.attemptsRemaining)
}

// attachEvidence records the photo reference for a photo-method delivery.
func (d *Delivery) attachEvidence(ref string, now time.Time) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return errs.NewValueIsRequiredError("evidence reference")
	}
	d.evidenceRef = ref
	d.uploadedAt = &now
	return nil
}

// unlock restores the attempt budget of a locked PIN delivery.
func (d *Delivery) unlock() error {
	if d.method != MethodPin || !d.locked {
		return errs.NewValueIsInvalidErrorWithCause("delivery", errors.New("delivery is not locked"))
	}
	d.locked = false
	d.attemptsRemaining = d.maxAttempts
	d.unlockCount++
	return nil
}
