package valueobject

import (
	"fmt"
	"strings"
)

// PaymentStatus is the settlement lifecycle of a recorded payment.
// Cash payments are born COMPLETED; electronic ones start PENDING.
type PaymentStatus struct {
	value string
}

var (
	PaymentStatusPending   = PaymentStatus{"PENDING"}
	PaymentStatusCompleted = PaymentStatus{"COMPLETED"}
	PaymentStatusCancelled = PaymentStatus{"CANCELLED"}
)

var validPaymentStatuses = map[string]PaymentStatus{
	"PENDING":   PaymentStatusPending,
	"COMPLETED": PaymentStatusCompleted,
	"CANCELLED": PaymentStatusCancelled,
}

// NewPaymentStatus validates and creates a PaymentStatus from a string.
func NewPaymentStatus(s string) (PaymentStatus, error) {
	if status, ok := validPaymentStatuses[s]; ok {
		return status, nil
	}
	return PaymentStatus{}, fmt.Errorf("invalid payment status: %q", s)
}

func (s PaymentStatus) String() string { return s.value }
func (s PaymentStatus) IsZero() bool   { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s PaymentStatus) Equal(other PaymentStatus) bool { return s.value == other.value }

// IsTerminal returns true for COMPLETED and CANCELLED.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusCancelled
}

// CountsTowardBalance is true for every status except CANCELLED: pending
// electronic payments reserve part of the remaining balance.
func (s PaymentStatus) CountsTowardBalance() bool {
	return s == PaymentStatusPending || s == PaymentStatusCompleted
}

// IsSettled is true only for COMPLETED payments.
func (s PaymentStatus) IsSettled() bool { return s == PaymentStatusCompleted }

// ---------------------------------------------------------------------------

// PaymentModality is how a payment settles: cash immediately, electronic
// through the checkout gateway callback.
type PaymentModality struct {
	value string
}

var (
	ModalityCash       = PaymentModality{"CASH"}
	ModalityElectronic = PaymentModality{"ECASH"}
)

// NewPaymentModality accepts "CASH" or "ECASH" in any letter case.
func NewPaymentModality(s string) (PaymentModality, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CASH":
		return ModalityCash, nil
	case "ECASH", "E-CASH", "ELECTRONIC":
		return ModalityElectronic, nil
	default:
		return PaymentModality{}, fmt.Errorf("invalid payment modality: %q", s)
	}
}

func (m PaymentModality) String() string { return m.value }
func (m PaymentModality) IsZero() bool   { return m.value == "" }

// SettlesImmediately is true for cash.
func (m PaymentModality) SettlesImmediately() bool { return m == ModalityCash }
