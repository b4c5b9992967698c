package valueobject

import "fmt"

// SlotStatus is the reconciled state of one schedule period.
type SlotStatus struct {
	value string
}

var (
	SlotUnpaid         = SlotStatus{"Unpaid"}
	SlotPartial        = SlotStatus{"Partial"}
	SlotPaid           = SlotStatus{"Paid"}
	SlotAdvance        = SlotStatus{"Advance"}
	SlotAdvanceApplied = SlotStatus{"AdvanceApplied"}
)

var validSlotStatuses = map[string]SlotStatus{
	"Unpaid":         SlotUnpaid,
	"Partial":        SlotPartial,
	"Paid":           SlotPaid,
	"Advance":        SlotAdvance,
	"AdvanceApplied": SlotAdvanceApplied,
}

// NewSlotStatus parses the wire form of a slot status.
func NewSlotStatus(s string) (SlotStatus, error) {
	if v, ok := validSlotStatuses[s]; ok {
		return v, nil
	}
	return SlotStatus{}, fmt.Errorf("invalid slot status: %q", s)
}

func (s SlotStatus) String() string { return s.value }
func (s SlotStatus) IsZero() bool   { return s.value == "" }
