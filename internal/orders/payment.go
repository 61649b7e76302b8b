package orders

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the wire-level enum. Values are the Spanish terms the
// tills use; anything else is an input error.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "EFECTIVO"
	PaymentCard  PaymentMethod = "TARJETA"
	PaymentSplit PaymentMethod = "MIXTO"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentSplit:
		return true
	}
	return false
}

// PaymentDetails carries the method-specific fields. Cash orders may record
// what the customer handed over and the change given back; split orders must
// carry both portions. Change and portions are stored as supplied by the
// till, not recomputed here.
type PaymentDetails struct {
	CashReceived *decimal.Decimal `json:"cash_received,omitempty"`
	ChangeGiven  *decimal.Decimal `json:"change_given,omitempty"`
	CashAmount   *decimal.Decimal `json:"cash_amount,omitempty"`
	CardAmount   *decimal.Decimal `json:"card_amount,omitempty"`
}

func ValidatePayment(m PaymentMethod, d PaymentDetails) error {
	if !m.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidPayment, string(m))
	}
	if m == PaymentSplit {
		if d.CashAmount == nil || d.CardAmount == nil {
			return fmt.Errorf("%w: MIXTO requires cash_amount and card_amount", ErrInvalidPayment)
		}
		if d.CashAmount.IsNegative() || d.CardAmount.IsNegative() {
			return fmt.Errorf("%w: split portions must not be negative", ErrInvalidPayment)
		}
	}
	return nil
}
