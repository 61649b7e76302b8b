package orders

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestValidatePayment(t *testing.T) {
	tests := []struct {
		name    string
		method  PaymentMethod
		details PaymentDetails
		wantErr bool
	}{
		{"cash without extras", PaymentCash, PaymentDetails{}, false},
		{"cash with received and change", PaymentCash, PaymentDetails{CashReceived: decp("20"), ChangeGiven: decp("7")}, false},
		{"card", PaymentCard, PaymentDetails{}, false},
		{"split with both portions", PaymentSplit, PaymentDetails{CashAmount: decp("4"), CardAmount: decp("6")}, false},
		{"split missing card portion", PaymentSplit, PaymentDetails{CashAmount: decp("4")}, true},
		{"split missing both portions", PaymentSplit, PaymentDetails{}, true},
		{"split negative portion", PaymentSplit, PaymentDetails{CashAmount: decp("-1"), CardAmount: decp("11")}, true},
		{"unknown method", PaymentMethod("BITCOIN"), PaymentDetails{}, true},
		{"empty method", PaymentMethod(""), PaymentDetails{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayment(tt.method, tt.details)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePayment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPayment) {
				t.Errorf("error should wrap ErrInvalidPayment, got %v", err)
			}
		})
	}
}
