package types

import (
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/samber/lo"
)

// CreditType identifies how a usage credit was funded.
type CreditType string

const (
	// CreditTypePayment is credit purchased by the customer.
	CreditTypePayment CreditType = "payment"
	// CreditTypePromotional is credit granted without payment.
	CreditTypePromotional CreditType = "promotional"
)

func (t CreditType) String() string {
	return string(t)
}

func (t CreditType) Validate() error {
	allowed := []CreditType{CreditTypePayment, CreditTypePromotional}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid credit type").
			WithHint("Invalid credit type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"type":    t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
