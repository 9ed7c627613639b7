package workflow

import (
	"github.com/shopspring/decimal"
)

// CreditDelta is the balance effect of approving a project at newHours when
// its previous approved total was prevApproved. Approved hours are absolute,
// so a re-approval credits (or claws back) only the difference; approving 5
// then re-approving 8 credits 3 * perHour, never 8 or 13.
func CreditDelta(prevApproved decimal.Decimal, newHours decimal.Decimal, perHour decimal.Decimal) decimal.Decimal {
	return newHours.Sub(prevApproved).Mul(perHour)
}
