// Package utils holds small numeric helpers shared across packages.
package utils

import "github.com/shopspring/decimal"

// SafeDiv divides a by b, returning zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}
