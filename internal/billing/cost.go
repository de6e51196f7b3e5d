package billing

import "github.com/shopspring/decimal"

// CallCost is the money debited for a call billed entirely per minute.
func CallCost(minutes int64, perMinute decimal.Decimal) decimal.Decimal {
	return perMinute.Mul(decimal.NewFromInt(minutes))
}

// SplitPackage divides billed minutes between the subscriber's remaining
// package allowance and the minutes charged against the money balance.
func SplitPackage(billedMinutes, packageLeft int64) (fromPackage, chargeable int64) {
	if packageLeft < 0 {
		packageLeft = 0
	}

	fromPackage = billedMinutes
	if packageLeft < fromPackage {
		fromPackage = packageLeft
	}
	return fromPackage, billedMinutes - fromPackage
}
