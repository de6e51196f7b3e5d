// Package subscriber materializes subscriber aggregates in the BRT
// database and reads them back for verification.
package subscriber

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultNamePrefix is used when a spec does not name its own prefix.
const DefaultNamePrefix = "test"

// Spec describes the desired state of one subscriber. The display name is
// derived from NamePrefix plus the account id once that id exists.
type Spec struct {
	Msisdn         string
	Balance        decimal.Decimal
	TariffID       int64
	IsRestricted   bool
	Description    *string
	NamePrefix     string
	QuotaType      int
	QuotaRemaining int64
}

func (s Spec) withDefaults() Spec {
	if s.NamePrefix == "" {
		s.NamePrefix = DefaultNamePrefix
	}
	return s
}

// Account mirrors the person table.
type Account struct {
	ID             int64           `json:"id"`
	Msisdn         string          `json:"msisdn"`
	Balance        decimal.Decimal `json:"balance"`
	IsRestricted   bool            `json:"is_restricted"`
	RegisteredAt   time.Time       `json:"registered_at"`
	Description    *string         `json:"description,omitempty"`
	ActiveTariffID int64           `json:"active_tariff_id"`
	Name           string          `json:"name"`
}
