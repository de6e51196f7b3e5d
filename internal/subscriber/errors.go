package subscriber

import (
	"errors"
	"fmt"
)

// ErrSessionUnavailable means the transactional session is missing or was
// already finished before reconciliation started.
var ErrSessionUnavailable = errors.New("database session is missing or closed")

// ErrNotFound is returned by the read path when no matching row exists.
var ErrNotFound = errors.New("subscriber not found")

// RecordCreationError reports an insert that did not return a generated id.
// The whole batch is rolled back when it occurs.
type RecordCreationError struct {
	Table  string
	Msisdn string
}

func (e *RecordCreationError) Error() string {
	return fmt.Sprintf("insert into %s for subscriber %s returned no id", e.Table, e.Msisdn)
}

// StaleAccountError reports an account update that affected zero rows: the
// row resolved by the membership lookup vanished mid-transaction.
type StaleAccountError struct {
	Msisdn    string
	AccountID int64
}

func (e *StaleAccountError) Error() string {
	return fmt.Sprintf("account %d for subscriber %s disappeared during reconciliation", e.AccountID, e.Msisdn)
}
