package subscriber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Checker reads subscriber state back after the rating engine has run.
type Checker struct {
	db *sql.DB
}

func NewChecker(db *sql.DB) *Checker {
	return &Checker{db: db}
}

// Balance returns the current money balance for an msisdn.
func (c *Checker) Balance(ctx context.Context, msisdn string) (decimal.Decimal, error) {
	const query = `SELECT money FROM person WHERE msisdn = $1`

	var balance decimal.Decimal
	err := c.db.QueryRowContext(ctx, query, msisdn).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Decimal{}, ErrNotFound
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("select balance for %s: %w", msisdn, err)
	}
	return balance, nil
}

// Account returns the full person row for an msisdn.
func (c *Checker) Account(ctx context.Context, msisdn string) (Account, error) {
	const query = `
		SELECT id, msisdn, money, is_restricted, reg_data, description, tariff_id, name
		FROM person
		WHERE msisdn = $1`

	var account Account
	var registered sql.NullTime
	var description sql.NullString
	var tariffID sql.NullInt64
	var name sql.NullString

	err := c.db.QueryRowContext(ctx, query, msisdn).Scan(
		&account.ID,
		&account.Msisdn,
		&account.Balance,
		&account.IsRestricted,
		&registered,
		&description,
		&tariffID,
		&name,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("select account for %s: %w", msisdn, err)
	}

	if registered.Valid {
		account.RegisteredAt = registered.Time
	}
	if description.Valid {
		account.Description = &description.String
	}
	account.ActiveTariffID = tariffID.Int64
	account.Name = name.String
	return account, nil
}

// QuotaBalance returns the remaining allowance for an account and service type.
func (c *Checker) QuotaBalance(ctx context.Context, accountID int64, serviceType int) (int64, error) {
	const query = `SELECT amount_left FROM quant_services WHERE p_id = $1 AND s_type_id = $2`

	var remaining int64
	err := c.db.QueryRowContext(ctx, query, accountID, serviceType).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("select quota for account %d: %w", accountID, err)
	}
	return remaining, nil
}

// QuotaBalanceByMsisdn resolves the account through the msisdn first.
func (c *Checker) QuotaBalanceByMsisdn(ctx context.Context, msisdn string, serviceType int) (int64, error) {
	const query = `
		SELECT qs.amount_left
		FROM quant_services qs
		JOIN person p ON p.id = qs.p_id
		WHERE p.msisdn = $1 AND qs.s_type_id = $2`

	var remaining int64
	err := c.db.QueryRowContext(ctx, query, msisdn, serviceType).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("select quota for %s: %w", msisdn, err)
	}
	return remaining, nil
}
