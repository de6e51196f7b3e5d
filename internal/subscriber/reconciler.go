package subscriber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lib/pq"
)

// Session is the transactional storage session a reconciliation runs in.
// The caller owns it; the reconciler only uses it and decides commit vs.
// rollback.
type Session interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Commit() error
	Rollback() error
	Closed() bool
}

// Reconciler brings stored subscriber state in line with a batch of specs.
// Each call is all-or-nothing: either every spec in the batch is applied
// and committed, or the transaction is rolled back and the mapping is empty.
type Reconciler struct {
	log *slog.Logger
}

func NewReconciler(log *slog.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// Reconcile creates or updates every subscriber in the batch, always
// appending a fresh tariff period and upserting the quota balance, and
// returns the msisdn to account id mapping. On any failure the transaction
// is rolled back and the mapping is empty.
func (r *Reconciler) Reconcile(ctx context.Context, session Session, batch []Spec) (map[string]int64, error) {
	if session == nil || session.Closed() {
		return nil, ErrSessionUnavailable
	}

	existing, err := r.resolveExisting(ctx, session, batch)
	if err != nil {
		return nil, r.abort(session, fmt.Errorf("resolve existing subscribers: %w", err))
	}

	// One shared instant for the whole batch.
	now := time.Now()

	result := make(map[string]int64, len(batch))
	for _, spec := range batch {
		spec = spec.withDefaults()

		accountID, err := r.apply(ctx, session, spec, existing, now)
		if err != nil {
			return nil, r.abort(session, err)
		}
		result[spec.Msisdn] = accountID
	}

	if err := session.Commit(); err != nil {
		return nil, fmt.Errorf("commit reconciliation: %w", err)
	}

	r.log.Info("subscriber batch reconciled", "subscribers", len(result))
	return result, nil
}

// resolveExisting issues the single bulk membership lookup for the batch.
func (r *Reconciler) resolveExisting(ctx context.Context, session Session, batch []Spec) (map[string]int64, error) {
	existing := make(map[string]int64, len(batch))
	if len(batch) == 0 {
		return existing, nil
	}

	msisdns := make([]string, 0, len(batch))
	for _, spec := range batch {
		msisdns = append(msisdns, spec.Msisdn)
	}

	rows, err := session.QueryContext(ctx,
		`SELECT id, msisdn FROM person WHERE msisdn = ANY($1)`,
		pq.Array(msisdns),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var msisdn string
		if err := rows.Scan(&id, &msisdn); err != nil {
			return nil, err
		}
		existing[msisdn] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(existing) > 0 {
		r.log.Debug("existing subscribers found", "count", len(existing))
	}
	return existing, nil
}

// apply stages the three writes for one spec: tariff period, account,
// quota balance.
func (r *Reconciler) apply(ctx context.Context, session Session, spec Spec, existing map[string]int64, now time.Time) (int64, error) {
	tariffPeriodID, err := r.insertTariffPeriod(ctx, session, spec, now)
	if err != nil {
		return 0, err
	}

	accountID, known := existing[spec.Msisdn]
	if known {
		if err := r.updateAccount(ctx, session, spec, accountID, tariffPeriodID); err != nil {
			return 0, err
		}
		r.log.Info("subscriber updated", "msisdn", spec.Msisdn, "account_id", accountID)
	} else {
		accountID, err = r.insertAccount(ctx, session, spec, tariffPeriodID, now)
		if err != nil {
			return 0, err
		}
		r.log.Info("subscriber created", "msisdn", spec.Msisdn, "account_id", accountID)
	}

	if err := r.upsertQuota(ctx, session, spec, accountID); err != nil {
		return 0, err
	}

	return accountID, nil
}

// insertTariffPeriod appends a tariff period row. This happens on every
// reconciliation, new or existing, so plan assignments keep a full history.
func (r *Reconciler) insertTariffPeriod(ctx context.Context, session Session, spec Spec, now time.Time) (int64, error) {
	var id int64
	err := session.QueryRowContext(ctx,
		`INSERT INTO person_tariff (t_id, start_date) VALUES ($1, $2) RETURNING id`,
		spec.TariffID, now,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &RecordCreationError{Table: "person_tariff", Msisdn: spec.Msisdn}
	}
	if err != nil {
		return 0, fmt.Errorf("insert tariff period for %s: %w", spec.Msisdn, err)
	}
	return id, nil
}

// updateAccount overwrites the mutable account fields and repoints the
// active tariff period. Zero affected rows means the row vanished under us
// and aborts the batch.
func (r *Reconciler) updateAccount(ctx context.Context, session Session, spec Spec, accountID, tariffPeriodID int64) error {
	name := spec.NamePrefix + strconv.FormatInt(accountID, 10)

	res, err := session.ExecContext(ctx,
		`UPDATE person
		 SET money = $1, is_restricted = $2, description = $3, tariff_id = $4, name = $5
		 WHERE id = $6`,
		spec.Balance, spec.IsRestricted, spec.Description, tariffPeriodID, name, accountID,
	)
	if err != nil {
		return fmt.Errorf("update account for %s: %w", spec.Msisdn, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account for %s: %w", spec.Msisdn, err)
	}
	if affected == 0 {
		return &StaleAccountError{Msisdn: spec.Msisdn, AccountID: accountID}
	}
	return nil
}

// insertAccount creates the account and then patches in the display name:
// the name embeds the generated id, which does not exist before the insert.
func (r *Reconciler) insertAccount(ctx context.Context, session Session, spec Spec, tariffPeriodID int64, now time.Time) (int64, error) {
	var id int64
	err := session.QueryRowContext(ctx,
		`INSERT INTO person (msisdn, money, is_restricted, reg_data, description, tariff_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		spec.Msisdn, spec.Balance, spec.IsRestricted, now, spec.Description, tariffPeriodID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &RecordCreationError{Table: "person", Msisdn: spec.Msisdn}
	}
	if err != nil {
		return 0, fmt.Errorf("insert account for %s: %w", spec.Msisdn, err)
	}

	name := spec.NamePrefix + strconv.FormatInt(id, 10)
	res, err := session.ExecContext(ctx,
		`UPDATE person SET name = $1 WHERE id = $2`,
		name, id,
	)
	if err != nil {
		return 0, fmt.Errorf("set account name for %s: %w", spec.Msisdn, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("set account name for %s: %w", spec.Msisdn, err)
	}
	if affected == 0 {
		return 0, &StaleAccountError{Msisdn: spec.Msisdn, AccountID: id}
	}
	return id, nil
}

// upsertQuota updates the (account, service type) quota row, inserting it
// when the update touches nothing. Update-before-insert keeps the pair
// unique without relying on a constraint.
func (r *Reconciler) upsertQuota(ctx context.Context, session Session, spec Spec, accountID int64) error {
	res, err := session.ExecContext(ctx,
		`UPDATE quant_services SET amount_left = $1 WHERE p_id = $2 AND s_type_id = $3`,
		spec.QuotaRemaining, accountID, spec.QuotaType,
	)
	if err != nil {
		return fmt.Errorf("update quota for %s: %w", spec.Msisdn, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update quota for %s: %w", spec.Msisdn, err)
	}
	if affected > 0 {
		return nil
	}

	var id int64
	err = session.QueryRowContext(ctx,
		`INSERT INTO quant_services (p_id, s_type_id, amount_left) VALUES ($1, $2, $3) RETURNING id`,
		accountID, spec.QuotaType, spec.QuotaRemaining,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return &RecordCreationError{Table: "quant_services", Msisdn: spec.Msisdn}
	}
	if err != nil {
		return fmt.Errorf("insert quota for %s: %w", spec.Msisdn, err)
	}
	return nil
}

// abort rolls the transaction back and passes the original error through.
func (r *Reconciler) abort(session Session, err error) error {
	if rollbackErr := session.Rollback(); rollbackErr != nil {
		r.log.Error("rollback failed", "error", rollbackErr)
	}
	r.log.Error("subscriber batch aborted", "error", err)
	return err
}
