package cdr

import (
	"context"
	"database/sql"
	"fmt"
)

// Store reads the rated cdr_record rows the rating engine produces.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Recent returns the newest rated records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RatedRecord, error) {
	const query = `
		SELECT id, msisdn_one, msisdn_two, type, start_time, in_one_network, our_subscriber_id, lasts
		FROM cdr_record
		ORDER BY id DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list cdr records: %w", err)
	}
	defer rows.Close()

	var records []RatedRecord
	for rows.Next() {
		var rec RatedRecord
		var subscriberID sql.NullInt64
		if err := rows.Scan(
			&rec.ID,
			&rec.MsisdnOne,
			&rec.MsisdnTwo,
			&rec.Type,
			&rec.StartTime,
			&rec.InOneNetwork,
			&subscriberID,
			&rec.Lasts,
		); err != nil {
			return nil, fmt.Errorf("scan cdr record: %w", err)
		}
		if subscriberID.Valid {
			rec.OurSubscriberID = &subscriberID.Int64
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cdr records: %w", err)
	}

	return records, nil
}

// Clear wipes rated records and restarts the id sequence. Used to bring the
// table to a known state before a scenario runs.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cdr_record`); err != nil {
		return fmt.Errorf("clear cdr records: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `ALTER SEQUENCE cdr_record_id_seq RESTART WITH 1`); err != nil {
		return fmt.Errorf("restart cdr sequence: %w", err)
	}
	return nil
}
