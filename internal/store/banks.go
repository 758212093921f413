package store

import (
	"context"
	"time"
)

// Bank is one mirrored entry of the Bank's institution list.
type Bank struct {
	ID              string
	InstitutionName string
	UpdatedAt       time.Time
}

// ReplaceBanks swaps the mirrored institution list wholesale. The Bank
// returns the full list on every fetch, so a delete-and-insert inside one
// transaction keeps the mirror consistent.
func (s *Store) ReplaceBanks(ctx context.Context, banks []Bank) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM boa_banks`); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, b := range banks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO boa_banks (bank_id, institution_name, updated_at) VALUES (?, ?, ?)`,
			b.ID, b.InstitutionName, now,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListBanks returns the mirrored institution list ordered by name.
func (s *Store) ListBanks(ctx context.Context) ([]Bank, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bank_id, institution_name, updated_at FROM boa_banks ORDER BY institution_name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var banks []Bank
	for rows.Next() {
		var b Bank
		if err := rows.Scan(&b.ID, &b.InstitutionName, &b.UpdatedAt); err != nil {
			return nil, err
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}
