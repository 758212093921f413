package store

import (
	"context"
	"time"
)

// Rate is a mirrored exchange-rate quote. Rates are decimal strings,
// exactly as the Bank reported them.
type Rate struct {
	CurrencyCode string
	CurrencyName string
	BuyRate      string
	SellRate     string
	UpdatedAt    time.Time
}

// UpsertRate records the latest quote for a currency.
func (s *Store) UpsertRate(ctx context.Context, r Rate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO boa_currency_rates (currency_code, currency_name, buy_rate, sell_rate, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (currency_code) DO UPDATE SET
			currency_name = excluded.currency_name,
			buy_rate = excluded.buy_rate,
			sell_rate = excluded.sell_rate,
			updated_at = excluded.updated_at`,
		r.CurrencyCode, r.CurrencyName, r.BuyRate, r.SellRate, time.Now().UTC(),
	)
	return err
}

// GetRate returns the last-seen quote for a currency, or ErrNotFound.
func (s *Store) GetRate(ctx context.Context, currencyCode string) (*Rate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT currency_code, currency_name, buy_rate, sell_rate, updated_at
		FROM boa_currency_rates WHERE currency_code = ?`, currencyCode)

	var r Rate
	if err := row.Scan(&r.CurrencyCode, &r.CurrencyName, &r.BuyRate, &r.SellRate, &r.UpdatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &r, nil
}
