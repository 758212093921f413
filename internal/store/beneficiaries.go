package store

import (
	"context"
	"time"
)

// Inquiry types distinguishing same-bank from cross-bank lookups.
const (
	InquiryTypeBOA       = "boa"
	InquiryTypeOtherBank = "other_bank"
)

// BeneficiaryTTL bounds how long a cached inquiry answers repeat lookups.
const BeneficiaryTTL = 24 * time.Hour

// CachedBeneficiary is a cached account-holder inquiry result.
type CachedBeneficiary struct {
	InquiryType     string
	BankID          string
	AccountID       string
	CustomerName    string
	AccountCurrency string
	EnquiryStatus   string
	ExpiresAt       time.Time
}

// PutBeneficiary caches an inquiry result for BeneficiaryTTL, replacing any
// previous entry for the same account.
func (s *Store) PutBeneficiary(ctx context.Context, b CachedBeneficiary) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO boa_beneficiary_inquiries
			(inquiry_type, bank_id, account_id, customer_name, account_currency, enquiry_status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (inquiry_type, bank_id, account_id) DO UPDATE SET
			customer_name = excluded.customer_name,
			account_currency = excluded.account_currency,
			enquiry_status = excluded.enquiry_status,
			expires_at = excluded.expires_at`,
		b.InquiryType, b.BankID, b.AccountID, b.CustomerName, b.AccountCurrency, b.EnquiryStatus,
		now.Add(BeneficiaryTTL), now,
	)
	return err
}

// GetBeneficiary returns an unexpired cached inquiry, or ErrNotFound.
func (s *Store) GetBeneficiary(ctx context.Context, inquiryType, bankID, accountID string) (*CachedBeneficiary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT inquiry_type, bank_id, account_id, customer_name, account_currency, enquiry_status, expires_at
		FROM boa_beneficiary_inquiries
		WHERE inquiry_type = ? AND bank_id = ? AND account_id = ? AND expires_at > ?`,
		inquiryType, bankID, accountID, time.Now().UTC(),
	)

	var b CachedBeneficiary
	err := row.Scan(&b.InquiryType, &b.BankID, &b.AccountID, &b.CustomerName, &b.AccountCurrency, &b.EnquiryStatus, &b.ExpiresAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &b, nil
}

// DeleteExpiredBeneficiaries removes inquiries past their TTL.
func (s *Store) DeleteExpiredBeneficiaries(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM boa_beneficiary_inquiries WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
