// Package remit orchestrates Bank operations for the gateway: cache-first
// beneficiary lookups, transfer initiation, and mirror maintenance for the
// institution list and currency rates. Transient failures on idempotent
// reads are retried per the classifier's policy; transfers are never
// retried automatically, since a timed-out transfer may still have been
// executed by the Bank.
package remit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hakimremit/boagate/internal/boa"
	"github.com/hakimremit/boagate/internal/store"
)

// BankAPI is the Bank client surface the service depends on.
// *boa.Client satisfies it; tests substitute a fake.
type BankAPI interface {
	FetchBeneficiary(ctx context.Context, accountID string) (*boa.Beneficiary, error)
	FetchBeneficiaryOtherBank(ctx context.Context, bankID, accountID string) (*boa.Beneficiary, error)
	TransferWithin(ctx context.Context, req boa.WithinTransferRequest) (*boa.TransferResult, error)
	TransferOtherBank(ctx context.Context, req boa.OtherBankTransferRequest) (*boa.TransferResult, error)
	MoneySend(ctx context.Context, req boa.MoneySendRequest) (*boa.TransferResult, error)
	TransactionStatus(ctx context.Context, transactionID string) (*boa.TransactionStatusResult, error)
	GetCurrencyRate(ctx context.Context, baseCurrency string) (*boa.CurrencyRate, error)
	GetBalance(ctx context.Context) (*boa.Balance, error)
	GetBankList(ctx context.Context) ([]boa.Bank, error)
}

// BeneficiaryInfo is a lookup result, annotated with whether it came from
// the local mirror.
type BeneficiaryInfo struct {
	CustomerName    string
	AccountCurrency string
	EnquiryStatus   string
	Cached          bool
}

// Service wires the Bank client to the local mirror store.
type Service struct {
	bank   BankAPI
	store  *store.Store
	logger *slog.Logger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Service.
func New(bank BankAPI, st *store.Store, logger *slog.Logger) (*Service, error) {
	if bank == nil {
		return nil, fmt.Errorf("missing bank client")
	}
	if st == nil {
		return nil, fmt.Errorf("missing store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		bank:   bank,
		store:  st,
		logger: logger,
		sleep:  sleepContext,
	}, nil
}

// Beneficiary resolves the account holder for a BoA account, serving from
// the 24h mirror cache when possible.
func (s *Service) Beneficiary(ctx context.Context, accountID string) (*BeneficiaryInfo, error) {
	if cached, err := s.store.GetBeneficiary(ctx, store.InquiryTypeBOA, "", accountID); err == nil {
		s.logger.DebugContext(ctx, "beneficiary served from cache", "account", maskAccount(accountID))
		return &BeneficiaryInfo{
			CustomerName:    cached.CustomerName,
			AccountCurrency: cached.AccountCurrency,
			Cached:          true,
		}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.WarnContext(ctx, "beneficiary cache lookup failed", "error", err)
	}

	b, err := retry(ctx, s, "beneficiary lookup", func(ctx context.Context) (*boa.Beneficiary, error) {
		return s.bank.FetchBeneficiary(ctx, accountID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.PutBeneficiary(ctx, store.CachedBeneficiary{
		InquiryType:     store.InquiryTypeBOA,
		AccountID:       accountID,
		CustomerName:    b.CustomerName,
		AccountCurrency: b.AccountCurrency,
	}); err != nil {
		// Cache loss only costs a future round trip.
		s.logger.WarnContext(ctx, "failed to cache beneficiary", "account", maskAccount(accountID), "error", err)
	}

	return &BeneficiaryInfo{
		CustomerName:    b.CustomerName,
		AccountCurrency: b.AccountCurrency,
	}, nil
}

// BeneficiaryOtherBank resolves the account holder at another institution.
func (s *Service) BeneficiaryOtherBank(ctx context.Context, bankID, accountID string) (*BeneficiaryInfo, error) {
	if cached, err := s.store.GetBeneficiary(ctx, store.InquiryTypeOtherBank, bankID, accountID); err == nil {
		s.logger.DebugContext(ctx, "other bank beneficiary served from cache",
			"bank", bankID, "account", maskAccount(accountID))
		return &BeneficiaryInfo{
			CustomerName:    cached.CustomerName,
			AccountCurrency: cached.AccountCurrency,
			EnquiryStatus:   cached.EnquiryStatus,
			Cached:          true,
		}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.WarnContext(ctx, "beneficiary cache lookup failed", "error", err)
	}

	b, err := retry(ctx, s, "other bank beneficiary lookup", func(ctx context.Context) (*boa.Beneficiary, error) {
		return s.bank.FetchBeneficiaryOtherBank(ctx, bankID, accountID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.PutBeneficiary(ctx, store.CachedBeneficiary{
		InquiryType:     store.InquiryTypeOtherBank,
		BankID:          bankID,
		AccountID:       accountID,
		CustomerName:    b.CustomerName,
		AccountCurrency: b.AccountCurrency,
		EnquiryStatus:   b.EnquiryStatus,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to cache beneficiary", "account", maskAccount(accountID), "error", err)
	}

	return &BeneficiaryInfo{
		CustomerName:    b.CustomerName,
		AccountCurrency: b.AccountCurrency,
		EnquiryStatus:   b.EnquiryStatus,
	}, nil
}

// TransferWithin initiates a within-BoA transfer. Exactly one attempt.
func (s *Service) TransferWithin(ctx context.Context, req boa.WithinTransferRequest) (*boa.TransferResult, error) {
	result, err := s.bank.TransferWithin(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "within-bank transfer initiated",
		"reference", req.Reference, "boa_reference", result.BOAReference,
		"transaction_status", result.TransactionStatus)
	return result, nil
}

// TransferOtherBank initiates an interbank transfer. Exactly one attempt.
func (s *Service) TransferOtherBank(ctx context.Context, req boa.OtherBankTransferRequest) (*boa.TransferResult, error) {
	result, err := s.bank.TransferOtherBank(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "other bank transfer initiated",
		"reference", req.Reference, "bank_code", req.BankCode,
		"boa_reference", result.BOAReference, "transaction_status", result.TransactionStatus)
	return result, nil
}

// MoneySend initiates a wallet money-send. Exactly one attempt; nothing is
// persisted locally.
func (s *Service) MoneySend(ctx context.Context, req boa.MoneySendRequest) (*boa.TransferResult, error) {
	result, err := s.bank.MoneySend(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "money send initiated",
		"reference", req.Reference, "boa_reference", result.BOAReference)
	return result, nil
}

// TransactionStatus checks a transaction's status at the Bank.
func (s *Service) TransactionStatus(ctx context.Context, transactionID string) (*boa.TransactionStatusResult, error) {
	return retry(ctx, s, "transaction status", func(ctx context.Context) (*boa.TransactionStatusResult, error) {
		return s.bank.TransactionStatus(ctx, transactionID)
	})
}

// CurrencyRate fetches the current quote for a currency and refreshes the
// mirror.
func (s *Service) CurrencyRate(ctx context.Context, baseCurrency string) (*boa.CurrencyRate, error) {
	rate, err := retry(ctx, s, "currency rate", func(ctx context.Context) (*boa.CurrencyRate, error) {
		return s.bank.GetCurrencyRate(ctx, baseCurrency)
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.UpsertRate(ctx, store.Rate{
		CurrencyCode: rate.CurrencyCode,
		CurrencyName: rate.CurrencyName,
		BuyRate:      rate.BuyRate,
		SellRate:     rate.SellRate,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to mirror currency rate", "currency", rate.CurrencyCode, "error", err)
	}

	return rate, nil
}

// Balance fetches the remitter settlement-account balance.
func (s *Service) Balance(ctx context.Context) (*boa.Balance, error) {
	return retry(ctx, s, "balance", func(ctx context.Context) (*boa.Balance, error) {
		return s.bank.GetBalance(ctx)
	})
}

// Banks returns the mirrored institution list, refreshing it from the Bank
// when the mirror is empty.
func (s *Service) Banks(ctx context.Context) ([]store.Bank, error) {
	banks, err := s.store.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	if len(banks) > 0 {
		return banks, nil
	}
	if err := s.RefreshBankList(ctx); err != nil {
		return nil, err
	}
	return s.store.ListBanks(ctx)
}

// RefreshBankList replaces the mirrored institution list with a fresh fetch.
func (s *Service) RefreshBankList(ctx context.Context) error {
	banks, err := retry(ctx, s, "bank list", func(ctx context.Context) ([]boa.Bank, error) {
		return s.bank.GetBankList(ctx)
	})
	if err != nil {
		return err
	}

	mirrored := make([]store.Bank, 0, len(banks))
	for _, b := range banks {
		mirrored = append(mirrored, store.Bank{ID: b.ID, InstitutionName: b.InstitutionName})
	}
	if err := s.store.ReplaceBanks(ctx, mirrored); err != nil {
		return fmt.Errorf("replacing mirrored bank list: %w", err)
	}

	s.logger.InfoContext(ctx, "bank list refreshed", "count", len(mirrored))
	return nil
}

// retry drives an idempotent operation through the classifier's retry
// policy: attempt counts are bounded per code and delays grow exponentially
// from a per-code base.
func retry[T any](ctx context.Context, s *Service, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		var cerr *boa.ClassifiedError
		if !errors.As(err, &cerr) || !boa.ShouldRetry(cerr.Code, attempt) {
			return zero, err
		}

		delay := boa.RetryDelay(cerr.Code, attempt)
		s.logger.WarnContext(ctx, "retrying after transient failure",
			"operation", op, "attempt", attempt, "code", cerr.Code, "delay", delay)
		if err := s.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// maskAccount hides all but the first four characters of an account
// identifier in log output.
func maskAccount(account string) string {
	if len(account) <= 4 {
		return "****"
	}
	return account[:4] + "****"
}
