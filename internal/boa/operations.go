package boa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Beneficiary is the account-holder information returned by a lookup.
type Beneficiary struct {
	CustomerName    string `json:"customerName"`
	AccountCurrency string `json:"accountCurrency"`
	// EnquiryStatus is only populated for other-bank lookups.
	EnquiryStatus string `json:"enquiryStatus,omitempty"`
}

// TransferResult is the outcome of a successful transfer initiation.
type TransferResult struct {
	BOAReference      string
	UniqueIdentifier  string
	TransactionStatus string
	// Raw retains the full envelope for auditing.
	Raw *Envelope
}

// TransactionStatusResult is one entry from a status inquiry.
type TransactionStatusResult struct {
	ID           string `json:"id"`
	BOAReference string `json:"boaReference"`
	Status       string `json:"status"`
}

// CurrencyRate is a single exchange-rate quote. Rates are decimal strings;
// they are never routed through floats.
type CurrencyRate struct {
	CurrencyCode string
	CurrencyName string
	BuyRate      string
	SellRate     string
}

// Balance is the remitter settlement-account balance. The amount is a
// decimal string.
type Balance struct {
	AccountCurrency string
	Balance         string
}

// Bank is one entry in the Bank's interbank institution list.
type Bank struct {
	ID              string `json:"id"`
	InstitutionName string `json:"institutionName"`
}

// WithinTransferRequest initiates a transfer to another BoA account.
// Amount is a decimal string passed to the wire verbatim.
type WithinTransferRequest struct {
	Amount        string
	AccountNumber string
	Reference     string
}

// OtherBankTransferRequest initiates an interbank transfer over the
// EthSwitch network.
type OtherBankTransferRequest struct {
	Amount        string
	BankCode      string
	AccountNumber string
	Reference     string
	ReceiverName  string
}

// MoneySendRequest initiates a wallet money-send. Purely pass-through; the
// gateway persists nothing for it.
type MoneySendRequest struct {
	Amount              string
	RemitterName        string
	RemitterPhoneNumber string
	ReceiverName        string
	ReceiverAddress     string
	ReceiverPhoneNumber string
	Reference           string
	SecretCode          string
}

// FetchBeneficiary looks up the account holder for a BoA account.
// The Bank returns the beneficiary as a one-element list.
func (c *Client) FetchBeneficiary(ctx context.Context, accountID string) (*Beneficiary, error) {
	env, err := c.request(ctx, http.MethodGet, "getAccount/"+accountID, nil)
	if err != nil {
		return nil, Classify(err)
	}
	if !env.OK() {
		return nil, ClassifyEnvelope(env)
	}

	var list []Beneficiary
	if err := json.Unmarshal(env.Body, &list); err != nil || len(list) == 0 {
		return nil, newClassified(CodeOperationFailed, SeverityMedium, "no beneficiary data in BOA response")
	}
	return &list[0], nil
}

// FetchBeneficiaryOtherBank looks up the account holder at another bank.
// Same-bank and cross-bank lookups are distinct endpoints, not a parameter.
func (c *Client) FetchBeneficiaryOtherBank(ctx context.Context, bankID, accountID string) (*Beneficiary, error) {
	env, err := c.request(ctx, http.MethodGet, fmt.Sprintf("otherBank/getAccount/%s/%s", bankID, accountID), nil)
	if err != nil {
		return nil, Classify(err)
	}
	if !env.OK() {
		return nil, ClassifyEnvelope(env)
	}

	var beneficiary Beneficiary
	if err := json.Unmarshal(env.Body, &beneficiary); err != nil {
		return nil, newClassified(CodeOperationFailed, SeverityMedium, "no beneficiary data in BOA response")
	}
	return &beneficiary, nil
}

// TransferWithin initiates a transfer within Bank of Abyssinia.
func (c *Client) TransferWithin(ctx context.Context, req WithinTransferRequest) (*TransferResult, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, newClassified(CodeBusinessError, SeverityMedium, err.Error())
	}

	body := struct {
		ClientID      string `json:"client_id"`
		Amount        string `json:"amount"`
		AccountNumber string `json:"accountNumber"`
		Reference     string `json:"reference"`
	}{
		ClientID:      c.clientID,
		Amount:        req.Amount,
		AccountNumber: req.AccountNumber,
		Reference:     req.Reference,
	}

	env, err := c.request(ctx, http.MethodPost, "transferWithin", body)
	if err != nil {
		return nil, Classify(err)
	}
	if !env.OK() {
		return nil, ClassifyEnvelope(env)
	}
	return transferResult(env), nil
}

// TransferOtherBank initiates an interbank transfer via EthSwitch.
func (c *Client) TransferOtherBank(ctx context.Context, req OtherBankTransferRequest) (*TransferResult, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, newClassified(CodeBusinessError, SeverityMedium, err.Error())
	}

	body := struct {
		ClientID      string `json:"client_id"`
		Amount        string `json:"amount"`
		BankCode      string `json:"bankCode"`
		ReceiverName  string `json:"receiverName"`
		AccountNumber string `json:"accountNumber"`
		Reference     string `json:"reference"`
	}{
		ClientID:      c.clientID,
		Amount:        req.Amount,
		BankCode:      req.BankCode,
		ReceiverName:  req.ReceiverName,
		AccountNumber: req.AccountNumber,
		Reference:     req.Reference,
	}

	env, err := c.request(ctx, http.MethodPost, "otherBank/transferEthswitch", body)
	if err != nil {
		return nil, Classify(err)
	}
	if !env.OK() {
		return nil, ClassifyEnvelope(env)
	}
	return transferResult(env), nil
}

// MoneySend initiates a wallet money-send.
func (c *Client) MoneySend(ctx context.Context, req MoneySendRequest) (*TransferResult, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, newClassified(CodeBusinessError, SeverityMedium, err.Error())
	}

	body := struct {
		ClientID            string `json:"client_id"`
		Amount              string `json:"amount"`
		RemitterName        string `json:"remitterName"`
		RemitterPhoneNumber string `json:"remitterPhonenumber"`
		ReceiverName        string `json:"receiverName"`
		ReceiverAddress     string `json:"receiverAddress"`
		ReceiverPhoneNumber string `json:"receiverPhonenumber"`
		Reference           string `json:"reference"`
		SecretCode          string `json:"secretCode"`
	}{
		ClientID:            c.clientID,
		Amount:              req.Amount,
		RemitterName:        req.RemitterName,
		RemitterPhoneNumber: req.RemitterPhoneNumber,
		ReceiverName:        req.ReceiverName,
		ReceiverAddress:     req.ReceiverAddress,
		ReceiverPhoneNumber: req.ReceiverPhoneNumber,
		Reference:           req.Reference,
		SecretCode:          req.SecretCode,
	}

	env, err := c.request(ctx, http.MethodPost, "moneySend", body)
	if err != nil {
		return nil, Classify(err)
	}
	if !env.OK() {
		return nil, ClassifyEnvelope(env)
	}
	return transferResult(env), nil
}

// TransactionStatus checks the status of a previously initiated transaction.
func (c *Client) TransactionStatus(ctx context.Context, transactionID string) (*TransactionStatusResult, error) {
	env, err := c.request(ctx, http.MethodGet, "transactionStatus/"+transactionID, nil)
	if err != nil {
		return nil, Classify(err)
	}
	if !env.OK() {
		return nil, ClassifyEnvelope(env)
	}

	var list []TransactionStatusResult
	if err := json.Unmarshal(env.Body, &list); err != nil || len(list) == 0 {
		return nil, newClassified(CodeOperationFailed, SeverityMedium, "no status data in BOA response")
	}
	return &list[0], nil
}

// GetCurrencyRate fetches the Bank's exchange rate for the given base
// currency. The currency code is uppercased for the wire.
func (c *Client) GetCurrencyRate(ctx context.Context, baseCurrency string) (*CurrencyRate, error) {
	env, err := c.request(ctx, http.MethodGet, "rate/"+strings.ToUpper(baseCurrency), nil)
	if err != nil {
		return nil, Classify(err)
	}
	if !env.OK() {
		return nil, ClassifyEnvelope(env)
	}

	var list []struct {
		CurrencyCode string      `json:"currencyCode"`
		CurrencyName string      `json:"currencyName"`
		BuyRate      json.Number `json:"buyRate"`
		SellRate     json.Number `json:"sellRate"`
	}
	if err := json.Unmarshal(env.Body, &list); err != nil || len(list) == 0 {
		return nil, newClassified(CodeOperationFailed, SeverityMedium, "no rate data in BOA response")
	}
	return &CurrencyRate{
		CurrencyCode: list[0].CurrencyCode,
		CurrencyName: list[0].CurrencyName,
		BuyRate:      list[0].BuyRate.String(),
		SellRate:     list[0].SellRate.String(),
	}, nil
}

// GetBalance fetches the remitter settlement-account balance. The Bank
// models this as a POST carrying the client ID, not a GET.
func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	body := struct {
		ClientID string `json:"client_id"`
	}{ClientID: c.clientID}

	env, err := c.request(ctx, http.MethodPost, "getBalance", body)
	if err != nil {
		return nil, Classify(err)
	}
	if !env.OK() {
		return nil, ClassifyEnvelope(env)
	}

	var payload struct {
		AccountCurrency string      `json:"accountCurrency"`
		Balance         json.Number `json:"balance"`
	}
	if err := json.Unmarshal(env.Body, &payload); err != nil {
		return nil, newClassified(CodeOperationFailed, SeverityMedium, "no balance data in BOA response")
	}
	return &Balance{
		AccountCurrency: payload.AccountCurrency,
		Balance:         payload.Balance.String(),
	}, nil
}

// GetBankList fetches the full list of institutions reachable via EthSwitch.
// Callers mirror it locally; the list changes rarely.
func (c *Client) GetBankList(ctx context.Context) ([]Bank, error) {
	env, err := c.request(ctx, http.MethodGet, "otherBank/bankId", nil)
	if err != nil {
		return nil, Classify(err)
	}
	if !env.OK() {
		return nil, ClassifyEnvelope(env)
	}

	var banks []Bank
	if err := json.Unmarshal(env.Body, &banks); err != nil {
		return nil, newClassified(CodeOperationFailed, SeverityMedium, "no bank list data in BOA response")
	}
	return banks, nil
}

// validateAmount rejects empty or obviously malformed amounts before they
// reach the wire. Amounts stay strings throughout; converting through a
// float would silently change values like "100.00".
func validateAmount(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount cannot be empty")
	}
	dot := false
	for i, r := range amount {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot && i > 0 && i < len(amount)-1:
			dot = true
		default:
			return fmt.Errorf("amount %q is not a valid decimal", amount)
		}
	}
	return nil
}

// transferResult lifts the success fields out of a transfer envelope.
func transferResult(env *Envelope) *TransferResult {
	return &TransferResult{
		BOAReference:      env.Header.ID,
		UniqueIdentifier:  env.Header.UniqueIdentifier,
		TransactionStatus: env.Header.TransactionStatus,
		Raw:               env,
	}
}
