package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hakimremit/boagate/internal/boa"
)

type handlers struct {
	svc RemitService
}

// beneficiaryResponse is the lookup response shape.
type beneficiaryResponse struct {
	CustomerName    string `json:"customer_name"`
	AccountCurrency string `json:"account_currency"`
	EnquiryStatus   string `json:"enquiry_status,omitempty"`
	Cached          bool   `json:"cached"`
}

// transferResponse is the transfer initiation response shape.
type transferResponse struct {
	Success           bool   `json:"success"`
	BOAReference      string `json:"boa_reference"`
	UniqueIdentifier  string `json:"unique_identifier"`
	TransactionStatus string `json:"transaction_status"`
	Reference         string `json:"reference"`
}

func (h *handlers) beneficiaryBOA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	info, err := h.svc.Beneficiary(ctx, r.PathValue("account_id"))
	if err != nil {
		writeClassifiedError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, beneficiaryResponse{
		CustomerName:    info.CustomerName,
		AccountCurrency: info.AccountCurrency,
		Cached:          info.Cached,
	}, http.StatusOK)
}

func (h *handlers) beneficiaryOtherBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	info, err := h.svc.BeneficiaryOtherBank(ctx, r.PathValue("bank_id"), r.PathValue("account_id"))
	if err != nil {
		writeClassifiedError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, beneficiaryResponse{
		CustomerName:    info.CustomerName,
		AccountCurrency: info.AccountCurrency,
		EnquiryStatus:   info.EnquiryStatus,
		Cached:          info.Cached,
	}, http.StatusOK)
}

func (h *handlers) transferWithin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var dto WithinTransferDTO
	if err := decodeValid(r, &dto); err != nil {
		writeJSONError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}

	reference := orGeneratedReference(dto.Reference)
	result, err := h.svc.TransferWithin(ctx, boa.WithinTransferRequest{
		Amount:        dto.Amount,
		AccountNumber: dto.AccountNumber,
		Reference:     reference,
	})
	if err != nil {
		writeClassifiedError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, newTransferResponse(result, reference), http.StatusOK)
}

func (h *handlers) transferOtherBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var dto OtherBankTransferDTO
	if err := decodeValid(r, &dto); err != nil {
		writeJSONError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}

	reference := orGeneratedReference(dto.Reference)
	result, err := h.svc.TransferOtherBank(ctx, boa.OtherBankTransferRequest{
		Amount:        dto.Amount,
		BankCode:      dto.BankCode,
		AccountNumber: dto.AccountNumber,
		ReceiverName:  dto.ReceiverName,
		Reference:     reference,
	})
	if err != nil {
		writeClassifiedError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, newTransferResponse(result, reference), http.StatusOK)
}

func (h *handlers) moneySend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var dto MoneySendDTO
	if err := decodeValid(r, &dto); err != nil {
		writeJSONError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}

	reference := orGeneratedReference(dto.Reference)
	result, err := h.svc.MoneySend(ctx, boa.MoneySendRequest{
		Amount:              dto.Amount,
		RemitterName:        dto.RemitterName,
		RemitterPhoneNumber: dto.RemitterPhoneNumber,
		ReceiverName:        dto.ReceiverName,
		ReceiverAddress:     dto.ReceiverAddress,
		ReceiverPhoneNumber: dto.ReceiverPhoneNumber,
		Reference:           reference,
		SecretCode:          dto.SecretCode,
	})
	if err != nil {
		writeClassifiedError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, newTransferResponse(result, reference), http.StatusOK)
}

func (h *handlers) transactionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := h.svc.TransactionStatus(ctx, r.PathValue("transaction_id"))
	if err != nil {
		writeClassifiedError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, map[string]string{
		"id":            status.ID,
		"boa_reference": status.BOAReference,
		"status":        status.Status,
	}, http.StatusOK)
}

func (h *handlers) currencyRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rate, err := h.svc.CurrencyRate(ctx, r.PathValue("currency"))
	if err != nil {
		writeClassifiedError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, map[string]string{
		"currency_code": rate.CurrencyCode,
		"currency_name": rate.CurrencyName,
		"buy_rate":      rate.BuyRate,
		"sell_rate":     rate.SellRate,
	}, http.StatusOK)
}

func (h *handlers) balance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	balance, err := h.svc.Balance(ctx)
	if err != nil {
		writeClassifiedError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, map[string]string{
		"account_currency": balance.AccountCurrency,
		"balance":          balance.Balance,
	}, http.StatusOK)
}

func (h *handlers) banks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	banks, err := h.svc.Banks(ctx)
	if err != nil {
		writeClassifiedError(ctx, w, err)
		return
	}

	type bankEntry struct {
		BankID          string `json:"bank_id"`
		InstitutionName string `json:"institution_name"`
	}
	entries := make([]bankEntry, 0, len(banks))
	for _, b := range banks {
		entries = append(entries, bankEntry{BankID: b.ID, InstitutionName: b.InstitutionName})
	}
	writeJSON(ctx, w, entries, http.StatusOK)
}

func (h *handlers) refreshBanks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.svc.RefreshBankList(ctx); err != nil {
		writeClassifiedError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// orGeneratedReference returns the caller-supplied reference, or a generated
// one when absent. References must be unique per transfer attempt.
func orGeneratedReference(reference string) string {
	if reference != "" {
		return reference
	}
	return uuid.NewString()
}

func newTransferResponse(result *boa.TransferResult, reference string) transferResponse {
	return transferResponse{
		Success:           true,
		BOAReference:      result.BOAReference,
		UniqueIdentifier:  result.UniqueIdentifier,
		TransactionStatus: result.TransactionStatus,
		Reference:         reference,
	}
}
