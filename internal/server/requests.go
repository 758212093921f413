package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// WithinTransferDTO is the within-bank transfer request body.
// Amounts are decimal strings; they are never parsed into floats.
type WithinTransferDTO struct {
	Amount        string `json:"amount" validate:"required,numeric"`
	AccountNumber string `json:"account_number" validate:"required"`
	Reference     string `json:"reference"`
}

// OtherBankTransferDTO is the interbank transfer request body.
type OtherBankTransferDTO struct {
	Amount        string `json:"amount" validate:"required,numeric"`
	BankCode      string `json:"bank_code" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required"`
	ReceiverName  string `json:"receiver_name" validate:"required"`
	Reference     string `json:"reference"`
}

// MoneySendDTO is the wallet money-send request body.
type MoneySendDTO struct {
	Amount              string `json:"amount" validate:"required,numeric"`
	RemitterName        string `json:"remitter_name" validate:"required"`
	RemitterPhoneNumber string `json:"remitter_phone_number" validate:"required"`
	ReceiverName        string `json:"receiver_name" validate:"required"`
	ReceiverAddress     string `json:"receiver_address" validate:"required"`
	ReceiverPhoneNumber string `json:"receiver_phone_number" validate:"required"`
	SecretCode          string `json:"secret_code" validate:"required"`
	Reference           string `json:"reference"`
}

// decodeValid decodes a JSON request body into dst and validates it.
func decodeValid(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
