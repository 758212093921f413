package boa

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// capturingServer records the last request and replies with a canned
// envelope body.
type capturingServer struct {
	method string
	path   string
	body   []byte

	response string
}

func (c *capturingServer) start(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.method = r.Method
		c.path = r.URL.Path
		c.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(c.response))
	}))
	t.Cleanup(server.Close)
	return server, staticTokenClient(t, server.URL)
}

func decodeWire(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("request body is not JSON: %v\nbody: %s", err, data)
	}
	return m
}

func TestFetchBeneficiary(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success"}, "body": [{"customerName": "Abebe Bikila", "accountCurrency": "ETB"}]}`,
	}
	_, client := capture.start(t)

	b, err := client.FetchBeneficiary(context.Background(), "10023456789")
	if err != nil {
		t.Fatalf("FetchBeneficiary failed: %v", err)
	}

	if capture.method != http.MethodGet {
		t.Errorf("method = %s, want GET", capture.method)
	}
	if capture.path != "/getAccount/10023456789" {
		t.Errorf("path = %s, want /getAccount/10023456789", capture.path)
	}
	if b.CustomerName != "Abebe Bikila" || b.AccountCurrency != "ETB" {
		t.Errorf("beneficiary = %+v", b)
	}
}

func TestFetchBeneficiaryEmptyList(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success"}, "body": []}`,
	}
	_, client := capture.start(t)

	_, err := client.FetchBeneficiary(context.Background(), "10023456789")
	var cerr *ClassifiedError
	if !errors.As(err, &cerr) || cerr.Code != CodeOperationFailed {
		t.Errorf("error = %v, want classified %s", err, CodeOperationFailed)
	}
}

func TestFetchBeneficiaryOtherBank(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success"}, "body": {"customerName": "Tirunesh Dibaba", "accountCurrency": "ETB", "enquiryStatus": "SUCCESS"}}`,
	}
	_, client := capture.start(t)

	b, err := client.FetchBeneficiaryOtherBank(context.Background(), "CBETETAA", "998877")
	if err != nil {
		t.Fatalf("FetchBeneficiaryOtherBank failed: %v", err)
	}
	if capture.path != "/otherBank/getAccount/CBETETAA/998877" {
		t.Errorf("path = %s", capture.path)
	}
	if b.EnquiryStatus != "SUCCESS" {
		t.Errorf("enquiry status = %q, want SUCCESS", b.EnquiryStatus)
	}
}

func TestTransferWithinWireFormat(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success", "id": "FT123", "uniqueIdentifier": "UID-1", "transactionStatus": "Live"}}`,
	}
	_, client := capture.start(t)

	result, err := client.TransferWithin(context.Background(), WithinTransferRequest{
		Amount:        "100.00",
		AccountNumber: "10023456789",
		Reference:     "REF-42",
	})
	if err != nil {
		t.Fatalf("TransferWithin failed: %v", err)
	}

	if capture.method != http.MethodPost || capture.path != "/transferWithin" {
		t.Errorf("request = %s %s, want POST /transferWithin", capture.method, capture.path)
	}

	wire := decodeWire(t, capture.body)
	want := map[string]any{
		"client_id":     "client-1",
		"amount":        "100.00",
		"accountNumber": "10023456789",
		"reference":     "REF-42",
	}
	for key, value := range want {
		if wire[key] != value {
			t.Errorf("wire %s = %v, want %v", key, wire[key], value)
		}
	}

	if result.BOAReference != "FT123" {
		t.Errorf("BOAReference = %q, want FT123", result.BOAReference)
	}
	if result.UniqueIdentifier != "UID-1" {
		t.Errorf("UniqueIdentifier = %q, want UID-1", result.UniqueIdentifier)
	}
	if result.TransactionStatus != "Live" {
		t.Errorf("TransactionStatus = %q, want Live", result.TransactionStatus)
	}
}

func TestTransferAmountStaysVerbatim(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success", "id": "FT123"}}`,
	}
	_, client := capture.start(t)

	// Amounts that floats would mangle must reach the wire byte for byte.
	amounts := []string{"100.00", "0.10", "99999999999999.99"}
	for _, amount := range amounts {
		if _, err := client.TransferWithin(context.Background(), WithinTransferRequest{
			Amount:        amount,
			AccountNumber: "1",
			Reference:     "r",
		}); err != nil {
			t.Fatalf("TransferWithin(%s) failed: %v", amount, err)
		}
		if wire := decodeWire(t, capture.body); wire["amount"] != amount {
			t.Errorf("wire amount = %v, want %q", wire["amount"], amount)
		}
	}
}

func TestTransferOtherBankWireFormat(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success", "id": "FT124"}}`,
	}
	_, client := capture.start(t)

	_, err := client.TransferOtherBank(context.Background(), OtherBankTransferRequest{
		Amount:        "250.50",
		BankCode:      "CBETETAA",
		AccountNumber: "998877",
		ReceiverName:  "Tirunesh Dibaba",
		Reference:     "REF-43",
	})
	if err != nil {
		t.Fatalf("TransferOtherBank failed: %v", err)
	}

	if capture.path != "/otherBank/transferEthswitch" {
		t.Errorf("path = %s, want /otherBank/transferEthswitch", capture.path)
	}
	wire := decodeWire(t, capture.body)
	if wire["bankCode"] != "CBETETAA" || wire["receiverName"] != "Tirunesh Dibaba" {
		t.Errorf("wire = %v", wire)
	}
}

func TestMoneySendWireFormat(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success", "id": "FT125"}}`,
	}
	_, client := capture.start(t)

	_, err := client.MoneySend(context.Background(), MoneySendRequest{
		Amount:              "75.00",
		RemitterName:        "Haile G",
		RemitterPhoneNumber: "+2519110000",
		ReceiverName:        "Derartu T",
		ReceiverAddress:     "Addis Ababa",
		ReceiverPhoneNumber: "+2519220000",
		Reference:           "REF-44",
		SecretCode:          "1234",
	})
	if err != nil {
		t.Fatalf("MoneySend failed: %v", err)
	}

	// The Bank's field names use lowercase "number".
	wire := decodeWire(t, capture.body)
	if wire["remitterPhonenumber"] != "+2519110000" {
		t.Errorf("remitterPhonenumber = %v", wire["remitterPhonenumber"])
	}
	if wire["receiverPhonenumber"] != "+2519220000" {
		t.Errorf("receiverPhonenumber = %v", wire["receiverPhonenumber"])
	}
	if wire["secretCode"] != "1234" {
		t.Errorf("secretCode = %v", wire["secretCode"])
	}
}

func TestTransferFailedEnvelopeClassified(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "failed"}, "error": {"type": "BUSINESS", "errorDetails": [{"message": "Insufficient balance"}]}}`,
	}
	_, client := capture.start(t)

	_, err := client.TransferWithin(context.Background(), WithinTransferRequest{
		Amount: "100.00", AccountNumber: "1", Reference: "r",
	})
	var cerr *ClassifiedError
	if !errors.As(err, &cerr) {
		t.Fatalf("error %T is not classified", err)
	}
	if cerr.Code != CodeBusinessError {
		t.Errorf("code = %s, want %s", cerr.Code, CodeBusinessError)
	}
	if cerr.Message != "Insufficient balance" {
		t.Errorf("message = %q, want the Bank's detail message", cerr.Message)
	}
	if cerr.Retryable {
		t.Error("business errors must not be retryable")
	}
}

func TestTransactionStatus(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success"}, "body": [{"id": "TX-9", "boaReference": "FT123", "status": "Completed"}]}`,
	}
	_, client := capture.start(t)

	status, err := client.TransactionStatus(context.Background(), "TX-9")
	if err != nil {
		t.Fatalf("TransactionStatus failed: %v", err)
	}
	if capture.path != "/transactionStatus/TX-9" {
		t.Errorf("path = %s", capture.path)
	}
	if status.BOAReference != "FT123" || status.Status != "Completed" {
		t.Errorf("status = %+v", status)
	}
}

func TestGetCurrencyRatePreservesDecimals(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success"}, "body": [{"currencyCode": "USD", "currencyName": "US Dollar", "buyRate": 121.5000, "sellRate": 123.9300}]}`,
	}
	_, client := capture.start(t)

	rate, err := client.GetCurrencyRate(context.Background(), "usd")
	if err != nil {
		t.Fatalf("GetCurrencyRate failed: %v", err)
	}
	if capture.path != "/rate/USD" {
		t.Errorf("path = %s, want uppercased /rate/USD", capture.path)
	}
	if rate.BuyRate != "121.5000" {
		t.Errorf("buy rate = %q, want verbatim %q", rate.BuyRate, "121.5000")
	}
	if rate.SellRate != "123.9300" {
		t.Errorf("sell rate = %q, want verbatim %q", rate.SellRate, "123.9300")
	}
}

func TestGetBalanceIsPost(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success"}, "body": {"accountCurrency": "ETB", "balance": 150000.25}}`,
	}
	_, client := capture.start(t)

	balance, err := client.GetBalance(context.Background())
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if capture.method != http.MethodPost || capture.path != "/getBalance" {
		t.Errorf("request = %s %s, want POST /getBalance", capture.method, capture.path)
	}
	if wire := decodeWire(t, capture.body); wire["client_id"] != "client-1" {
		t.Errorf("wire client_id = %v", wire["client_id"])
	}
	if balance.Balance != "150000.25" {
		t.Errorf("balance = %q, want %q", balance.Balance, "150000.25")
	}
}

func TestGetBankList(t *testing.T) {
	capture := &capturingServer{
		response: `{"header": {"status": "success"}, "body": [{"id": "CBETETAA", "institutionName": "Commercial Bank of Ethiopia"}, {"id": "AWINETAA", "institutionName": "Awash Bank"}]}`,
	}
	_, client := capture.start(t)

	banks, err := client.GetBankList(context.Background())
	if err != nil {
		t.Fatalf("GetBankList failed: %v", err)
	}
	if capture.path != "/otherBank/bankId" {
		t.Errorf("path = %s", capture.path)
	}
	if len(banks) != 2 || banks[0].ID != "CBETETAA" {
		t.Errorf("banks = %+v", banks)
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		amount string
		ok     bool
	}{
		{"100.00", true},
		{"0.10", true},
		{"42", true},
		{"", false},
		{".5", false},
		{"5.", false},
		{"1.2.3", false},
		{"-5", false},
		{"10,00", false},
		{"1e5", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := validateAmount(tt.amount)
			if tt.ok && err != nil {
				t.Errorf("validateAmount(%q) = %v, want nil", tt.amount, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("validateAmount(%q) = nil, want error", tt.amount)
			}
		})
	}
}

func TestTransferRejectsBadAmount(t *testing.T) {
	client := staticTokenClient(t, "http://127.0.0.1:0")

	_, err := client.TransferWithin(context.Background(), WithinTransferRequest{
		Amount: "not-a-number", AccountNumber: "1", Reference: "r",
	})
	var cerr *ClassifiedError
	if !errors.As(err, &cerr) || cerr.Code != CodeBusinessError {
		t.Errorf("error = %v, want classified %s", err, CodeBusinessError)
	}
}
