// Package server exposes the gateway's REST surface: one endpoint per Bank
// capability, plus health. Handlers validate input, delegate to the remit
// service, and map classified failures to HTTP statuses.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hakimremit/boagate/internal/boa"
	"github.com/hakimremit/boagate/internal/remit"
	"github.com/hakimremit/boagate/internal/store"
)

// RemitService is the service surface the HTTP layer depends on.
// *remit.Service satisfies it; tests substitute a fake.
type RemitService interface {
	Beneficiary(ctx context.Context, accountID string) (*remit.BeneficiaryInfo, error)
	BeneficiaryOtherBank(ctx context.Context, bankID, accountID string) (*remit.BeneficiaryInfo, error)
	TransferWithin(ctx context.Context, req boa.WithinTransferRequest) (*boa.TransferResult, error)
	TransferOtherBank(ctx context.Context, req boa.OtherBankTransferRequest) (*boa.TransferResult, error)
	MoneySend(ctx context.Context, req boa.MoneySendRequest) (*boa.TransferResult, error)
	TransactionStatus(ctx context.Context, transactionID string) (*boa.TransactionStatusResult, error)
	CurrencyRate(ctx context.Context, baseCurrency string) (*boa.CurrencyRate, error)
	Balance(ctx context.Context) (*boa.Balance, error)
	Banks(ctx context.Context) ([]store.Bank, error)
	RefreshBankList(ctx context.Context) error
}

// Server is the gateway HTTP server.
type Server struct {
	mux    *http.ServeMux
	server *http.Server
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates a Server routing to the given service.
func New(svc RemitService) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("missing remit service")
	}

	h := &handlers{svc: svc}
	logger := slog.Default()

	mux := http.NewServeMux()
	route := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, applyMiddlewares(handler,
			Logging(logger),
			Recovery(logger),
		))
	}

	route("GET /v1/beneficiary/boa/{account_id}", h.beneficiaryBOA)
	route("GET /v1/beneficiary/other-bank/{bank_id}/{account_id}", h.beneficiaryOtherBank)
	route("POST /v1/transfers/within", h.transferWithin)
	route("POST /v1/transfers/other-bank", h.transferOtherBank)
	route("POST /v1/transfers/money-send", h.moneySend)
	route("GET /v1/transactions/{transaction_id}/status", h.transactionStatus)
	route("GET /v1/rates/{currency}", h.currencyRate)
	route("GET /v1/balance", h.balance)
	route("GET /v1/banks", h.banks)
	route("POST /v1/banks/refresh", h.refreshBanks)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &Server{mux: mux}, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler: s,
		// Inbound timeouts protect against slow clients; the outbound Bank
		// timeout (30s) bounds handler latency.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
