package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/hakimremit/boagate/internal/boa"
	"github.com/hakimremit/boagate/internal/remit"
	"github.com/hakimremit/boagate/internal/server"
	"github.com/hakimremit/boagate/internal/store"
	"github.com/hakimremit/boagate/internal/tokensource"
	"github.com/hakimremit/boagate/internal/tokenstore"
)

// App orchestrates the lifecycle of the gateway server and related services.
type App struct {
	cfg    *Config
	server *server.Server
	mirror *store.Store
}

// New creates a new App instance. The Bank client is constructed once here
// and injected down the stack; nothing in the process holds hidden global
// client state.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// I/O deferred to first Token() call
	ts, err := newTokenSource(cfg.Bank, cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create token source: %w", err)
	}

	client, err := boa.New(cfg.Bank.BaseURL, cfg.Bank.ClientID, cfg.Bank.APIKey, ts,
		boa.WithAuthPrefix(cfg.Bank.AuthPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to create bank client: %w", err)
	}

	mirror, err := store.New(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror store at %s: %w", filepath.Clean(cfg.Cache.Path), err)
	}
	if err := mirror.ApplyMigrations(); err != nil {
		_ = mirror.Close()
		return nil, fmt.Errorf("failed to migrate mirror store: %w", err)
	}
	if err := mirror.DeleteExpiredBeneficiaries(context.Background()); err != nil {
		slog.Warn("failed to purge expired beneficiary inquiries", "error", err)
	}

	svc, err := remit.New(client, mirror, slog.Default())
	if err != nil {
		_ = mirror.Close()
		return nil, fmt.Errorf("failed to create remit service: %w", err)
	}

	srv, err := server.New(svc)
	if err != nil {
		_ = mirror.Close()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &App{
		cfg:    cfg,
		server: srv,
		mirror: mirror,
	}, nil
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function
// collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting gateway server", "address", address)
	serverErrCh, err := a.server.Start(gCtx, address)
	if err != nil {
		_ = a.mirror.Close()
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)
	shutdownFuncs = append(shutdownFuncs, func(context.Context) error { return a.mirror.Close() })

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// newTokenSource wires the token store and the Bank OAuth2 exchange into a
// persistent token source. No I/O is performed - initialization is deferred
// to the first Token() call.
func newTokenSource(bank BankConfig, auth AuthConfig) (*tokensource.PersistentTokenSource, error) {
	tokenStore, err := auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	creds := tokensource.Credentials{
		ClientID:         bank.ClientID,
		ClientSecret:     bank.ClientSecret,
		RefreshTokenSeed: bank.RefreshTokenSeed,
	}
	endpoint := tokensource.Endpoint(bank.BaseURL)

	factory := func(initial *tokenstore.TokenRecord) oauth2.TokenSource {
		return tokensource.NewTokenSource(creds, endpoint, initial)
	}

	return tokensource.NewPersistentTokenSource(factory, tokenStore)
}
