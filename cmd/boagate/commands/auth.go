package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hakimremit/boagate/internal/tokenstore"
)

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "manage bank credentials",
		Commands: []*cli.Command{
			{
				Name:  "seed",
				Usage: "store an initial refresh token in the configured token store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "auth--storage",
						Usage: "token storage backend (file|keyring)",
					},
				},
				Action: authSeedAction,
			},
		},
	}
}

// authSeedAction reads a refresh token from the terminal without echo and
// writes it to the token store. The first exchange replaces it with a
// rotated token and a real expiry.
func authSeedAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadRawConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprint(os.Stderr, "refresh token: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read refresh token: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("refresh token must not be empty")
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to create token store: %w", err)
	}

	record := &tokenstore.TokenRecord{RefreshToken: string(raw)}
	if err := store.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	fmt.Fprintln(os.Stderr, "refresh token stored")
	return nil
}
