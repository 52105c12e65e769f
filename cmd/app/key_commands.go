package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sovereignos/guard/cmd/app/commands"
	"github.com/sovereignos/guard/internal/app"
	"github.com/sovereignos/guard/internal/config"
	keysService "github.com/sovereignos/guard/internal/keys/service"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate a new Master Key for sealing issuer signing seeds",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Value:   "",
					Usage:   "Master key ID (e.g., prod-master-key-2026)",
				},
				&cli.StringFlag{
					Name:     "kms-provider",
					Value:    "",
					Required: true,
					Usage:    "KMS provider (localsecrets, gcpkms, awskms, azurekeyvault, hashivault)",
				},
				&cli.StringFlag{
					Name:     "kms-key-uri",
					Value:    "",
					Required: true,
					Usage:    "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunCreateMasterKey(
					ctx,
					keysService.NewKMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("kms-provider"),
					cmd.String("kms-key-uri"),
				)
			},
		},
		{
			Name:  "rotate-master-key",
			Usage: "Rotate the Master Key by generating a new key and combining with existing keys",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Value:   "",
					Usage:   "New master key ID (e.g., prod-master-key-2027)",
				},
				&cli.StringFlag{
					Name:     "kms-provider",
					Value:    "",
					Required: true,
					Usage:    "KMS provider (localsecrets, gcpkms, awskms, azurekeyvault, hashivault)",
				},
				&cli.StringFlag{
					Name:     "kms-key-uri",
					Value:    "",
					Required: true,
					Usage:    "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunRotateMasterKey(
					ctx,
					keysService.NewKMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("kms-provider"),
					cmd.String("kms-key-uri"),
					os.Getenv("MASTER_KEYS"),
					os.Getenv("ACTIVE_MASTER_KEY_ID"),
				)
			},
		},
		{
			Name:  "create-issuer-key",
			Usage: "Create an issuer's first Ed25519 signing key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "issuer",
					Aliases: []string{"i"},
					Usage:   "Issuer name (defaults to the configured capability issuer)",
				},
				&cli.StringFlag{
					Name:    "algorithm",
					Aliases: []string{"alg"},
					Value:   "aes-gcm",
					Usage:   "Seed sealing algorithm (aes-gcm or chacha20-poly1305)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				signingKeyUseCase, err := container.SigningKeyUseCase()
				if err != nil {
					return err
				}

				masterKeyChain, err := container.MasterKeyChain()
				if err != nil {
					return err
				}

				issuer := cmd.String("issuer")
				if issuer == "" {
					issuer = cfg.CapabilityIssuer
				}

				return commands.RunCreateIssuerKey(
					ctx,
					signingKeyUseCase,
					masterKeyChain,
					container.Logger(),
					commands.DefaultIO().Writer,
					issuer,
					cmd.String("algorithm"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "rotate-issuer-key",
			Usage: "Rotate an issuer's signing key to the next version",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "issuer",
					Aliases: []string{"i"},
					Usage:   "Issuer name (defaults to the configured capability issuer)",
				},
				&cli.StringFlag{
					Name:    "algorithm",
					Aliases: []string{"alg"},
					Value:   "aes-gcm",
					Usage:   "Seed sealing algorithm (aes-gcm or chacha20-poly1305)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				signingKeyUseCase, err := container.SigningKeyUseCase()
				if err != nil {
					return err
				}

				masterKeyChain, err := container.MasterKeyChain()
				if err != nil {
					return err
				}

				issuer := cmd.String("issuer")
				if issuer == "" {
					issuer = cfg.CapabilityIssuer
				}

				return commands.RunRotateIssuerKey(
					ctx,
					signingKeyUseCase,
					masterKeyChain,
					container.Logger(),
					commands.DefaultIO().Writer,
					issuer,
					cmd.String("algorithm"),
					cmd.String("format"),
				)
			},
		},
	}
}
