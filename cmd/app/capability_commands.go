package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/sovereignos/guard/cmd/app/commands"
	"github.com/sovereignos/guard/internal/app"
	"github.com/sovereignos/guard/internal/config"
)

func getCapabilityCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "mint-capability",
			Usage: "Mint a signed root capability and print its token",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "subject",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Principal the capability is granted to (e.g., agent:main)",
				},
				&cli.StringFlag{
					Name:     "action",
					Aliases:  []string{"a"},
					Required: true,
					Usage:    "Action the capability grants (e.g., tool:execute, memory:read, *)",
				},
				&cli.StringFlag{
					Name:     "resource",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Resource pattern (exact, 'prefix/*', or '*')",
				},
				&cli.StringFlag{
					Name:    "constraints",
					Aliases: []string{"c"},
					Usage:   "JSON object of additional constraints",
				},
				&cli.DurationFlag{
					Name:    "ttl",
					Aliases: []string{"t"},
					Value:   0,
					Usage:   "Token lifetime (e.g., 30m, 2h); zero uses the configured default",
				},
				&cli.IntFlag{
					Name:    "uses",
					Aliases: []string{"u"},
					Value:   0,
					Usage:   "Use limit; zero or less means unlimited",
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

				capabilityUseCase, err := container.CapabilityUseCase()
				if err != nil {
					return err
				}

				return commands.RunMintCapability(
					ctx,
					capabilityUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("subject"),
					cmd.String("action"),
					cmd.String("resource"),
					cmd.String("constraints"),
					cmd.Duration("ttl"),
					int(cmd.Int("uses")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-capability",
			Usage: "Verify a capability token against a required action and resource",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "token",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Capability token to verify",
				},
				&cli.StringFlag{
					Name:     "action",
					Aliases:  []string{"a"},
					Required: true,
					Usage:    "Action required of the capability",
				},
				&cli.StringFlag{
					Name:     "resource",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Resource to check against the capability's pattern",
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

				capabilityUseCase, err := container.CapabilityUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifyCapability(
					ctx,
					capabilityUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("token"),
					cmd.String("action"),
					cmd.String("resource"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "clean-expired-grants",
			Usage: "Delete capability grants whose expiry has passed",
			Flags: []cli.Flag{
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

				capabilityUseCase, err := container.CapabilityUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanExpiredGrants(
					ctx,
					capabilityUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
