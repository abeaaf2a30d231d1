package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/mikelcalvo/pos-cli/internal/pos"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Printf("%sError: %s%s\n", pos.Red, err, pos.Reset)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pos-cli",
		Usage:   "Point of sale and inventory client",
		Version: pos.Version,
		// No arguments launches the TUI
		Action: withClient(func(c *cli.Context, client *pos.Client) error {
			return pos.RunTUI(c.Context, client)
		}),
		Commands: []*cli.Command{
			{
				Name:   "tui",
				Usage:  "Open the interactive terminal UI",
				Action: withClient(func(c *cli.Context, client *pos.Client) error { return pos.RunTUI(c.Context, client) }),
			},
			{
				Name:  "login",
				Usage: "Sign in and store the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"POS_PASSWORD"}},
				},
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					email, password, err := pos.PromptCredentials(c.String("email"), c.String("password"))
					if err != nil {
						return err
					}
					return client.CmdLogin(c.Context, email, password)
				}),
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					r, err := pos.PromptRegistration()
					if err != nil {
						return err
					}
					return client.CmdRegister(c.Context, r)
				}),
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session token",
				Action: withClient(func(c *cli.Context, client *pos.Client) error { return client.CmdLogout() }),
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in user",
				Action: withClient(func(c *cli.Context, client *pos.Client) error { return client.CmdWhoami() }),
			},
			{
				Name:   "config",
				Usage:  "Show current configuration",
				Action: withClient(func(c *cli.Context, client *pos.Client) error { return client.CmdConfig() }),
			},
			{
				Name:   "ping",
				Usage:  "Test connection and authentication",
				Action: withClient(func(c *cli.Context, client *pos.Client) error { return client.CmdPing(c.Context) }),
			},
			{
				Name:   "report",
				Usage:  "Print the stock and trade summary",
				Action: withClient(func(c *cli.Context, client *pos.Client) error { return client.CmdReport(c.Context) }),
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("POS CLI v%s\n", pos.Version)
					return nil
				},
			},
			productCommand(),
			termCommand(pos.Categories),
			termCommand(pos.Units),
			partyCommand(pos.Suppliers),
			partyCommand(pos.Customers),
			invoiceCommand(pos.SaleInvoice),
			invoiceCommand(pos.PurchaseInvoice),
		},
	}
}

// withClient loads config and the session store before running fn
func withClient(fn func(c *cli.Context, client *pos.Client) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		config, err := pos.LoadConfig()
		if err != nil {
			return err
		}
		store, err := pos.OpenStore(config.StateDir)
		if err != nil {
			return err
		}
		return fn(c, pos.NewClient(config, store))
	}
}
