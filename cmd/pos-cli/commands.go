package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/mikelcalvo/pos-cli/internal/pos"
)

var searchFlag = &cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "server-side search text"}

var forceFlag = &cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "do not ask for confirmation"}

// argID parses the i-th positional argument as an id
func argID(c *cli.Context, i int, name string) (int64, error) {
	v := c.Args().Get(i)
	if v == "" {
		return 0, fmt.Errorf("missing <%s>", name)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", name, v)
	}
	return id, nil
}

func deleteCommand(path, label string) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a " + label,
		ArgsUsage: "<id>",
		Flags:     []cli.Flag{forceFlag},
		Action: withClient(func(c *cli.Context, client *pos.Client) error {
			id, err := argID(c, 0, "id")
			if err != nil {
				return err
			}
			if err := pos.ConfirmDelete(label, id, c.Bool("force")); err != nil {
				return err
			}
			return client.CmdDelete(c.Context, path, label, id)
		}),
	}
}

var productFlags = []cli.Flag{
	&cli.StringFlag{Name: "name"},
	&cli.StringFlag{Name: "sku"},
	&cli.StringFlag{Name: "unit", Usage: "unit id"},
	&cli.StringFlag{Name: "category", Usage: "category id"},
	&cli.StringFlag{Name: "description"},
	&cli.StringFlag{Name: "cost-price"},
	&cli.StringFlag{Name: "selling-price"},
	&cli.StringFlag{Name: "opening-stock"},
	&cli.StringFlag{Name: "low-stock"},
	&cli.StringFlag{Name: "hsn-code"},
	&cli.StringFlag{Name: "barcode"},
}

// applyProductFlags copies the flags that were given onto in
func applyProductFlags(c *cli.Context, in *pos.ProductInput) {
	fields := map[string]*string{
		"name":          &in.Name,
		"sku":           &in.SKU,
		"unit":          &in.UnitID,
		"category":      &in.CategoryID,
		"description":   &in.Description,
		"cost-price":    &in.CostPrice,
		"selling-price": &in.SellingPrice,
		"opening-stock": &in.OpeningStock,
		"low-stock":     &in.LowStockQuantity,
		"hsn-code":      &in.HSNCode,
		"barcode":       &in.Barcode,
	}
	for flag, dst := range fields {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
}

func productCommand() *cli.Command {
	return &cli.Command{
		Name:  "product",
		Usage: "Manage products",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List products",
				Flags: []cli.Flag{searchFlag},
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					return client.CmdProductList(c.Context, c.String("search"))
				}),
			},
			{
				Name:      "get",
				Usage:     "Show a product",
				ArgsUsage: "<id>",
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					return client.CmdProductGet(c.Context, id)
				}),
			},
			{
				Name:  "create",
				Usage: "Create a product",
				Flags: productFlags,
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					var in pos.ProductInput
					applyProductFlags(c, &in)
					return client.CmdProductSave(c.Context, 0, in)
				}),
			},
			{
				Name:      "update",
				Usage:     "Change fields of a product",
				ArgsUsage: "<id>",
				Flags:     productFlags,
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					return client.CmdProductUpdate(c.Context, id, func(in *pos.ProductInput) {
						applyProductFlags(c, in)
					})
				}),
			},
			deleteCommand("products", "product"),
			{
				Name:      "images",
				Usage:     "List the images of a product",
				ArgsUsage: "<id>",
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					return client.CmdProductImages(c.Context, id)
				}),
			},
			{
				Name:      "upload-image",
				Usage:     "Upload image files to a product",
				ArgsUsage: "<id> <file> [file...]",
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					files := c.Args().Tail()
					if len(files) == 0 {
						return fmt.Errorf("missing <file>")
					}
					return client.CmdProductUpload(c.Context, id, files)
				}),
			},
			{
				Name:      "delete-image",
				Usage:     "Remove an image from a product",
				ArgsUsage: "<id> <image-id>",
				Flags:     []cli.Flag{forceFlag},
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					imageID, err := argID(c, 1, "image-id")
					if err != nil {
						return err
					}
					if err := pos.ConfirmDelete("image", imageID, c.Bool("force")); err != nil {
						return err
					}
					return client.CmdProductDeleteImage(c.Context, id, imageID)
				}),
			},
		},
	}
}

func termCommand(kind pos.TermKind) *cli.Command {
	label := strings.ToLower(kind.Singular())
	flags := []cli.Flag{
		&cli.StringFlag{Name: "name"},
		&cli.StringFlag{Name: "description"},
	}

	return &cli.Command{
		Name:  label,
		Usage: "Manage " + strings.ToLower(kind.Plural()),
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List " + strings.ToLower(kind.Plural()),
				Flags: []cli.Flag{searchFlag},
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					return client.CmdTermList(c.Context, kind, c.String("search"))
				}),
			},
			{
				Name:      "get",
				Usage:     "Show a " + label,
				ArgsUsage: "<id>",
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					return client.CmdTermGet(c.Context, kind, id)
				}),
			},
			{
				Name:  "create",
				Usage: "Create a " + label,
				Flags: flags,
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					return client.CmdTermSave(c.Context, kind, pos.Term{
						Name:        c.String("name"),
						Description: c.String("description"),
					})
				}),
			},
			{
				Name:      "update",
				Usage:     "Change a " + label,
				ArgsUsage: "<id>",
				Flags:     flags,
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					t, err := client.GetTerm(c.Context, kind, id)
					if err != nil {
						return err
					}
					if c.IsSet("name") {
						t.Name = c.String("name")
					}
					if c.IsSet("description") {
						t.Description = c.String("description")
					}
					t.ID = id
					return client.CmdTermSave(c.Context, kind, *t)
				}),
			},
			deleteCommand(kind.Path(), label),
		},
	}
}

var partyFlags = []cli.Flag{
	&cli.StringFlag{Name: "name"},
	&cli.StringFlag{Name: "address"},
	&cli.StringFlag{Name: "phone"},
	&cli.StringFlag{Name: "mobile"},
	&cli.StringFlag{Name: "tax-number"},
	&cli.StringFlag{Name: "opening-balance"},
	&cli.StringFlag{Name: "description"},
}

// applyPartyFlags copies the flags that were given onto p
func applyPartyFlags(c *cli.Context, p *pos.Party) error {
	fields := map[string]*string{
		"name":        &p.Name,
		"address":     &p.Address,
		"phone":       &p.Phone,
		"mobile":      &p.Mobile,
		"tax-number":  &p.TaxNumber,
		"description": &p.Description,
	}
	for flag, dst := range fields {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}

	if c.IsSet("opening-balance") {
		d, err := decimal.NewFromString(c.String("opening-balance"))
		if err != nil {
			return fmt.Errorf("opening balance must be a number")
		}
		p.OpeningBalance = d
	}
	return nil
}

func partyCommand(kind pos.PartyKind) *cli.Command {
	label := strings.ToLower(kind.Singular())

	return &cli.Command{
		Name:  label,
		Usage: "Manage " + strings.ToLower(kind.Plural()),
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List " + strings.ToLower(kind.Plural()),
				Flags: []cli.Flag{searchFlag},
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					return client.CmdPartyList(c.Context, kind, c.String("search"))
				}),
			},
			{
				Name:      "get",
				Usage:     "Show a " + label,
				ArgsUsage: "<id>",
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					return client.CmdPartyGet(c.Context, kind, id)
				}),
			},
			{
				Name:  "create",
				Usage: "Create a " + label,
				Flags: partyFlags,
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					var p pos.Party
					if err := applyPartyFlags(c, &p); err != nil {
						return err
					}
					return client.CmdPartySave(c.Context, kind, p)
				}),
			},
			{
				Name:      "update",
				Usage:     "Change a " + label,
				ArgsUsage: "<id>",
				Flags:     partyFlags,
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					var flagErr error
					err = client.CmdPartyUpdate(c.Context, kind, id, func(p *pos.Party) {
						flagErr = applyPartyFlags(c, p)
					})
					if flagErr != nil {
						return flagErr
					}
					return err
				}),
			},
			deleteCommand(kind.Path(), label),
		},
	}
}

func invoiceCommand(kind pos.InvoiceKind) *cli.Command {
	label := strings.ToLower(kind.Label())

	return &cli.Command{
		Name:  label,
		Usage: "Browse " + strings.ToLower(kind.Plural()),
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List " + strings.ToLower(kind.Plural()),
				Flags: []cli.Flag{searchFlag},
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					return client.CmdInvoiceList(c.Context, kind, c.String("search"))
				}),
			},
			{
				Name:      "get",
				Usage:     "Show a " + label + " with its lines and totals",
				ArgsUsage: "<id>",
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					return client.CmdInvoiceGet(c.Context, kind, id)
				}),
			},
			{
				Name:      "pdf",
				Usage:     "Export a " + label + " to PDF",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file (default <name>.pdf)"},
				},
				Action: withClient(func(c *cli.Context, client *pos.Client) error {
					id, err := argID(c, 0, "id")
					if err != nil {
						return err
					}
					return client.CmdInvoicePDF(c.Context, kind, id, c.String("output"))
				}),
			},
		},
	}
}
