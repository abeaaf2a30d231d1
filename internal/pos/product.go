package pos

import (
	"context"
	"encoding/json"
	"fmt"
)

// printJSON dumps v indented, like the get commands do
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// CmdDelete deletes one entity by id
func (c *Client) CmdDelete(ctx context.Context, path, label string, id int64) error {
	fmt.Printf("%sDeleting %s %d...%s\n", Blue, label, id, Reset)
	if err := c.DeleteResource(ctx, path, id); err != nil {
		return err
	}
	fmt.Printf("%s✓ %s deleted: %d%s\n", Green, label, id, Reset)
	return nil
}

// CmdProductList lists products, optionally filtered
func (c *Client) CmdProductList(ctx context.Context, search string) error {
	fmt.Printf("%sFetching products...%s\n", Blue, Reset)

	products, err := c.ListProducts(ctx, search)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Printf("%sNo products found%s\n", Yellow, Reset)
		return nil
	}

	fmt.Printf("\n%sProducts (%d):%s\n", Cyan, len(products), Reset)
	for _, p := range products {
		stock := fmt.Sprintf("%s %s", p.Quantity, p.UnitName())
		if p.LowStock() {
			stock = Red + stock + " [low]" + Reset
		}
		fmt.Printf("  %4d  %-30s %12s  %s", p.ID, truncate(p.Name, 30), c.Config.FormatMoney(p.SellingPrice), stock)
		if p.SKU != "" {
			fmt.Printf(" - %s%s%s", Yellow, p.SKU, Reset)
		}
		fmt.Println()
	}
	return nil
}

// CmdProductGet prints one product
func (c *Client) CmdProductGet(ctx context.Context, id int64) error {
	fmt.Printf("%sFetching product: %d%s\n", Blue, id, Reset)

	p, err := c.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(p)
}

// CmdProductSave creates (id == 0) or updates a product
func (c *Client) CmdProductSave(ctx context.Context, id int64, in ProductInput) error {
	if id == 0 {
		fmt.Printf("%sCreating product: %s%s\n", Blue, in.Name, Reset)
	} else {
		fmt.Printf("%sUpdating product: %d%s\n", Blue, id, Reset)
	}

	msg, err := c.SaveProduct(ctx, id, in)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Product saved"
	}
	fmt.Printf("%s✓ %s%s\n", Green, msg, Reset)
	return nil
}

// CmdProductUpdate loads a product, applies changes and saves it
func (c *Client) CmdProductUpdate(ctx context.Context, id int64, apply func(*ProductInput)) error {
	p, err := c.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	in := ProductInputFrom(*p)
	apply(&in)
	return c.CmdProductSave(ctx, id, in)
}

// CmdProductImages lists the pictures of a product
func (c *Client) CmdProductImages(ctx context.Context, id int64) error {
	images, err := c.ListProductImages(ctx, id)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		fmt.Printf("%sNo images for product %d%s\n", Yellow, id, Reset)
		return nil
	}

	fmt.Printf("\n%sImages (%d):%s\n", Cyan, len(images), Reset)
	for _, img := range images {
		fmt.Printf("  %4d  %s\n", img.ID, img.FullLocation)
	}
	return nil
}

// CmdProductUpload uploads image files to a product
func (c *Client) CmdProductUpload(ctx context.Context, id int64, paths []string) error {
	fmt.Printf("%sUploading %d image(s) to product %d...%s\n", Blue, len(paths), id, Reset)

	images, err := c.UploadProductImages(ctx, id, paths)
	if err != nil {
		return fmt.Errorf("failed to upload images: %w", err)
	}
	fmt.Printf("%s✓ Images uploaded: %d%s\n", Green, len(images), Reset)
	for _, img := range images {
		fmt.Printf("  %4d  %s\n", img.ID, img.FullLocation)
	}
	return nil
}

// CmdProductDeleteImage removes a picture
func (c *Client) CmdProductDeleteImage(ctx context.Context, id, imageID int64) error {
	if err := c.DeleteProductImage(ctx, id, imageID); err != nil {
		return err
	}
	fmt.Printf("%s✓ Image deleted: %d%s\n", Green, imageID, Reset)
	return nil
}
