package pos

import (
	"context"
	"fmt"
)

// CmdPartyList lists customers or suppliers
func (c *Client) CmdPartyList(ctx context.Context, kind PartyKind, search string) error {
	fmt.Printf("%sFetching %s...%s\n", Blue, kind.Path(), Reset)

	parties, err := c.ListParties(ctx, kind, search)
	if err != nil {
		return err
	}
	if len(parties) == 0 {
		fmt.Printf("%sNo %s found%s\n", Yellow, kind.Path(), Reset)
		return nil
	}

	fmt.Printf("\n%s%s (%d):%s\n", Cyan, kind.Plural(), len(parties), Reset)
	for _, p := range parties {
		fmt.Printf("  %4d  %s", p.ID, p.Name)
		if phone := firstNonEmpty(p.Mobile, p.Phone); phone != "" {
			fmt.Printf(" - %s%s%s", Yellow, phone, Reset)
		}
		if !p.OpeningBalance.IsZero() {
			fmt.Printf("  (opening %s)", c.Config.FormatMoney(p.OpeningBalance))
		}
		fmt.Println()
	}
	return nil
}

// CmdPartyGet prints one customer or supplier
func (c *Client) CmdPartyGet(ctx context.Context, kind PartyKind, id int64) error {
	fmt.Printf("%sFetching %s: %d%s\n", Blue, kind.Singular(), id, Reset)

	p, err := c.GetParty(ctx, kind, id)
	if err != nil {
		return err
	}
	return printJSON(p)
}

// CmdPartySave creates (p.ID == 0) or updates a customer or supplier
func (c *Client) CmdPartySave(ctx context.Context, kind PartyKind, p Party) error {
	if p.ID == 0 {
		fmt.Printf("%sCreating %s: %s%s\n", Blue, kind.Singular(), p.Name, Reset)
	} else {
		fmt.Printf("%sUpdating %s: %d%s\n", Blue, kind.Singular(), p.ID, Reset)
	}

	msg, err := c.SaveParty(ctx, kind, p)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = kind.Singular() + " saved"
	}
	fmt.Printf("%s✓ %s%s\n", Green, msg, Reset)
	return nil
}

// CmdPartyUpdate loads a party, applies changes and saves it
func (c *Client) CmdPartyUpdate(ctx context.Context, kind PartyKind, id int64, apply func(*Party)) error {
	p, err := c.GetParty(ctx, kind, id)
	if err != nil {
		return err
	}
	apply(p)
	p.ID = id
	return c.CmdPartySave(ctx, kind, *p)
}

// CmdTermList lists categories or units
func (c *Client) CmdTermList(ctx context.Context, kind TermKind, search string) error {
	fmt.Printf("%sFetching %s...%s\n", Blue, kind.Path(), Reset)

	terms, err := c.ListTerms(ctx, kind, search)
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		fmt.Printf("%sNo %s found%s\n", Yellow, kind.Path(), Reset)
		return nil
	}

	fmt.Printf("\n%s%s (%d):%s\n", Cyan, kind.Plural(), len(terms), Reset)
	for _, t := range terms {
		fmt.Printf("  %4d  %s", t.ID, t.Name)
		if t.Description != "" {
			fmt.Printf(" - %s%s%s", Yellow, truncate(t.Description, 50), Reset)
		}
		fmt.Println()
	}
	return nil
}

// CmdTermGet prints one category or unit
func (c *Client) CmdTermGet(ctx context.Context, kind TermKind, id int64) error {
	fmt.Printf("%sFetching %s: %d%s\n", Blue, kind.Singular(), id, Reset)

	t, err := c.GetTerm(ctx, kind, id)
	if err != nil {
		return err
	}
	return printJSON(t)
}

// CmdTermSave creates (t.ID == 0) or updates a category or unit
func (c *Client) CmdTermSave(ctx context.Context, kind TermKind, t Term) error {
	if t.ID == 0 {
		fmt.Printf("%sCreating %s: %s%s\n", Blue, kind.Singular(), t.Name, Reset)
	} else {
		fmt.Printf("%sUpdating %s: %d%s\n", Blue, kind.Singular(), t.ID, Reset)
	}

	msg, err := c.SaveTerm(ctx, kind, t)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = kind.Singular() + " saved"
	}
	fmt.Printf("%s✓ %s%s\n", Green, msg, Reset)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
