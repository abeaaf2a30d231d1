package pos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// startListLoad fetches the current list with the current query. Every load
// takes a search generation so that older responses are discarded.
func (m *Model) startListLoad() tea.Cmd {
	gen := m.searchGate.Next()
	ctx, _ := m.searchGate.Begin(m.ctx, gen)
	m.loading = true
	return m.loadList(ctx, m.view, m.search.Value(), gen)
}

func (m Model) loadList(ctx context.Context, view View, search string, gen uint64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		items, err := fetchListItems(ctx, client, view, strings.TrimSpace(search))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errorMsg{err}
		}
		return dataLoadedMsg{view: view, gen: gen, items: items}
	}
}

func fetchListItems(ctx context.Context, c *Client, view View, search string) ([]ListItem, error) {
	money := c.Config.FormatMoney
	var items []ListItem

	switch view {
	case ViewProducts:
		products, err := c.ListProducts(ctx, search)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			details := fmt.Sprintf("%s • %s %s in stock", money(p.SellingPrice), p.Quantity, p.UnitName())
			if p.SKU != "" {
				details = p.SKU + " • " + details
			}
			if p.LowStock() {
				details += " • low stock"
			}
			items = append(items, ListItem{id: p.ID, name: p.Name, details: details})
		}

	case ViewCategories, ViewUnits:
		terms, err := c.ListTerms(ctx, termKindFor(view), search)
		if err != nil {
			return nil, err
		}
		for _, t := range terms {
			items = append(items, ListItem{id: t.ID, name: t.Name, details: firstNonEmpty(t.Description, termKindFor(view).Singular())})
		}

	case ViewCustomers, ViewSuppliers:
		parties, err := c.ListParties(ctx, partyKindFor(view), search)
		if err != nil {
			return nil, err
		}
		for _, p := range parties {
			details := firstNonEmpty(p.Mobile, p.Phone, p.Address, partyKindFor(view).Singular())
			items = append(items, ListItem{id: p.ID, name: p.Name, details: details})
		}

	case ViewSales, ViewPurchases:
		kind := invoiceKindFor(view)
		docs, err := c.ListInvoices(ctx, kind, search)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			details := fmt.Sprintf("%s • %s • %s", FormatDate(d.Date()), d.CounterpartyName(), money(d.GrandTotal))
			items = append(items, ListItem{id: d.ID, name: kind.DocumentName(d.ID), details: details})
		}
	}

	return items, nil
}

// setListItems swaps in freshly loaded rows
func (m *Model) setListItems(rows []ListItem) {
	items := make([]list.Item, len(rows))
	for i, item := range rows {
		items[i] = item
	}

	m.currentList = list.New(items, menuDelegate(), m.width-4, m.height-9)
	m.currentList.SetShowStatusBar(true)
	// Searching happens server side
	m.currentList.SetFilteringEnabled(false)
	m.currentList.Styles.Title = titleStyle
	m.listReady = true

	m.setListTitle()
}

// setListTitle sets the list title based on current view
func (m *Model) setListTitle() {
	var title string
	switch m.view {
	case ViewProducts:
		title = "Products"
	case ViewCategories, ViewUnits:
		title = termKindFor(m.view).Plural()
	case ViewCustomers, ViewSuppliers:
		title = partyKindFor(m.view).Plural()
	case ViewSales, ViewPurchases:
		title = invoiceKindFor(m.view).Plural()
	}
	if q := strings.TrimSpace(m.search.Value()); q != "" {
		title += fmt.Sprintf(" matching %q", q)
	}
	m.currentList.Title = title
}

// updateSearch edits the list query. Each keystroke restarts the quiet
// period; only the last one reaches the server.
func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return nil

	case "esc":
		m.searching = false
		m.search.Blur()
		if m.search.Value() == "" {
			return nil
		}
		m.search.SetValue("")
		return m.startListLoad()
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return cmd
	}

	gen := m.searchGate.Next()
	return tea.Batch(cmd, tea.Tick(CounterpartySearchDelay, func(time.Time) tea.Msg {
		return listSearchTickMsg{gen: gen}
	}))
}

func (m Model) renderList() string {
	var b strings.Builder

	if m.searching || m.search.Value() != "" {
		b.WriteString("  " + m.search.View())
		if m.loading {
			b.WriteString("  " + m.spinner.View())
		}
		b.WriteString("\n")
	}

	if !m.listReady {
		b.WriteString(fmt.Sprintf("\n  %s Loading...", m.spinner.View()))
		return b.String()
	}
	if len(m.currentList.Items()) == 0 {
		b.WriteString(m.currentList.Styles.Title.Render(m.currentList.Title))
		b.WriteString("\n\n  Nothing found")
		return b.String()
	}

	b.WriteString(m.currentList.View())
	return b.String()
}

func (m Model) loadProduct(id int64) tea.Cmd {
	return func() tea.Msg {
		p, err := m.client.GetProduct(m.ctx, id)
		if err != nil {
			return errorMsg{err}
		}
		return productLoadedMsg{p}
	}
}

func (m Model) loadImages(productID int64) tea.Cmd {
	return func() tea.Msg {
		images, err := m.client.ListProductImages(m.ctx, productID)
		if err != nil {
			return errorMsg{err}
		}
		return imagesLoadedMsg{images}
	}
}

func (m Model) loadTerm(kind TermKind, id int64) tea.Cmd {
	return func() tea.Msg {
		t, err := m.client.GetTerm(m.ctx, kind, id)
		if err != nil {
			return errorMsg{err}
		}
		return termLoadedMsg{t}
	}
}

func (m Model) loadParty(kind PartyKind, id int64) tea.Cmd {
	return func() tea.Msg {
		p, err := m.client.GetParty(m.ctx, kind, id)
		if err != nil {
			return errorMsg{err}
		}
		return partyLoadedMsg{p}
	}
}

func (m Model) renderLoading() string {
	return fmt.Sprintf("\n  %s Loading...", m.spinner.View())
}

func (m Model) renderProductDetail() string {
	if m.loading || m.product == nil {
		return m.renderLoading()
	}
	p := m.product
	money := m.client.Config.FormatMoney

	var b strings.Builder
	b.WriteString(titleStyle.Render(" Product: "+p.Name) + "\n\n")

	b.WriteString(fmt.Sprintf("  ID: %d\n", p.ID))
	if p.SKU != "" {
		b.WriteString(fmt.Sprintf("  SKU: %s\n", p.SKU))
	}
	if p.Category != nil {
		b.WriteString(fmt.Sprintf("  Category: %s\n", p.Category.Name))
	}
	b.WriteString(fmt.Sprintf("  Cost price: %s\n", money(p.CostPrice)))
	b.WriteString(fmt.Sprintf("  Selling price: %s\n", money(p.SellingPrice)))

	stock := fmt.Sprintf("%s %s", p.Quantity, p.UnitName())
	if p.LowStock() {
		stock += " " + lowStockBadge.Render("LOW")
	}
	b.WriteString(fmt.Sprintf("  Stock: %s\n", stock))
	if !p.LowStockQuantity.IsZero() {
		b.WriteString(fmt.Sprintf("  Low stock at: %s\n", p.LowStockQuantity))
	}
	if p.HSNCode != "" {
		b.WriteString(fmt.Sprintf("  HSN code: %s\n", p.HSNCode))
	}
	if p.Barcode != "" {
		b.WriteString(fmt.Sprintf("  Barcode: %s\n", p.Barcode))
	}
	if p.Description != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", p.Description))
	}

	return boxStyle.Render(b.String())
}

func (m Model) renderImages() string {
	if m.loading {
		return m.renderLoading()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(" Images: "+m.selectedName) + "\n\n")
	if len(m.images) == 0 {
		b.WriteString("  No images, press u to upload")
		return boxStyle.Render(b.String())
	}
	for i, img := range m.images {
		line := fmt.Sprintf("%4d  %s", img.ID, img.FullLocation)
		if i == m.imageCursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return boxStyle.Render(b.String())
}

func (m Model) renderTermDetail() string {
	if m.loading || m.term == nil {
		return m.renderLoading()
	}
	kind := termKindFor(m.listView)

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf(" %s: %s", kind.Singular(), m.term.Name)) + "\n\n")
	b.WriteString(fmt.Sprintf("  ID: %d\n", m.term.ID))
	b.WriteString(fmt.Sprintf("  Name: %s\n", m.term.Name))
	if m.term.Description != "" {
		b.WriteString(fmt.Sprintf("  Description: %s\n", m.term.Description))
	}
	return boxStyle.Render(b.String())
}

func (m Model) renderPartyDetail() string {
	if m.loading || m.party == nil {
		return m.renderLoading()
	}
	p := m.party
	kind := partyKindFor(m.listView)

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf(" %s: %s", kind.Singular(), p.Name)) + "\n\n")

	rows := [][2]string{
		{"Address", p.Address},
		{"Phone", p.Phone},
		{"Mobile", p.Mobile},
		{"Tax number", p.TaxNumber},
		{"Description", p.Description},
	}
	b.WriteString(fmt.Sprintf("  ID: %d\n", p.ID))
	for _, r := range rows {
		if r[1] != "" {
			b.WriteString(fmt.Sprintf("  %s: %s\n", r[0], r[1]))
		}
	}
	b.WriteString(fmt.Sprintf("  Opening balance: %s\n", m.client.Config.FormatMoney(p.OpeningBalance)))

	return boxStyle.Render(b.String())
}

// deleteTarget is what the confirm dialog will remove
type deleteTarget struct {
	path    string
	label   string
	id      int64
	name    string
	imageOf int64 // product id when deleting an image
}

// askDelete opens the confirm dialog for the highlighted or open entity
func (m *Model) askDelete() {
	var t deleteTarget

	switch m.view {
	case ViewProducts, ViewCategories, ViewUnits, ViewSuppliers, ViewCustomers:
		item, ok := m.currentList.SelectedItem().(ListItem)
		if !ok || !m.listReady {
			return
		}
		t = deleteTarget{id: item.id, name: item.name}
		t.path, t.label = listDeletePath(m.view)

	case ViewProductDetail, ViewTermDetail, ViewPartyDetail:
		t = deleteTarget{id: m.selectedID, name: m.selectedName}
		t.path, t.label = listDeletePath(m.listView)

	case ViewProductImages:
		if m.imageCursor >= len(m.images) {
			return
		}
		img := m.images[m.imageCursor]
		t = deleteTarget{label: "image", id: img.ID, name: img.FullLocation, imageOf: m.selectedID}

	default:
		return
	}

	m.deleteTarget = t
	m.prevView = m.view
	m.view = ViewConfirmDelete
}

func listDeletePath(v View) (path, label string) {
	switch v {
	case ViewProducts:
		return "products", "product"
	case ViewCategories, ViewUnits:
		k := termKindFor(v)
		return k.Path(), strings.ToLower(k.Singular())
	default:
		k := partyKindFor(v)
		return k.Path(), strings.ToLower(k.Singular())
	}
}

// handleDeleteForView runs the confirmed delete
func (m *Model) handleDeleteForView() tea.Cmd {
	t := m.deleteTarget

	// A deleted detail has nothing left to show
	switch m.view {
	case ViewProductDetail, ViewTermDetail, ViewPartyDetail:
		m.view = m.listView
		if len(m.breadcrumbs) > 3 {
			m.breadcrumbs = m.breadcrumbs[:3]
		}
	}

	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		var err error
		if t.imageOf != 0 {
			err = client.DeleteProductImage(ctx, t.imageOf, t.id)
		} else {
			err = client.DeleteResource(ctx, t.path, t.id)
		}
		if err != nil {
			return errorMsg{err}
		}
		return actionDoneMsg{fmt.Sprintf("Deleted %s: %s", t.label, t.name)}
	}
}
