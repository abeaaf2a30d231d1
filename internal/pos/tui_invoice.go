package pos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

// Editor focus slots: the three header inputs, then the line table
const (
	headerCounterparty = iota
	headerInvoiceDate
	headerDueDate
	focusLines
)

const suggestionLimit = 8

// invoiceScreen is the TUI state around an InvoiceEditor
type invoiceScreen struct {
	editor *InvoiceEditor
	header []textinput.Model
	focus  int
	cursor int // selected line
	saving bool
	err    string

	partyGate   *SearchGate
	parties     []Party
	partyCursor int

	// line item form
	form          []textinput.Model
	formFocus     int
	formBase      LineItem  // ids of the picked product
	formExisting  *LineItem // line being edited, nil when adding
	productGate   *SearchGate
	products      []Product
	productCursor int
	formErr       string
}

type partySearchTickMsg struct {
	gen   uint64
	query string
}

type partySuggestionsMsg struct {
	gen     uint64
	parties []Party
	err     error
}

type productSearchTickMsg struct {
	gen   uint64
	query string
}

type productSuggestionsMsg struct {
	gen      uint64
	products []Product
	err      error
}

type invoiceSavedMsg struct {
	message string
	err     error
}

type pdfExportedMsg struct {
	path string
}

func newInvoiceScreen(e *InvoiceEditor) *invoiceScreen {
	s := &invoiceScreen{
		editor:      e,
		partyGate:   &SearchGate{},
		productGate: &SearchGate{},
	}

	values := []string{
		e.Header.CounterpartyName,
		e.Header.InvoiceDate.Format(dateLayout),
		e.Header.DueDate.Format(dateLayout),
	}
	placeholders := []string{
		"type to search " + strings.ToLower(e.Kind.Counterparty().Plural()),
		"YYYY-MM-DD",
		"YYYY-MM-DD",
	}
	s.header = make([]textinput.Model, len(values))
	for i := range values {
		s.header[i] = textinput.New()
		s.header[i].Placeholder = placeholders[i]
		s.header[i].CharLimit = 128
		s.header[i].Width = 40
		s.header[i].SetValue(values[i])
	}
	s.header[headerInvoiceDate].Width = 12
	s.header[headerDueDate].Width = 12

	// Existing documents open on their lines
	if e.ID != 0 {
		s.focus = focusLines
	}
	return s
}

func (s *invoiceScreen) focusHeader() tea.Cmd {
	var cmd tea.Cmd
	for i := range s.header {
		if i == s.focus {
			cmd = s.header[i].Focus()
		} else {
			s.header[i].Blur()
		}
	}
	return cmd
}

func (s *invoiceScreen) focusForm() tea.Cmd {
	var cmd tea.Cmd
	for i := range s.form {
		if i == s.formFocus {
			cmd = s.form[i].Focus()
		} else {
			s.form[i].Blur()
		}
	}
	return cmd
}

func (s *invoiceScreen) closeParties() {
	s.partyGate.Stop()
	s.parties = nil
	s.partyCursor = 0
}

func (s *invoiceScreen) closeProducts() {
	s.productGate.Stop()
	s.products = nil
	s.productCursor = 0
}

func (s *invoiceScreen) chooseParty(p Party) {
	s.editor.Header.CounterpartyID = p.ID
	s.editor.Header.CounterpartyName = p.Name
	s.header[headerCounterparty].SetValue(p.Name)
	s.header[headerCounterparty].CursorEnd()
	s.closeParties()
	s.focus = headerInvoiceDate
}

// applyHeader copies the typed dates into the editor
func (s *invoiceScreen) applyHeader() error {
	parse := func(label string, i int) (time.Time, error) {
		t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s.header[i].Value()), time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD", label)
		}
		return t, nil
	}

	invoiceDate, err := parse("invoice date", headerInvoiceDate)
	if err != nil {
		return err
	}
	dueDate, err := parse("due date", headerDueDate)
	if err != nil {
		return err
	}
	s.editor.Header.InvoiceDate = invoiceDate
	s.editor.Header.DueDate = dueDate
	return nil
}

func (s *invoiceScreen) lineIndex(productID int64) int {
	for i, li := range s.editor.Items.Items() {
		if li.ProductID == productID {
			return i
		}
	}
	return 0
}

// openEditor shows the editor for a new or loaded document
func (m *Model) openEditor(e *InvoiceEditor) tea.Cmd {
	m.inv = newInvoiceScreen(e)
	m.docKind = e.Kind
	m.view = ViewInvoiceEditor
	m.message = ""
	if len(m.breadcrumbs) > 3 {
		m.breadcrumbs = m.breadcrumbs[:3]
	}
	m.breadcrumbs = append(m.breadcrumbs, e.Title())
	return m.inv.focusHeader()
}

// closeEditor drops the editor state and shows to
func (m *Model) closeEditor(to View) {
	if m.inv != nil {
		m.inv.partyGate.Stop()
		m.inv.productGate.Stop()
	}
	m.inv = nil
	m.view = to
	if len(m.breadcrumbs) > 3 {
		m.breadcrumbs = m.breadcrumbs[:3]
	}
	if to == ViewInvoiceDetail {
		m.breadcrumbs = append(m.breadcrumbs, m.selectedName)
	}
}

// updateEditor handles keys on the invoice editor
func (m *Model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	s := m.inv
	if s == nil {
		m.view = m.prevView
		return nil
	}
	if s.saving {
		return nil
	}

	key := msg.String()
	switch key {
	case "ctrl+s":
		return m.saveInvoice()

	case "esc":
		if len(s.parties) > 0 {
			s.closeParties()
			return nil
		}
		m.closeEditor(m.prevView)
		return nil

	case "tab":
		s.closeParties()
		s.focus = (s.focus + 1) % (focusLines + 1)
		return s.focusHeader()

	case "shift+tab":
		s.closeParties()
		s.focus = (s.focus + focusLines) % (focusLines + 1)
		return s.focusHeader()
	}

	if s.focus == focusLines {
		return m.updateEditorLines(key)
	}

	if s.focus == headerCounterparty && len(s.parties) > 0 {
		switch key {
		case "up":
			if s.partyCursor > 0 {
				s.partyCursor--
			}
			return nil
		case "down":
			if s.partyCursor < len(s.parties)-1 {
				s.partyCursor++
			}
			return nil
		case "enter":
			s.chooseParty(s.parties[s.partyCursor])
			return s.focusHeader()
		}
	}

	if key == "enter" {
		s.focus++
		return s.focusHeader()
	}

	before := s.header[s.focus].Value()
	var cmd tea.Cmd
	s.header[s.focus], cmd = s.header[s.focus].Update(msg)
	if s.header[s.focus].Value() == before {
		return cmd
	}
	s.err = ""
	if s.focus != headerCounterparty {
		return cmd
	}

	// The typed text no longer names the chosen party
	query := strings.TrimSpace(s.header[headerCounterparty].Value())
	s.editor.Header.CounterpartyID = 0
	s.editor.Header.CounterpartyName = query

	gen := s.partyGate.Next()
	if query == "" {
		s.parties = nil
		return cmd
	}
	return tea.Batch(cmd, tea.Tick(CounterpartySearchDelay, func(time.Time) tea.Msg {
		return partySearchTickMsg{gen: gen, query: query}
	}))
}

func (m *Model) updateEditorLines(key string) tea.Cmd {
	s := m.inv
	n := s.editor.Items.Len()

	switch key {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < n-1 {
			s.cursor++
		}
	case "a", "n":
		return m.openLineForm(nil)
	case "enter", "e":
		if li, ok := s.editor.Items.At(s.cursor); ok {
			return m.openLineForm(&li)
		}
	case "d", "x", "delete":
		if li, ok := s.editor.Items.At(s.cursor); ok {
			s.editor.Items.Remove(li.ProductID)
			if s.cursor >= s.editor.Items.Len() && s.cursor > 0 {
				s.cursor--
			}
		}
	}
	return nil
}

// openLineForm starts adding a line, or editing existing
func (m *Model) openLineForm(existing *LineItem) tea.Cmd {
	s := m.inv
	s.form = make([]textinput.Model, 4)
	placeholders := []string{"type to search products", "0", "0.00", "pcs"}
	for i := range s.form {
		s.form[i] = textinput.New()
		s.form[i].Placeholder = placeholders[i]
		s.form[i].CharLimit = 128
		s.form[i].Width = 40
	}

	s.formBase = LineItem{}
	s.formExisting = nil
	s.formErr = ""
	s.formFocus = 0
	s.closeProducts()

	if existing != nil {
		li := *existing
		s.formExisting = &li
		s.formBase = li
		s.setFormValues(FormFromLine(li))
	}

	m.view = ViewLineItemForm
	return s.focusForm()
}

func (s *invoiceScreen) setFormValues(f LineItemForm) {
	for i, v := range []string{f.Name, f.Quantity, f.Price, f.Unit} {
		s.form[i].SetValue(v)
		s.form[i].CursorEnd()
	}
}

func (s *invoiceScreen) chooseProduct(p Product) {
	s.formBase = SelectProduct(p, s.formExisting)
	s.setFormValues(FormFromLine(s.formBase))
	s.closeProducts()
	s.formErr = ""
	s.formFocus = 1
}

// updateLineForm handles keys on the product picker
func (m *Model) updateLineForm(msg tea.KeyMsg) tea.Cmd {
	s := m.inv
	if s == nil {
		m.view = m.prevView
		return nil
	}

	key := msg.String()
	switch key {
	case "esc":
		if len(s.products) > 0 {
			s.closeProducts()
			return nil
		}
		s.closeProducts()
		m.view = ViewInvoiceEditor
		return s.focusHeader()

	case "tab":
		s.closeProducts()
		s.formFocus = (s.formFocus + 1) % len(s.form)
		return s.focusForm()

	case "shift+tab":
		s.closeProducts()
		s.formFocus = (s.formFocus + len(s.form) - 1) % len(s.form)
		return s.focusForm()
	}

	if s.formFocus == 0 && len(s.products) > 0 {
		switch key {
		case "up":
			if s.productCursor > 0 {
				s.productCursor--
			}
			return nil
		case "down":
			if s.productCursor < len(s.products)-1 {
				s.productCursor++
			}
			return nil
		case "enter":
			s.chooseProduct(s.products[s.productCursor])
			return s.focusForm()
		}
	}

	if key == "enter" {
		return m.confirmLine()
	}

	before := s.form[s.formFocus].Value()
	var cmd tea.Cmd
	s.form[s.formFocus], cmd = s.form[s.formFocus].Update(msg)
	if s.form[s.formFocus].Value() == before {
		return cmd
	}
	s.formErr = ""
	if s.formFocus != 0 {
		return cmd
	}

	// A typed name no longer refers to the picked product
	s.formBase.ProductID = 0

	query := strings.TrimSpace(s.form[0].Value())
	gen := s.productGate.Next()
	if query == "" {
		s.products = nil
		return cmd
	}
	return tea.Batch(cmd, tea.Tick(ProductSearchDelay, func(time.Time) tea.Msg {
		return productSearchTickMsg{gen: gen, query: query}
	}))
}

// confirmLine validates the picker and writes the line into the editor
func (m *Model) confirmLine() tea.Cmd {
	s := m.inv
	f := LineItemForm{
		Name:     s.form[0].Value(),
		Quantity: s.form[1].Value(),
		Price:    s.form[2].Value(),
		Unit:     s.form[3].Value(),
	}
	li, err := f.Build(s.formBase)
	if err != nil {
		s.formErr = err.Error()
		return nil
	}

	// Picking another product while editing replaces the edited line
	if s.formExisting != nil && s.formExisting.ProductID != li.ProductID {
		s.editor.Items.Remove(s.formExisting.ProductID)
	}
	s.editor.Items.AddOrReplace(li)

	s.closeProducts()
	s.cursor = s.lineIndex(li.ProductID)
	s.focus = focusLines
	s.err = ""
	m.view = ViewInvoiceEditor
	return s.focusHeader()
}

// saveInvoice sends a snapshot of the editor. On failure the editor keeps
// every line so the user can retry.
func (m *Model) saveInvoice() tea.Cmd {
	s := m.inv
	if err := s.applyHeader(); err != nil {
		s.err = err.Error()
		return nil
	}
	if err := s.editor.Validate(); err != nil {
		s.err = err.Error()
		return nil
	}

	s.saving = true
	s.err = ""
	snapshot := *s.editor
	snapshot.Items = s.editor.Items.Clone()

	client, ctx := m.client, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		msg, err := snapshot.Save(ctx, client)
		return invoiceSavedMsg{message: msg, err: err}
	})
}

func (m Model) searchParties(ctx context.Context, kind PartyKind, query string, gen uint64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		parties, err := client.ListParties(ctx, kind, query)
		if ctx.Err() != nil {
			return nil
		}
		return partySuggestionsMsg{gen: gen, parties: parties, err: err}
	}
}

func (m Model) searchProducts(ctx context.Context, query string, gen uint64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		products, err := client.ListProducts(ctx, query)
		if ctx.Err() != nil {
			return nil
		}
		return productSuggestionsMsg{gen: gen, products: products, err: err}
	}
}

// updateInvoiceMsg handles async results for the editor and picker
func (m Model) updateInvoiceMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(pdfExportedMsg); ok {
		m.loading = false
		return m, m.notify("PDF written: " + msg.path)
	}

	s := m.inv
	if s == nil {
		return m, nil
	}

	switch msg := msg.(type) {
	case partySearchTickMsg:
		ctx, ok := s.partyGate.Begin(m.ctx, msg.gen)
		if !ok {
			return m, nil
		}
		return m, m.searchParties(ctx, s.editor.Kind.Counterparty(), msg.query, msg.gen)

	case partySuggestionsMsg:
		if !s.partyGate.Current(msg.gen) || s.focus != headerCounterparty {
			return m, nil
		}
		if msg.err != nil {
			s.err = describeError(msg.err)
			return m, nil
		}
		s.parties = msg.parties[:min(len(msg.parties), suggestionLimit)]
		s.partyCursor = 0

	case productSearchTickMsg:
		ctx, ok := s.productGate.Begin(m.ctx, msg.gen)
		if !ok {
			return m, nil
		}
		return m, m.searchProducts(ctx, msg.query, msg.gen)

	case productSuggestionsMsg:
		if !s.productGate.Current(msg.gen) || m.view != ViewLineItemForm {
			return m, nil
		}
		if msg.err != nil {
			s.formErr = describeError(msg.err)
			return m, nil
		}
		s.products = msg.products[:min(len(msg.products), suggestionLimit)]
		s.productCursor = 0

	case invoiceSavedMsg:
		s.saving = false
		if msg.err != nil {
			s.err = describeError(msg.err)
			return m, nil
		}
		m.closeEditor(invoiceListView(s.editor.Kind))
		refreshModel, refreshCmd := m.refreshCurrentView()
		m = refreshModel.(Model)
		return m, tea.Batch(refreshCmd, m.notify(msg.message))
	}

	return m, nil
}

func (m Model) loadDocument(kind InvoiceKind, id int64) tea.Cmd {
	return func() tea.Msg {
		doc, err := m.client.GetInvoice(m.ctx, kind, id)
		if err != nil {
			return errorMsg{err}
		}
		return documentLoadedMsg{doc}
	}
}

func (m Model) exportPDF(kind InvoiceKind, id int64) tea.Cmd {
	return func() tea.Msg {
		path, err := m.client.ExportInvoicePDF(m.ctx, kind, id, "")
		if err != nil {
			return errorMsg{err}
		}
		return pdfExportedMsg{path}
	}
}

func taxLabel() string {
	return fmt.Sprintf("Tax (%s%%)", TaxRate.Mul(decimal.NewFromInt(100)).String())
}

func (m Model) renderLines(b *strings.Builder, items *LineItems, cursor int) {
	money := m.client.Config.FormatMoney

	b.WriteString(dimStyle.Render(fmt.Sprintf("    %-28s %10s %-6s %12s %14s", "Product", "Qty", "Unit", "Price", "Amount")))
	b.WriteString("\n")
	for i, li := range items.Items() {
		line := fmt.Sprintf("%-28s %10s %-6s %12s %14s",
			truncate(li.Name, 28), li.Quantity, truncate(li.UnitLabel, 6), money(li.UnitPrice), money(li.Amount()))
		if i == cursor {
			b.WriteString(selectedStyle.Render("  > "+line) + "\n")
		} else {
			b.WriteString("    " + line + "\n")
		}
	}
}

func (m Model) renderTotals(b *strings.Builder, t Totals) {
	money := m.client.Config.FormatMoney
	b.WriteString(fmt.Sprintf("\n    %-60s %14s\n", "Subtotal", money(t.Subtotal)))
	b.WriteString(fmt.Sprintf("    %-60s %14s\n", taxLabel(), money(t.Tax)))
	b.WriteString(successStyle.Render(fmt.Sprintf("    %-60s %14s", "Total", money(t.Total))))
	b.WriteString("\n")
}

func (m Model) renderInvoiceDetail() string {
	if m.loading || m.document == nil {
		return m.renderLoading()
	}
	doc := m.document
	items := Hydrate(doc.Details)

	var b strings.Builder
	b.WriteString(titleStyle.Render(" "+m.docKind.DocumentName(doc.ID)+" ") + "\n\n")
	b.WriteString(fmt.Sprintf("  %s: %s\n", m.docKind.Counterparty().Singular(), doc.CounterpartyName()))
	b.WriteString(fmt.Sprintf("  Date: %s\n", FormatDate(doc.Date())))
	if doc.DueDate != "" {
		b.WriteString(fmt.Sprintf("  Due: %s\n", FormatDate(doc.DueDate)))
	}
	b.WriteString("\n")

	if items.Len() == 0 {
		b.WriteString("  No lines\n")
	} else {
		m.renderLines(&b, items, -1)
	}

	totals := items.Totals()
	m.renderTotals(&b, totals)
	if !doc.GrandTotal.IsZero() && !doc.GrandTotal.Equal(totals.Total) {
		b.WriteString(warnStyle.Render(fmt.Sprintf("    %-60s %14s", "Recorded grand total", m.client.Config.FormatMoney(doc.GrandTotal))))
		b.WriteString("\n")
	}

	return boxStyle.Render(b.String())
}

func (m Model) renderEditor() string {
	s := m.inv
	if s == nil {
		return ""
	}
	e := s.editor

	label := func(slot int, text string) string {
		if s.focus == slot {
			return selectedStyle.Render(text)
		}
		return text
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(" "+e.Title()+" ") + "\n\n")

	b.WriteString("  " + label(headerCounterparty, e.Kind.Counterparty().Singular()+":") + " ")
	b.WriteString(s.header[headerCounterparty].View())
	if e.Header.CounterpartyID != 0 {
		b.WriteString(" " + successStyle.Render("✓"))
	}
	b.WriteString("\n")
	for i, p := range s.parties {
		line := p.Name
		if phone := firstNonEmpty(p.Mobile, p.Phone); phone != "" {
			line += dimStyle.Render("  " + phone)
		}
		if i == s.partyCursor {
			b.WriteString(selectedStyle.Render("      > ") + line + "\n")
		} else {
			b.WriteString("        " + line + "\n")
		}
	}

	b.WriteString("  " + label(headerInvoiceDate, "Invoice date:") + " ")
	b.WriteString(s.header[headerInvoiceDate].View())
	b.WriteString("   " + label(headerDueDate, "Due date:") + " ")
	b.WriteString(s.header[headerDueDate].View())
	b.WriteString("\n\n")

	b.WriteString("  " + label(focusLines, fmt.Sprintf("Lines (%d)", e.Items.Len())) + "\n")
	if e.Items.Len() == 0 {
		b.WriteString(dimStyle.Render("    No products yet, tab to the lines and press a to add"))
		b.WriteString("\n")
	} else {
		cursor := -1
		if s.focus == focusLines {
			cursor = s.cursor
		}
		m.renderLines(&b, e.Items, cursor)
	}

	m.renderTotals(&b, e.Totals())

	if s.saving {
		b.WriteString(fmt.Sprintf("\n  %s Saving...", m.spinner.View()))
	}
	if s.err != "" {
		b.WriteString("\n  " + errorStyle.Render(s.err))
	}

	return boxStyle.Render(b.String())
}

func (m Model) editorHelp() string {
	if m.inv == nil {
		return ""
	}
	switch m.inv.focus {
	case focusLines:
		return "↑/↓: select line • a: add • enter: edit • d: remove • tab: header • ctrl+s: save • esc: discard"
	case headerCounterparty:
		return "type to search • ↑/↓ + enter: pick • tab: next • ctrl+s: save • esc: discard"
	}
	return "YYYY-MM-DD • tab: next • ctrl+s: save • esc: discard"
}

func (m Model) renderLineForm() string {
	s := m.inv
	if s == nil {
		return ""
	}
	money := m.client.Config.FormatMoney

	title := " Add product "
	if s.formExisting != nil {
		title = " Edit line "
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + "\n\n")

	labels := []string{"Product:", "Quantity:", "Price:", "Unit:"}
	for i, input := range s.form {
		l := labels[i]
		if i == s.formFocus {
			l = selectedStyle.Render(l)
		}
		b.WriteString(fmt.Sprintf("  %s\n  %s\n", l, input.View()))

		if i == 0 {
			for j, p := range s.products {
				line := fmt.Sprintf("%-28s %s", truncate(p.Name, 28),
					dimStyle.Render(fmt.Sprintf("%s %s in stock • %s", p.Quantity, p.UnitName(), money(p.SellingPrice))))
				if j == s.productCursor {
					b.WriteString(selectedStyle.Render("    > ") + line + "\n")
				} else {
					b.WriteString("      " + line + "\n")
				}
			}
		}
		b.WriteString("\n")
	}

	if s.formBase.ProductID != 0 {
		amount := LineItem{Quantity: parseOrZero(s.form[1].Value()), UnitPrice: parseOrZero(s.form[2].Value())}.Amount()
		b.WriteString(dimStyle.Render("  Amount: " + money(amount)))
		b.WriteString("\n")
	}
	if s.formErr != "" {
		b.WriteString("\n  " + errorStyle.Render(s.formErr))
	}

	return boxStyle.Render(b.String())
}

func parseOrZero(v string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero
	}
	return d
}
