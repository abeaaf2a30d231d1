package pos

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

type formField struct {
	label       string
	placeholder string
	value       string
}

// initForm replaces the current form inputs
func (m *Model) initForm(title string, fields []formField) {
	m.formTitle = title
	m.formLabels = make([]string, len(fields))
	m.formHint = ""
	m.inputs = make([]textinput.Model, len(fields))

	for i, f := range fields {
		m.formLabels[i] = f.label
		m.inputs[i] = textinput.New()
		m.inputs[i].Placeholder = f.placeholder
		m.inputs[i].CharLimit = 256
		m.inputs[i].Width = 50
		m.inputs[i].SetValue(f.value)
	}
	m.inputs[0].Focus()
	m.focusIndex = 0
}

// updateFormInputs routes keys to the focused field; tab and arrows cycle focus
func (m *Model) updateFormInputs(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			return m.moveFocus(1)
		case "shift+tab", "up":
			return m.moveFocus(-1)
		case "enter":
			if m.loading {
				return nil
			}
			return m.submitCurrentForm()
		case "esc":
			m.view = m.prevView
			m.inputs = nil
			m.message = ""
			return nil
		}
	}

	if m.focusIndex >= len(m.inputs) {
		return nil
	}
	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return cmd
}

// moveFocus shifts focus by delta, wrapping at both ends
func (m *Model) moveFocus(delta int) tea.Cmd {
	n := len(m.inputs)
	if n == 0 {
		return nil
	}
	m.focusIndex = ((m.focusIndex+delta)%n + n) % n
	return m.updateFocus()
}

func (m *Model) updateFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if i != m.focusIndex {
			m.inputs[i].Blur()
			continue
		}
		cmd = m.inputs[i].Focus()
	}
	return cmd
}

// submitCurrentForm dispatches to the submit func of the open form
func (m *Model) submitCurrentForm() tea.Cmd {
	m.loading = true
	m.message = ""

	switch m.view {
	case ViewTermForm:
		return m.submitTermForm()
	case ViewPartyForm:
		return m.submitPartyForm()
	case ViewProductForm:
		return m.submitProductForm()
	case ViewUploadImage:
		return m.submitUpload()
	}

	m.loading = false
	return nil
}

func (m Model) value(i int) string {
	return strings.TrimSpace(m.inputs[i].Value())
}

func (m Model) renderForm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" "+m.formTitle+" ") + "\n\n")

	for i := range m.inputs {
		label := m.formLabels[i]
		if i == m.focusIndex {
			label = selectedStyle.Render(label)
		}
		fmt.Fprintf(&b, "  %s\n  %s\n\n", label, m.inputs[i].View())
	}

	if m.formHint != "" {
		b.WriteString(dimStyle.Render(m.formHint))
		b.WriteString("\n")
	}
	if m.loading {
		b.WriteString(fmt.Sprintf("\n  %s Saving...", m.spinner.View()))
	}

	return boxStyle.Render(b.String())
}

func formTitle(editingID int64, singular string) string {
	if editingID == 0 {
		return "Create " + singular
	}
	return fmt.Sprintf("Edit %s %d", singular, editingID)
}

// initTermForm prepares the category or unit form, prefilled from t when editing
func (m *Model) initTermForm(kind TermKind, t *Term) {
	var cur Term
	if t != nil {
		cur = *t
	}
	m.initForm(formTitle(m.editingID, kind.Singular()), []formField{
		{"Name:", kind.Singular() + " name", cur.Name},
		{"Description:", "optional", cur.Description},
	})
}

func (m Model) submitTermForm() tea.Cmd {
	kind := termKindFor(m.prevView)
	t := Term{ID: m.editingID, Name: m.value(0), Description: m.value(1)}
	return func() tea.Msg {
		msg, err := m.client.SaveTerm(m.ctx, kind, t)
		if err != nil {
			return formSubmittedMsg{false, describeError(err)}
		}
		if msg == "" {
			msg = kind.Singular() + " saved: " + t.Name
		}
		return formSubmittedMsg{true, msg}
	}
}

// initPartyForm prepares the customer or supplier form
func (m *Model) initPartyForm(kind PartyKind, p *Party) {
	var cur Party
	opening := ""
	if p != nil {
		cur = *p
		opening = p.OpeningBalance.String()
	}
	m.initForm(formTitle(m.editingID, kind.Singular()), []formField{
		{"Name:", kind.Singular() + " name", cur.Name},
		{"Address:", "optional", cur.Address},
		{"Phone:", "optional", cur.Phone},
		{"Mobile:", "optional", cur.Mobile},
		{"Tax number:", "optional", cur.TaxNumber},
		{"Opening balance:", "0", opening},
		{"Description:", "optional", cur.Description},
	})
}

func (m Model) submitPartyForm() tea.Cmd {
	kind := partyKindFor(m.prevView)
	p := Party{
		ID:          m.editingID,
		Name:        m.value(0),
		Address:     m.value(1),
		Phone:       m.value(2),
		Mobile:      m.value(3),
		TaxNumber:   m.value(4),
		Description: m.value(6),
	}
	opening, err := parseOpeningBalance(m.value(5))
	return func() tea.Msg {
		if err != nil {
			return formSubmittedMsg{false, err.Error()}
		}
		p.OpeningBalance = opening
		msg, err := m.client.SaveParty(m.ctx, kind, p)
		if err != nil {
			return formSubmittedMsg{false, describeError(err)}
		}
		if msg == "" {
			msg = kind.Singular() + " saved: " + p.Name
		}
		return formSubmittedMsg{true, msg}
	}
}

// parseOpeningBalance accepts negative amounts, which mean the party is owed money
func parseOpeningBalance(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("opening balance must be a number")
	}
	return d, nil
}

// initProductForm prepares the product form
func (m *Model) initProductForm(p *Product) {
	var in ProductInput
	if p != nil {
		in = ProductInputFrom(*p)
	}
	m.initForm(formTitle(m.editingID, "Product"), []formField{
		{"Name:", "Product name", in.Name},
		{"SKU:", "optional", in.SKU},
		{"Unit ID:", "see hint below", in.UnitID},
		{"Category ID:", "see hint below", in.CategoryID},
		{"Cost price:", "0.00", in.CostPrice},
		{"Selling price:", "0.00", in.SellingPrice},
		{"Opening stock:", "0", in.OpeningStock},
		{"Low stock quantity:", "0", in.LowStockQuantity},
		{"HSN code:", "optional", in.HSNCode},
		{"Barcode:", "optional", in.Barcode},
		{"Description:", "optional", in.Description},
	})
}

func (m Model) submitProductForm() tea.Cmd {
	id := m.editingID
	in := ProductInput{
		Name:             m.value(0),
		SKU:              m.value(1),
		UnitID:           m.value(2),
		CategoryID:       m.value(3),
		CostPrice:        m.value(4),
		SellingPrice:     m.value(5),
		OpeningStock:     m.value(6),
		LowStockQuantity: m.value(7),
		HSNCode:          m.value(8),
		Barcode:          m.value(9),
		Description:      m.value(10),
	}
	return func() tea.Msg {
		msg, err := m.client.SaveProduct(m.ctx, id, in)
		if err != nil {
			return formSubmittedMsg{false, describeError(err)}
		}
		if msg == "" {
			msg = "Product saved: " + in.Name
		}
		return formSubmittedMsg{true, msg}
	}
}

// loadProductFormHint lists unit and category ids under the product form
func (m Model) loadProductFormHint() tea.Cmd {
	return func() tea.Msg {
		units, err := m.client.ListTerms(m.ctx, Units, "")
		if err != nil {
			return productFormHintMsg{}
		}
		categories, err := m.client.ListTerms(m.ctx, Categories, "")
		if err != nil {
			return productFormHintMsg{}
		}
		return productFormHintMsg{hint: "  Units: " + termHint(units) + "\n  Categories: " + termHint(categories)}
	}
}

func termHint(terms []Term) string {
	if len(terms) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, fmt.Sprintf("%d=%s", t.ID, t.Name))
	}
	return truncate(strings.Join(parts, ", "), 120)
}

// initUploadForm asks for image paths to attach to the current product
func (m *Model) initUploadForm() {
	m.initForm("Upload images", []formField{
		{"Files:", "comma separated paths, e.g. front.jpg, back.png", ""},
	})
}

func (m Model) submitUpload() tea.Cmd {
	id := m.selectedID
	var paths []string
	for _, p := range strings.Split(m.value(0), ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return func() tea.Msg {
		images, err := m.client.UploadProductImages(m.ctx, id, paths)
		if err != nil {
			return formSubmittedMsg{false, describeError(err)}
		}
		return formSubmittedMsg{true, fmt.Sprintf("Images uploaded: %d", len(images))}
	}
}
