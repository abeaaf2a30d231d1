package pos

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/mux"
)

func newTestModel(t *testing.T, r *mux.Router) Model {
	t.Helper()
	m := NewTUI(context.Background(), newTestClient(t, r, "tok"))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = send(m, msg)
	}
	return m
}

// runCmd executes cmd and flattens batches. Only use it on commands that do
// not sleep.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestTUI_StaleListResultsAreDropped(t *testing.T) {
	m := newTestModel(t, mux.NewRouter())
	m.view = ViewProducts

	old := m.searchGate.Next()
	latest := m.searchGate.Next()

	m, _ = send(m, dataLoadedMsg{view: ViewProducts, gen: old, items: []ListItem{{id: 1, name: "Old"}}})
	if m.listReady {
		t.Fatal("a superseded result was rendered")
	}

	m, _ = send(m, dataLoadedMsg{view: ViewCustomers, gen: latest, items: []ListItem{{id: 1, name: "Asha"}}})
	if m.listReady {
		t.Fatal("a result for another list was rendered")
	}

	m, _ = send(m, dataLoadedMsg{view: ViewProducts, gen: latest, items: []ListItem{{id: 1, name: "Tea"}, {id: 2, name: "Rice"}}})
	if !m.listReady || len(m.currentList.Items()) != 2 {
		t.Fatalf("latest result not shown (ready=%v)", m.listReady)
	}
	if m.currentList.Title != "Products" {
		t.Errorf("title = %q", m.currentList.Title)
	}
}

func TestTUI_SearchTickOutsideListIsIgnored(t *testing.T) {
	m := newTestModel(t, mux.NewRouter())
	m.view = ViewDashboard

	_, cmd := send(m, listSearchTickMsg{gen: m.searchGate.Next()})
	if cmd != nil {
		t.Fatal("search tick started a load outside a list")
	}
}

func TestTUI_FooterShowsBrandAndVersion(t *testing.T) {
	m := newTestModel(t, mux.NewRouter())

	footer := m.renderCredits()
	for _, want := range []string{"Test Shop", "pos-cli v" + Version} {
		if !strings.Contains(footer, want) {
			t.Errorf("footer %q is missing %q", footer, want)
		}
	}
}

func TestTUI_UnauthorizedErrorMessage(t *testing.T) {
	m := newTestModel(t, mux.NewRouter())
	m, _ = send(m, errorMsg{&APIError{StatusCode: http.StatusUnauthorized, Message: "Unauthenticated."}})
	if !strings.Contains(m.message, "pos-cli login") {
		t.Fatalf("message = %q", m.message)
	}
}

func openSaleEditor(t *testing.T, r *mux.Router) Model {
	t.Helper()
	m := newTestModel(t, r)
	m.prevView = ViewSales
	m.openEditor(NewInvoiceEditor(SaleInvoice, testNow))
	if m.view != ViewInvoiceEditor {
		t.Fatalf("view = %v", m.view)
	}
	return m
}

func TestTUI_AddLineThroughPicker(t *testing.T) {
	m := openSaleEditor(t, mux.NewRouter())

	m = press(m, "tab", "tab", "tab")
	if m.inv.focus != focusLines {
		t.Fatalf("focus = %d, want lines", m.inv.focus)
	}

	m = press(m, "a")
	if m.view != ViewLineItemForm {
		t.Fatalf("view = %v, want line form", m.view)
	}

	// Results for an older query are ignored
	stale := m.inv.productGate.Next()
	gen := m.inv.productGate.Next()
	m, _ = send(m, productSuggestionsMsg{gen: stale, products: []Product{{ID: 99, Name: "Old"}}})
	if len(m.inv.products) != 0 {
		t.Fatal("stale suggestions shown")
	}
	m, _ = send(m, productSuggestionsMsg{gen: gen, products: []Product{rice()}})
	if len(m.inv.products) != 1 {
		t.Fatalf("suggestions = %d", len(m.inv.products))
	}

	m = press(m, "enter")
	if m.inv.formFocus != 1 || m.inv.form[1].Value() != "12" || m.inv.form[2].Value() != "650" {
		t.Fatalf("product not applied: focus=%d qty=%q price=%q", m.inv.formFocus, m.inv.form[1].Value(), m.inv.form[2].Value())
	}

	m = press(m, "enter")
	if m.view != ViewInvoiceEditor {
		t.Fatalf("view = %v, want editor", m.view)
	}
	li, ok := m.inv.editor.Items.Get(4)
	if !ok || li.Name != "Rice 5kg" || li.UnitLabel != "bag" {
		t.Fatalf("line = %+v", li)
	}
	if got := m.inv.editor.Totals().Total.String(); got != "8814" {
		t.Errorf("total = %s", got)
	}
}

func TestTUI_PickerDropsSupersededSuggestions(t *testing.T) {
	m := openSaleEditor(t, mux.NewRouter())
	m.inv.focus = focusLines
	m = press(m, "a", "r")
	first := m.inv.productGate.gen
	m = press(m, "i")
	second := m.inv.productGate.gen
	if first == second {
		t.Fatal("typing did not start a new search generation")
	}

	m, _ = send(m, productSuggestionsMsg{gen: first, products: []Product{{ID: 99, Name: "Rum"}}})
	if len(m.inv.products) != 0 {
		t.Fatalf("results for %q shown after typing more", "r")
	}

	m, _ = send(m, productSuggestionsMsg{gen: second, products: []Product{rice()}})
	if len(m.inv.products) != 1 {
		t.Fatalf("suggestions = %d", len(m.inv.products))
	}

	m = press(m, "enter")
	if m.inv.formBase.ProductID != 4 {
		t.Fatalf("picked product = %d, want 4", m.inv.formBase.ProductID)
	}

	// A response that arrives after the pick must not reopen the list
	m, _ = send(m, productSuggestionsMsg{gen: second, products: []Product{{ID: 99, Name: "Rum"}}})
	if len(m.inv.products) != 0 {
		t.Fatal("late suggestions shown after a product was picked")
	}
	if m.inv.formBase.ProductID != 4 || m.inv.form[0].Value() != "Rice 5kg" {
		t.Errorf("selection changed: id=%d name=%q", m.inv.formBase.ProductID, m.inv.form[0].Value())
	}
}

func TestTUI_LineFormRequiresPickedProduct(t *testing.T) {
	m := openSaleEditor(t, mux.NewRouter())
	m.inv.focus = focusLines
	m = press(m, "a")

	m.inv.chooseProduct(rice())
	m = press(m, "shift+tab", "x")
	if m.inv.formBase.ProductID != 0 {
		t.Fatal("typing a name should drop the picked product")
	}

	m = press(m, "enter")
	if m.view != ViewLineItemForm {
		t.Fatal("an unpicked product reached the editor")
	}
	if m.inv.formErr != "select a product from the suggestions" {
		t.Errorf("formErr = %q", m.inv.formErr)
	}
	if m.inv.editor.Items.Len() != 0 {
		t.Error("editor lines changed")
	}
}

func TestTUI_QTypesIntoForm(t *testing.T) {
	m := openSaleEditor(t, mux.NewRouter())
	m.inv.focus = focusLines
	m = press(m, "a", "q")

	if m.view != ViewLineItemForm {
		t.Fatalf("view = %v", m.view)
	}
	if got := m.inv.form[0].Value(); got != "q" {
		t.Fatalf("product field = %q", got)
	}
}

func TestTUI_EditLineWithOtherProductReplacesIt(t *testing.T) {
	m := openSaleEditor(t, mux.NewRouter())
	m.inv.editor.Items.AddOrReplace(item(1, "2", "10"))
	m.inv.editor.Items.AddOrReplace(item(2, "1", "5"))
	m.inv.focus = focusLines

	m = press(m, "enter")
	if m.view != ViewLineItemForm || m.inv.formExisting == nil || m.inv.formExisting.ProductID != 1 {
		t.Fatal("enter should edit the selected line")
	}

	m.inv.chooseProduct(rice())
	m = press(m, "enter")

	if ids := productIDs(m.inv.editor.Items); len(ids) != 2 || ids[0] != 2 || ids[1] != 4 {
		t.Fatalf("lines = %v, want [2 4]", ids)
	}
}

func TestTUI_RemoveLine(t *testing.T) {
	m := openSaleEditor(t, mux.NewRouter())
	m.inv.editor.Items.AddOrReplace(item(1, "1", "10"))
	m.inv.editor.Items.AddOrReplace(item(2, "1", "10"))
	m.inv.focus = focusLines

	m = press(m, "down", "d")
	if ids := productIDs(m.inv.editor.Items); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("lines = %v", ids)
	}
	if m.inv.cursor != 0 {
		t.Errorf("cursor = %d", m.inv.cursor)
	}
}

func saleRouter(result WriteResult) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/sales", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, result)
	}).Methods(http.MethodPost)
	return r
}

func readySaleEditor(t *testing.T, r *mux.Router) Model {
	t.Helper()
	m := openSaleEditor(t, r)
	m.inv.chooseParty(Party{ID: 8, Name: "Asha"})
	m.inv.editor.Items.AddOrReplace(item(1, "2", "50"))
	m.inv.focus = focusLines
	return m
}

func savedMsg(t *testing.T, cmd tea.Cmd) invoiceSavedMsg {
	t.Helper()
	for _, msg := range runCmd(cmd) {
		if saved, ok := msg.(invoiceSavedMsg); ok {
			return saved
		}
	}
	t.Fatal("save command produced no result")
	return invoiceSavedMsg{}
}

func TestTUI_SaveFailureKeepsEditor(t *testing.T) {
	m := readySaleEditor(t, saleRouter(WriteResult{Success: false, Message: "Credit limit exceeded"}))

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.inv.saving {
		t.Fatal("expected saving state")
	}

	// Keys are ignored while the request is in flight
	m = press(m, "d")
	if m.inv.editor.Items.Len() != 1 {
		t.Fatal("line removed during save")
	}

	m, _ = send(m, savedMsg(t, cmd))
	if m.view != ViewInvoiceEditor || m.inv == nil {
		t.Fatal("editor closed after a failed save")
	}
	if m.inv.saving || !strings.Contains(m.inv.err, "Credit limit exceeded") {
		t.Fatalf("saving=%v err=%q", m.inv.saving, m.inv.err)
	}
	if m.inv.editor.Items.Len() != 1 || m.inv.editor.Header.CounterpartyID != 8 {
		t.Fatal("editor state lost after a failed save")
	}
}

func TestTUI_SaveSuccessReturnsToList(t *testing.T) {
	m := readySaleEditor(t, saleRouter(WriteResult{Success: true, Message: "Sale created"}))

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = send(m, savedMsg(t, cmd))

	if m.view != ViewSales || m.inv != nil {
		t.Fatalf("view = %v, editor open = %v", m.view, m.inv != nil)
	}
	if m.notification != "Sale created" {
		t.Errorf("notification = %q", m.notification)
	}
}

func TestTUI_SaveValidationStaysLocal(t *testing.T) {
	m := openSaleEditor(t, mux.NewRouter())

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil || m.inv.saving {
		t.Fatal("an invalid invoice was sent")
	}
	if m.inv.err != "select a customer" {
		t.Errorf("err = %q", m.inv.err)
	}
}

func TestTUI_BadDateBlocksSave(t *testing.T) {
	m := readySaleEditor(t, mux.NewRouter())
	m.inv.header[headerDueDate].SetValue("31/12/2026")

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatal("save started with a bad date")
	}
	if m.inv.err != "due date must be YYYY-MM-DD" {
		t.Errorf("err = %q", m.inv.err)
	}
}

func TestTUI_TypingCounterpartyClearsSelection(t *testing.T) {
	m := readySaleEditor(t, mux.NewRouter())
	m.inv.focus = headerCounterparty
	m.inv.focusHeader()

	m = press(m, "x")
	if m.inv.editor.Header.CounterpartyID != 0 {
		t.Fatal("edited name still points at the chosen customer")
	}

	gen := m.inv.partyGate.Next()
	m, _ = send(m, partySuggestionsMsg{gen: gen, parties: []Party{{ID: 3, Name: "Ashax Stores"}}})
	m = press(m, "enter")
	if m.inv.editor.Header.CounterpartyID != 3 || m.inv.focus != headerInvoiceDate {
		t.Fatalf("party not chosen: %+v focus=%d", m.inv.editor.Header, m.inv.focus)
	}
}

func TestTUI_DiscardEditorReturnsToPreviousView(t *testing.T) {
	m := readySaleEditor(t, mux.NewRouter())
	m = press(m, "esc")
	if m.view != ViewSales || m.inv != nil {
		t.Fatalf("view = %v", m.view)
	}
}

func TestLoginTUI_RequiresFields(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/login", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "tok-1"})
	})
	client := newTestClient(t, r, "")
	m := NewLoginTUI(context.Background(), client)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(LoginModel)
	if m.step != LoginForm {
		t.Fatalf("empty form was submitted, step = %v", m.step)
	}

	m.login[0].SetValue("cashier@shop.test")
	m.login[1].SetValue("pw")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(LoginModel)
	if m.step != LoginValidating {
		t.Fatalf("step = %v", m.step)
	}

	for _, msg := range runCmd(cmd) {
		if res, ok := msg.(loginResultMsg); ok {
			next, _ = m.Update(res)
			m = next.(LoginModel)
		}
	}
	if !m.LoggedIn() || client.Token() != "tok-1" {
		t.Fatalf("login did not complete: step=%v", m.step)
	}
}

func TestLoginTUI_FailureCanRetry(t *testing.T) {
	m := NewLoginTUI(context.Background(), newTestClient(t, mux.NewRouter(), ""))
	m.step = LoginValidating
	m.prevStep = LoginForm

	next, _ := m.Update(loginResultMsg{err: errors.New("invalid credentials")})
	m = next.(LoginModel)
	if m.step != LoginError {
		t.Fatalf("step = %v", m.step)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(LoginModel)
	if m.step != LoginForm || m.err != nil {
		t.Fatalf("step = %v err = %v", m.step, m.err)
	}
}
