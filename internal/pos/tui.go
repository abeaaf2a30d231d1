package pos

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is printed by the version command and in the TUI footer
const Version = "1.0.0"

// Palette
var (
	colorBrand  = lipgloss.Color("#00897B")
	colorInk    = lipgloss.Color("#F5F5F5")
	colorBar    = lipgloss.Color("#263238")
	colorGood   = lipgloss.Color("#43A047")
	colorWarn   = lipgloss.Color("#FB8C00")
	colorBad    = lipgloss.Color("#E53935")
	colorMuted  = lipgloss.Color("#757575")
	colorFaint  = lipgloss.Color("#9E9E9E")
	colorOnDark = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorInk).Background(colorBrand).Padding(0, 1)
	statusBarStyle = lipgloss.NewStyle().Foreground(colorInk).Background(colorBar).Padding(0, 1)
	onlineStyle    = lipgloss.NewStyle().Foreground(colorGood).Bold(true)
	warnStyle      = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(colorBad).Bold(true)
	successStyle   = lipgloss.NewStyle().Foreground(colorGood).Bold(true)
	helpStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	creditStyle    = lipgloss.NewStyle().Foreground(colorFaint).Italic(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(colorFaint)
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBrand).Padding(1, 2)
	lowStockBadge  = lipgloss.NewStyle().Background(colorWarn).Foreground(lipgloss.Color("#000000")).Padding(0, 1)

	notificationSuccess = lipgloss.NewStyle().Background(colorGood).Foreground(colorOnDark).Padding(0, 1).Bold(true)
	notificationError   = lipgloss.NewStyle().Background(colorBad).Foreground(colorOnDark).Padding(0, 1).Bold(true)

	breadcrumbStyle = lipgloss.NewStyle().Foreground(colorFaint)
)

// View represents different screens
type View int

const (
	ViewMain View = iota
	// Category submenus
	ViewCatalogMenu
	ViewTradeMenu
	ViewDashboard
	ViewAccount
	// Lists
	ViewProducts
	ViewCategories
	ViewUnits
	ViewSuppliers
	ViewCustomers
	ViewSales
	ViewPurchases
	// Details
	ViewProductDetail
	ViewTermDetail
	ViewPartyDetail
	ViewProductImages
	ViewInvoiceDetail
	// Forms
	ViewProductForm
	ViewTermForm
	ViewPartyForm
	ViewUploadImage
	// Invoice editing
	ViewInvoiceEditor
	ViewLineItemForm
	ViewConfirmDelete
)

// MenuItem for the main menu
type MenuItem struct {
	title       string
	description string
	view        View
}

func (i MenuItem) Title() string       { return i.title }
func (i MenuItem) Description() string { return i.description }
func (i MenuItem) FilterValue() string { return i.title }

// ListItem for resource lists
type ListItem struct {
	id      int64
	name    string
	details string
}

func (i ListItem) Title() string       { return i.name }
func (i ListItem) Description() string { return i.details }
func (i ListItem) FilterValue() string { return i.name }

func isListView(v View) bool {
	switch v {
	case ViewProducts, ViewCategories, ViewUnits, ViewSuppliers, ViewCustomers, ViewSales, ViewPurchases:
		return true
	}
	return false
}

func isFormView(v View) bool {
	switch v {
	case ViewProductForm, ViewTermForm, ViewPartyForm, ViewUploadImage:
		return true
	}
	return false
}

func termKindFor(v View) TermKind {
	if v == ViewUnits {
		return Units
	}
	return Categories
}

func partyKindFor(v View) PartyKind {
	if v == ViewSuppliers {
		return Suppliers
	}
	return Customers
}

func invoiceKindFor(v View) InvoiceKind {
	if v == ViewPurchases {
		return PurchaseInvoice
	}
	return SaleInvoice
}

func invoiceListView(k InvoiceKind) View {
	if k == PurchaseInvoice {
		return ViewPurchases
	}
	return ViewSales
}

// Model is the main TUI model
type Model struct {
	ctx         context.Context
	client      *Client
	view        View
	prevView    View
	listView    View // list the current detail/form belongs to
	width       int
	height      int
	mainMenu    list.Model
	subMenu     list.Model
	currentList list.Model
	listReady   bool
	inputs      []textinput.Model
	focusIndex  int
	formTitle   string
	formLabels  []string
	formHint    string
	message     string
	messageType string
	loading     bool

	// list search
	search     textinput.Model
	searching  bool
	searchGate *SearchGate

	// selection and loaded entities
	selectedID   int64
	selectedName string
	editingID    int64
	product      *Product
	images       []ProductImage
	imageCursor  int
	term         *Term
	party        *Party
	document     *InvoiceDocument
	docKind      InvoiceKind
	deleteTarget deleteTarget

	inv *invoiceScreen

	dashboardData    *ReportData
	spinner          spinner.Model
	breadcrumbs      []string
	notification     string
	notificationType string // "success" or "error"
	showNotification bool
	viewport         viewport.Model
	viewportReady    bool
}

// Messages
type errorMsg struct {
	err error
}

type dataLoadedMsg struct {
	view  View
	gen   uint64
	items []ListItem
}

type productLoadedMsg struct{ product *Product }

type imagesLoadedMsg struct{ images []ProductImage }

type termLoadedMsg struct{ term *Term }

type partyLoadedMsg struct{ party *Party }

type documentLoadedMsg struct{ doc *InvoiceDocument }

type productFormHintMsg struct{ hint string }

type actionDoneMsg struct {
	message string
}

type dashboardLoadedMsg struct {
	data *ReportData
}

type formSubmittedMsg struct {
	success bool
	message string
}

type listSearchTickMsg struct {
	gen uint64
}

type clearNotificationMsg struct{}

// NewTUI creates a new TUI model
func NewTUI(ctx context.Context, client *Client) Model {
	menuItems := []list.Item{
		MenuItem{"Dashboard", "Stock, sales and purchase summary", ViewDashboard},
		MenuItem{"Catalog", "Products, Categories, Units", ViewCatalogMenu},
		MenuItem{"Trade", "Sales, Purchases, Customers, Suppliers", ViewTradeMenu},
		MenuItem{"Account", "Signed-in user and session", ViewAccount},
	}

	mainMenu := list.New(menuItems, menuDelegate(), 0, 0)
	mainMenu.Title = client.Config.Brand
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	mainMenu.Styles.Title = titleStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorBrand)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.CharLimit = 64

	return Model{
		ctx:         ctx,
		client:      client,
		view:        ViewMain,
		mainMenu:    mainMenu,
		search:      search,
		searchGate:  &SearchGate{},
		spinner:     s,
		breadcrumbs: []string{"Main"},
	}
}

func menuDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = selectedStyle.BorderLeft(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorBrand).PaddingLeft(1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.Bold(false)
	return d
}

// createSubMenu replaces the submenu shown under a main menu entry
func (m *Model) createSubMenu(title string, items []list.Item) {
	m.subMenu = list.New(items, menuDelegate(), m.width-4, m.height-8)
	m.subMenu.Title = title
	m.subMenu.SetShowStatusBar(false)
	m.subMenu.SetFilteringEnabled(false)
	m.subMenu.Styles.Title = titleStyle
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// capturesKeys reports whether the current screen consumes plain letters
func (m Model) capturesKeys() bool {
	return m.searching || isFormView(m.view) || m.view == ViewInvoiceEditor || m.view == ViewLineItemForm
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.capturesKeys() {
			var cmd tea.Cmd
			switch {
			case m.searching:
				cmd = m.updateSearch(msg)
			case m.view == ViewInvoiceEditor:
				cmd = m.updateEditor(msg)
			case m.view == ViewLineItemForm:
				cmd = m.updateLineForm(msg)
			default:
				cmd = m.updateFormInputs(msg)
			}
			return m, cmd
		}

		m.message = ""
		m.messageType = ""

		switch msg.String() {
		case "q":
			if m.view == ViewMain {
				return m, tea.Quit
			}
			m.view = ViewMain
			m.breadcrumbs = []string{"Main"}
			return m, nil

		case "esc":
			m.goBack()
			return m, nil

		case "enter":
			return m.handleEnter()

		case "/":
			if isListView(m.view) {
				m.searching = true
				return m, m.search.Focus()
			}

		case "n":
			if m.view == ViewConfirmDelete {
				m.view = m.prevView
				return m, nil
			}
			return m.handleNew()

		case "e":
			return m.handleEdit()

		case "d", "delete":
			m.askDelete()
			return m, nil

		case "y":
			if m.view == ViewConfirmDelete {
				m.view = m.prevView
				m.loading = true
				return m, m.handleDeleteForView()
			}

		case "i":
			if m.view == ViewProductDetail && m.product != nil {
				m.view = ViewProductImages
				m.breadcrumbs = append(m.breadcrumbs, "Images")
				m.loading = true
				return m, m.loadImages(m.product.ID)
			}

		case "u":
			if m.view == ViewProductImages {
				m.initUploadForm()
				m.prevView = ViewProductImages
				m.view = ViewUploadImage
				return m, nil
			}

		case "p":
			if m.view == ViewInvoiceDetail && m.document != nil {
				m.loading = true
				return m, m.exportPDF(m.docKind, m.document.ID)
			}

		case "l":
			if m.view == ViewAccount {
				return m, m.logout()
			}

		case "up", "k":
			if m.view == ViewProductImages && m.imageCursor > 0 {
				m.imageCursor--
				return m, nil
			}

		case "down", "j":
			if m.view == ViewProductImages && m.imageCursor < len(m.images)-1 {
				m.imageCursor++
				return m, nil
			}

		case "r":
			return m.refreshCurrentView()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		h := msg.Height - 8
		w := msg.Width - 4

		m.mainMenu.SetSize(w, h)
		if len(m.subMenu.Items()) > 0 {
			m.subMenu.SetSize(w, h)
		}
		if m.listReady {
			m.currentList.SetSize(w, h-1)
		}

		headerHeight := 4 // status bar + breadcrumbs + notification + padding
		footerHeight := 4 // help + credits
		m.viewport = viewport.New(w, msg.Height-headerHeight-footerHeight)
		m.viewport.YPosition = headerHeight
		m.viewportReady = true
		if m.dashboardData != nil {
			m.viewport.SetContent(m.renderDashboardContent())
		}

	case errorMsg:
		m.loading = false
		m.message = describeError(msg.err)
		m.messageType = "error"
		return m, nil

	case listSearchTickMsg:
		if !isListView(m.view) {
			return m, nil
		}
		ctx, ok := m.searchGate.Begin(m.ctx, msg.gen)
		if !ok {
			return m, nil
		}
		m.loading = true
		return m, m.loadList(ctx, m.view, m.search.Value(), msg.gen)

	case dataLoadedMsg:
		// Results of a superseded search, or of a list the user already left
		if msg.view != m.view || !m.searchGate.Current(msg.gen) {
			return m, nil
		}
		m.loading = false
		m.setListItems(msg.items)
		return m, nil

	case productLoadedMsg:
		m.loading = false
		m.product = msg.product
		return m, nil

	case imagesLoadedMsg:
		m.loading = false
		m.images = msg.images
		m.imageCursor = min(m.imageCursor, max(len(m.images)-1, 0))
		return m, nil

	case termLoadedMsg:
		m.loading = false
		m.term = msg.term
		return m, nil

	case partyLoadedMsg:
		m.loading = false
		m.party = msg.party
		return m, nil

	case documentLoadedMsg:
		m.loading = false
		m.document = msg.doc
		return m, nil

	case productFormHintMsg:
		m.formHint = msg.hint
		return m, nil

	case actionDoneMsg:
		m.loading = false
		refreshModel, refreshCmd := m.refreshCurrentView()
		m = refreshModel.(Model)
		return m, tea.Batch(refreshCmd, m.notify(msg.message))

	case dashboardLoadedMsg:
		m.loading = false
		m.dashboardData = msg.data
		if m.viewportReady {
			m.viewport.SetContent(m.renderDashboardContent())
			m.viewport.GotoTop()
		}
		return m, nil

	case formSubmittedMsg:
		m.loading = false
		if msg.success {
			m.view = m.prevView
			m.editingID = 0
			m.inputs = nil
			refreshModel, refreshCmd := m.refreshCurrentView()
			m = refreshModel.(Model)
			return m, tea.Batch(refreshCmd, m.notify(msg.message))
		}
		m.message = msg.message
		m.messageType = "error"
		return m, nil

	case partySearchTickMsg, partySuggestionsMsg, productSearchTickMsg,
		productSuggestionsMsg, invoiceSavedMsg, pdfExportedMsg:
		return m.updateInvoiceMsg(msg)

	case clearNotificationMsg:
		m.showNotification = false
		m.notification = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch {
	case m.view == ViewMain:
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case m.view == ViewCatalogMenu || m.view == ViewTradeMenu:
		m.subMenu, cmd = m.subMenu.Update(msg)
	case m.view == ViewDashboard:
		m.viewport, cmd = m.viewport.Update(msg)
	case isListView(m.view) && m.listReady:
		m.currentList, cmd = m.currentList.Update(msg)
	}

	return m, cmd
}

// notify shows a success banner that clears itself after 3 seconds
func (m *Model) notify(message string) tea.Cmd {
	m.notification = message
	m.notificationType = "success"
	m.showNotification = true
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearNotificationMsg{}
	})
}

func describeError(err error) string {
	if IsUnauthorized(err) {
		return "session expired, run `pos-cli login` again"
	}
	return err.Error()
}

// listParent returns the submenu a list belongs to
func listParent(v View) (View, string) {
	switch v {
	case ViewProducts, ViewCategories, ViewUnits:
		return ViewCatalogMenu, "Catalog"
	}
	return ViewTradeMenu, "Trade"
}

func (m *Model) goBack() {
	trim := func(n int) {
		if len(m.breadcrumbs) > n {
			m.breadcrumbs = m.breadcrumbs[:n]
		}
	}

	switch m.view {
	case ViewMain:
	case ViewCatalogMenu, ViewTradeMenu, ViewDashboard, ViewAccount:
		m.view = ViewMain
		m.breadcrumbs = []string{"Main"}
	case ViewProducts, ViewCategories, ViewUnits, ViewSuppliers, ViewCustomers, ViewSales, ViewPurchases:
		m.searchGate.Stop()
		parent, title := listParent(m.view)
		m.view = parent
		m.breadcrumbs = []string{"Main", title}
	case ViewProductDetail, ViewTermDetail, ViewPartyDetail, ViewInvoiceDetail:
		m.view = m.listView
		trim(3)
	case ViewProductImages:
		m.view = ViewProductDetail
		trim(4)
	case ViewConfirmDelete:
		m.view = m.prevView
	default:
		m.view = ViewMain
		m.breadcrumbs = []string{"Main"}
	}
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewMain:
		if item, ok := m.mainMenu.SelectedItem().(MenuItem); ok {
			m.view = item.view
			m.breadcrumbs = []string{"Main", item.title}

			switch item.view {
			case ViewDashboard:
				m.loading = true
				return m, m.loadDashboard()
			case ViewCatalogMenu:
				m.createSubMenu("Catalog", []list.Item{
					MenuItem{"Products", "Products, prices and stock", ViewProducts},
					MenuItem{"Categories", "Product categories", ViewCategories},
					MenuItem{"Units", "Units of measure", ViewUnits},
				})
			case ViewTradeMenu:
				m.createSubMenu("Trade", []list.Item{
					MenuItem{"Sales", "Sale invoices", ViewSales},
					MenuItem{"Purchases", "Purchase invoices", ViewPurchases},
					MenuItem{"Customers", "Customer management", ViewCustomers},
					MenuItem{"Suppliers", "Supplier management", ViewSuppliers},
				})
			}
			return m, nil
		}

	case ViewCatalogMenu, ViewTradeMenu:
		if item, ok := m.subMenu.SelectedItem().(MenuItem); ok {
			m.view = item.view
			m.listReady = false
			m.search.SetValue("")
			m.breadcrumbs = append(m.breadcrumbs[:2], item.title)
			return m, m.startListLoad()
		}

	case ViewProducts, ViewCategories, ViewUnits, ViewSuppliers, ViewCustomers, ViewSales, ViewPurchases:
		item, ok := m.currentList.SelectedItem().(ListItem)
		if !ok || !m.listReady {
			return m, nil
		}
		m.selectedID = item.id
		m.selectedName = item.name
		m.listView = m.view
		m.loading = true
		m.breadcrumbs = append(m.breadcrumbs[:3], item.name)

		switch m.view {
		case ViewProducts:
			m.view = ViewProductDetail
			m.product = nil
			return m, m.loadProduct(item.id)
		case ViewCategories, ViewUnits:
			m.view = ViewTermDetail
			m.term = nil
			return m, m.loadTerm(termKindFor(m.listView), item.id)
		case ViewSuppliers, ViewCustomers:
			m.view = ViewPartyDetail
			m.party = nil
			return m, m.loadParty(partyKindFor(m.listView), item.id)
		case ViewSales, ViewPurchases:
			m.view = ViewInvoiceDetail
			m.document = nil
			m.docKind = invoiceKindFor(m.listView)
			return m, m.loadDocument(m.docKind, item.id)
		}
	}

	return m, nil
}

// handleNew opens an empty form for the current list
func (m Model) handleNew() (tea.Model, tea.Cmd) {
	m.editingID = 0
	switch m.view {
	case ViewProducts:
		m.initProductForm(nil)
		m.prevView = m.view
		m.view = ViewProductForm
		return m, m.loadProductFormHint()
	case ViewCategories, ViewUnits:
		m.initTermForm(termKindFor(m.view), nil)
		m.prevView = m.view
		m.view = ViewTermForm
	case ViewSuppliers, ViewCustomers:
		m.initPartyForm(partyKindFor(m.view), nil)
		m.prevView = m.view
		m.view = ViewPartyForm
	case ViewSales, ViewPurchases:
		m.prevView = m.view
		return m, m.openEditor(NewInvoiceEditor(invoiceKindFor(m.view), time.Now()))
	}
	return m, nil
}

// handleEdit opens a prefilled form for the entity on screen
func (m Model) handleEdit() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewProductDetail:
		if m.product != nil {
			m.editingID = m.product.ID
			m.initProductForm(m.product)
			m.prevView = m.listView
			m.view = ViewProductForm
			return m, m.loadProductFormHint()
		}
	case ViewTermDetail:
		if m.term != nil {
			m.editingID = m.term.ID
			m.initTermForm(termKindFor(m.listView), m.term)
			m.prevView = m.listView
			m.view = ViewTermForm
		}
	case ViewPartyDetail:
		if m.party != nil {
			m.editingID = m.party.ID
			m.initPartyForm(partyKindFor(m.listView), m.party)
			m.prevView = m.listView
			m.view = ViewPartyForm
		}
	case ViewInvoiceDetail:
		if m.document != nil {
			m.prevView = ViewInvoiceDetail
			return m, m.openEditor(EditInvoice(m.docKind, *m.document, time.Now()))
		}
	}
	return m, nil
}

func (m Model) refreshCurrentView() (tea.Model, tea.Cmd) {
	m.loading = true

	switch m.view {
	case ViewProducts, ViewCategories, ViewUnits, ViewSuppliers, ViewCustomers, ViewSales, ViewPurchases:
		return m, m.startListLoad()
	case ViewProductDetail:
		return m, m.loadProduct(m.selectedID)
	case ViewProductImages:
		return m, m.loadImages(m.selectedID)
	case ViewTermDetail:
		return m, m.loadTerm(termKindFor(m.listView), m.selectedID)
	case ViewPartyDetail:
		return m, m.loadParty(partyKindFor(m.listView), m.selectedID)
	case ViewInvoiceDetail:
		return m, m.loadDocument(m.docKind, m.selectedID)
	case ViewDashboard:
		return m, m.loadDashboard()
	}

	m.loading = false
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.view {
	case ViewMain:
		content = m.mainMenu.View()
	case ViewCatalogMenu, ViewTradeMenu:
		content = m.subMenu.View()
	case ViewDashboard:
		content = m.renderDashboard()
	case ViewAccount:
		content = m.renderAccount()
	case ViewProducts, ViewCategories, ViewUnits, ViewSuppliers, ViewCustomers, ViewSales, ViewPurchases:
		content = m.renderList()
	case ViewProductDetail:
		content = m.renderProductDetail()
	case ViewProductImages:
		content = m.renderImages()
	case ViewTermDetail:
		content = m.renderTermDetail()
	case ViewPartyDetail:
		content = m.renderPartyDetail()
	case ViewInvoiceDetail:
		content = m.renderInvoiceDetail()
	case ViewProductForm, ViewTermForm, ViewPartyForm, ViewUploadImage:
		content = m.renderForm()
	case ViewInvoiceEditor:
		content = m.renderEditor()
	case ViewLineItemForm:
		content = m.renderLineForm()
	case ViewConfirmDelete:
		content = m.renderConfirmDelete()
	}

	parts := []string{m.renderStatusBar(), m.renderBreadcrumbs()}
	if banner := m.renderBanner(); banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, content)
	if m.message != "" {
		parts = append(parts, "", m.renderMessage())
	}
	parts = append(parts, "", m.renderHelp(), m.renderCredits())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderBanner is the transient notification shown under the breadcrumbs
func (m Model) renderBanner() string {
	if !m.showNotification {
		return ""
	}
	if m.notificationType == "error" {
		return notificationError.Render("✗ " + m.notification)
	}
	return notificationSuccess.Render("✓ " + m.notification)
}

// renderMessage shows the last error until the next key press
func (m Model) renderMessage() string {
	if m.messageType == "error" {
		return errorStyle.Render("Error: " + m.message)
	}
	return successStyle.Render("✓ " + m.message)
}

func (m Model) renderStatusBar() string {
	user := warnStyle.Render("● signed out")
	if token := m.client.Token(); token != "" {
		info := ParseTokenInfo(token)
		switch {
		case info.Expired(time.Now()):
			user = warnStyle.Render("● session expired")
		case info.Identity() != "":
			user = onlineStyle.Render("● " + info.Identity())
		default:
			user = onlineStyle.Render("● signed in")
		}
	}

	status := fmt.Sprintf(" %s | %s | %s ", m.client.Config.Brand, user, m.client.Config.APIURL)
	return statusBarStyle.Render(status)
}

func (m Model) renderBreadcrumbs() string {
	if len(m.breadcrumbs) == 0 {
		return ""
	}
	return breadcrumbStyle.Render("  " + strings.Join(m.breadcrumbs, " > "))
}

func (m Model) renderHelp() string {
	var help string
	switch {
	case m.searching:
		help = "type to search • enter: keep filter • esc: clear"
	case m.view == ViewMain:
		help = "↑/↓: navigate • enter: select • q: quit"
	case m.view == ViewCatalogMenu || m.view == ViewTradeMenu:
		help = "↑/↓: navigate • enter: select • esc: back"
	case m.view == ViewSales || m.view == ViewPurchases:
		help = "↑/↓: navigate • enter: detail • n: new • /: search • r: refresh • esc: back"
	case isListView(m.view):
		help = "↑/↓: navigate • enter: detail • n: new • d: delete • /: search • r: refresh • esc: back"
	case m.view == ViewProductDetail:
		help = "esc: back • e: edit • i: images • d: delete • r: refresh"
	case m.view == ViewTermDetail || m.view == ViewPartyDetail:
		help = "esc: back • e: edit • d: delete • r: refresh"
	case m.view == ViewProductImages:
		help = "↑/↓: select • u: upload • d: delete • r: refresh • esc: back"
	case m.view == ViewInvoiceDetail:
		help = "esc: back • e: edit • p: export PDF • r: refresh"
	case m.view == ViewInvoiceEditor:
		help = m.editorHelp()
	case m.view == ViewLineItemForm:
		help = "type to search • ↑/↓: suggestion • tab: next field • enter: select/confirm • esc: cancel"
	case m.view == ViewDashboard:
		help = "↑/↓/pgup/pgdn: scroll • r: refresh • esc: back"
	case m.view == ViewAccount:
		help = "l: log out • esc: back"
	case m.view == ViewConfirmDelete:
		help = "y: confirm • n: cancel"
	case isFormView(m.view):
		help = "tab: next field • enter: submit • esc: cancel"
	}
	return helpStyle.Render(help)
}

func (m Model) renderCredits() string {
	return creditStyle.Render(fmt.Sprintf("%s • pos-cli v%s", m.client.Config.Brand, Version))
}

func (m Model) renderAccount() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Account ") + "\n\n")

	token := m.client.Token()
	if token == "" {
		b.WriteString("  Not logged in\n")
		return boxStyle.Render(b.String())
	}

	info := ParseTokenInfo(token)
	if info.IsJWT {
		if id := info.Identity(); id != "" {
			b.WriteString(fmt.Sprintf("  User: %s\n", id))
		}
		if !info.ExpiresAt.IsZero() {
			exp := info.ExpiresAt.Local().Format("Jan 2, 2006 15:04")
			if info.Expired(time.Now()) {
				exp = errorStyle.Render(exp + " (expired)")
			}
			b.WriteString(fmt.Sprintf("  Expires: %s\n", exp))
		}
	} else {
		b.WriteString(fmt.Sprintf("  Token: %s…\n", token[:min(6, len(token))]))
	}
	b.WriteString(fmt.Sprintf("  Server: %s\n", m.client.Config.APIURL))
	if m.client.Store != nil {
		b.WriteString(fmt.Sprintf("  Session file: %s\n", m.client.Store.Path()))
	}

	return boxStyle.Render(b.String())
}

func (m Model) logout() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Logout(); err != nil {
			return errorMsg{err}
		}
		return tea.Quit()
	}
}

func (m Model) renderConfirmDelete() string {
	t := m.deleteTarget
	question := fmt.Sprintf("Delete %s %q?", t.label, t.name)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render(question),
		"",
		"The record is removed on the server and cannot be restored.",
		"",
		helpStyle.Render("y delete • n keep it"),
	))
}

// RunTUI starts the TUI, asking for credentials first when no session is stored
func RunTUI(ctx context.Context, client *Client) error {
	if path := client.Config.DebugLog; path != "" {
		f, err := tea.LogToFile(path, "pos")
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer f.Close()
	} else {
		// Request logging would draw over the alt screen
		log.SetOutput(io.Discard)
		defer log.SetOutput(os.Stderr)
	}

	if client.Token() == "" {
		ok, err := RunLoginTUI(ctx, client)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	p := tea.NewProgram(NewTUI(ctx, client), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
