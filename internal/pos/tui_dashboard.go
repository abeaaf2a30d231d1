package pos

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		report, err := m.client.FetchReport(m.ctx)
		if err != nil {
			return errorMsg{err}
		}
		return dashboardLoadedMsg{report}
	}
}

// renderDashboard shows the report inside the scrollable viewport
func (m Model) renderDashboard() string {
	switch {
	case m.loading:
		return "\n  " + m.spinner.View() + " Building report..."
	case m.dashboardData == nil:
		return "\n  Nothing to show yet, press r to load"
	case !m.viewportReady:
		return "\n  Sizing..."
	}

	out := m.viewport.View() + "\n"
	if m.viewport.TotalLineCount() > m.viewport.VisibleLineCount() {
		out += helpStyle.Render(fmt.Sprintf("  %.0f%% ", m.viewport.ScrollPercent()*100))
	}
	return out
}

func (m Model) renderDashboardContent() string {
	report := m.dashboardData
	if report == nil {
		return ""
	}

	sections := []string{
		titleStyle.Render(" " + strings.ToUpper(m.client.Config.Brand) + " DASHBOARD "),
		"",
		m.renderDashboardStock(report),
		m.renderDashboardTrade(report),
		m.renderDashboardCatalog(report),
		"",
		helpStyle.Render(fmt.Sprintf("Generated %s • amounts in %s",
			report.GeneratedAt.Format("2006-01-02 15:04:05"), m.client.Config.Currency)),
	}

	if len(report.Errors) > 0 {
		sections = append(sections, "", errorStyle.Render("Some sections could not be loaded:"))
		for _, e := range report.Errors {
			sections = append(sections, "  • "+e)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderDashboardStock(data *ReportData) string {
	money := m.client.Config.FormatMoney

	var b strings.Builder
	b.WriteString(selectedStyle.Render("STOCK"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  Products:           %d\n", data.TotalProducts))
	b.WriteString(fmt.Sprintf("  Stock value:        %s\n", money(data.StockValue)))

	if data.ZeroStockItems > 0 {
		b.WriteString(fmt.Sprintf("  Out of stock:       %s\n", errorStyle.Render(fmt.Sprintf("%d", data.ZeroStockItems))))
	} else {
		b.WriteString("  Out of stock:       0\n")
	}

	if len(data.LowStock) > 0 {
		b.WriteString("\n  Low stock:\n")
		for _, p := range data.LowStock {
			b.WriteString(fmt.Sprintf("    %-28s %s\n", truncate(p.Name, 28),
				warnStyle.Render(fmt.Sprintf("%s %s (min %s)", p.Quantity, p.UnitName(), p.LowStockQuantity))))
		}
	}

	return b.String()
}

func (m Model) renderDashboardTrade(data *ReportData) string {
	money := m.client.Config.FormatMoney

	var b strings.Builder
	b.WriteString(selectedStyle.Render("TRADE"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  Sales:              %s\n", successStyle.Render(fmt.Sprintf("%d (%s)", data.SalesCount, money(data.SalesValue)))))
	b.WriteString(fmt.Sprintf("  Purchases:          %d (%s)\n", data.PurchasesCount, money(data.PurchasesValue)))

	if len(data.TopCustomers) > 0 {
		b.WriteString("\n  Top Customers:\n")
		for i, s := range data.TopCustomers {
			b.WriteString(fmt.Sprintf("    %d. %-25s %3d sales  %s\n", i+1, truncate(s.Name, 25), s.Count, money(s.Value)))
		}
	}

	return b.String()
}

func (m Model) renderDashboardCatalog(data *ReportData) string {
	rows := [][2]any{
		{"Categories", data.TotalCategories},
		{"Units", data.TotalUnits},
		{"Suppliers", data.TotalSuppliers},
		{"Customers", data.TotalCustomers},
	}

	var b strings.Builder
	b.WriteString(selectedStyle.Render("CATALOG") + "\n\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-13s %d\n", r[0].(string)+":", r[1])
	}
	return b.String()
}
