// Package browse provides the interactive TUI for exploring the property
// catalog. This file contains view rendering functions.
package browse

import (
	"errors"
	"fmt"
	"strings"

	"propscout/internal/catalog"
	"propscout/internal/conversation"
	"propscout/internal/listing"
	"propscout/internal/search"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// VIEW RENDERING
// =============================================================================

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()

	var body string
	switch m.viewMode {
	case SearchView:
		body = lipgloss.JoinVertical(lipgloss.Left, m.renderFilterBar(), m.renderResults())
	case DetailView:
		body = m.renderDetail()
	case ChatView:
		inputStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(m.styles.Theme.Accent).
			Padding(0, 1)
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.viewport.View(),
			inputStyle.Render(m.chatInput.View()))
	case SubmitView:
		body = m.renderSubmitForm()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		m.styles.Content.Render(body),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" propscout ")
	mode := m.styles.Badge.Render(m.viewMode.String())

	var status string
	switch {
	case m.statusMessage != "":
		status = m.styles.Success.Render(m.statusMessage)
	case m.coordinator.State() == search.StateLoading && m.viewMode == SearchView:
		status = lipgloss.JoinHorizontal(lipgloss.Center, m.spinner.View(), " ", m.styles.Muted.Render("Searching..."))
	case m.engine.Awaiting() && m.viewMode == ChatView:
		status = lipgloss.JoinHorizontal(lipgloss.Center, m.spinner.View(), " ", m.styles.Muted.Render("Thinking..."))
	case m.isSubmitting:
		status = lipgloss.JoinHorizontal(lipgloss.Center, m.spinner.View(), " ", m.styles.Muted.Render("Publishing..."))
	default:
		status = m.styles.Success.Render("Ready")
	}

	headerLine := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", mode, "  ", status)
	return lipgloss.JoinVertical(lipgloss.Left, headerLine, m.styles.RenderDivider(m.width))
}

func (m Model) renderFooter() string {
	var hotkeys string
	switch m.viewMode {
	case SearchView:
		hotkeys = "Tab: next filter | ↑/↓: select | Enter: open | Ctrl+R: clear filters | Ctrl+G: chat | Ctrl+N: list a property"
	case DetailView:
		hotkeys = "←/→: images | 1-9: jump to image | Esc: back"
	case ChatView:
		hotkeys = "Enter: send | Alt+1..9: open mentioned listing | Ctrl+R: new conversation | Esc: back"
	case SubmitView:
		hotkeys = "Tab: next field | Ctrl+T: type | Ctrl+F: sale/rent | Ctrl+U: unit | Ctrl+S: publish | Esc: back"
	}
	return m.styles.Footer.Render(hotkeys + " | Ctrl+C: quit")
}

// =============================================================================
// SEARCH VIEW
// =============================================================================

func (m Model) renderFilterBar() string {
	cells := make([]string, 0, len(m.filterInputs)*2)
	for i, in := range m.filterInputs {
		label := m.styles.Muted.Render(filterLabels[i] + ":")
		if i == m.filterFocus {
			label = m.styles.Prompt.Render(filterLabels[i] + ":")
		}
		cells = append(cells, label, " "+in.View()+"  ")
	}
	return m.styles.Panel.Render(lipgloss.JoinHorizontal(lipgloss.Center, cells...))
}

func (m Model) renderResults() string {
	switch m.coordinator.State() {
	case search.StateLoading:
		return "\n" + m.spinner.View() + m.styles.Muted.Render(" Loading properties...")
	case search.StateEmpty:
		return "\n" + m.styles.Muted.Render("No properties found.")
	}

	results := m.coordinator.Results()

	// Window of page_size rows that keeps the selection visible.
	pageSize := m.cfg.UI.PageSize
	if pageSize <= 0 {
		pageSize = len(results)
	}
	start := 0
	if m.selected >= pageSize {
		start = m.selected - pageSize + 1
	}
	end := start + pageSize
	if end > len(results) {
		end = len(results)
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		line := m.renderSummaryLine(results[i])
		if i == m.selected {
			line = m.styles.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}
	if end < len(results) || start > 0 {
		sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(results))) + "\n")
	}
	return sb.String()
}

func (m Model) renderSummaryLine(p catalog.PropertySummary) string {
	price := m.styles.Price.Render(formatPrice(p.Price))
	tags := fmt.Sprintf("[%s/%s]", p.PropertyType, p.ForType)

	extras := ""
	if p.Bedrooms != nil {
		extras += fmt.Sprintf("  %d BHK", *p.Bedrooms)
	}
	if p.Area != nil {
		extras += fmt.Sprintf("  %.0f %s", *p.Area, p.AreaUnit)
	}

	return fmt.Sprintf("%s  %s  %s %s%s",
		m.styles.Body.Render(p.Title), price,
		m.styles.Muted.Render(p.City), m.styles.Muted.Render(tags),
		m.styles.Muted.Render(extras))
}

// =============================================================================
// DETAIL VIEW
// =============================================================================

func (m Model) renderDetail() string {
	if m.isLoadingID {
		return "\n" + m.spinner.View() + m.styles.Muted.Render(" Loading property...")
	}
	if m.detailErr != nil {
		if errors.Is(m.detailErr, catalog.ErrNotFound) {
			return "\n" + m.styles.Warning.Render("This listing is no longer available.")
		}
		return "\n" + m.styles.Error.Render("Could not load the listing: "+m.detailErr.Error())
	}
	p := m.detail
	if p == nil {
		return ""
	}

	title := m.styles.Title.Render(p.Title)
	price := m.styles.Price.Render(formatPrice(p.Price))
	tags := m.styles.Badge.Render(string(p.PropertyType)) + " " + m.styles.Badge.Render(string(p.ForType))

	var facts []string
	facts = append(facts, m.styles.Muted.Render(joinNonEmpty(", ", p.Address, p.City, p.State, p.Pincode)))
	if p.Bedrooms != nil {
		facts = append(facts, fmt.Sprintf("%d bedrooms", *p.Bedrooms))
	}
	if p.Area != nil {
		facts = append(facts, fmt.Sprintf("%.0f %s", *p.Area, p.AreaUnit))
	}
	if p.Phone != "" {
		facts = append(facts, "Contact: "+p.Phone)
	}

	description := m.safeRenderMarkdown(p.Description)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Center, price, "  ", tags),
		strings.Join(facts, "\n"),
		"",
		m.renderGallery(p),
		"",
		description,
	)
}

// renderGallery draws the image strip. The selected slot carries the URL so
// terminals with hyperlink support can open it.
func (m Model) renderGallery(p *catalog.Property) string {
	if len(p.Files) == 0 {
		return m.styles.Muted.Render("No photos")
	}

	slots := make([]string, 0, len(p.Files))
	for i := range p.Files {
		slot := fmt.Sprintf(" %d ", i+1)
		if i == m.cursor.Index() {
			slots = append(slots, m.styles.Selected.Render(slot))
		} else {
			slots = append(slots, m.styles.Muted.Render(slot))
		}
	}
	strip := lipgloss.JoinHorizontal(lipgloss.Center, slots...)

	current := p.Files[m.cursor.Index()]
	label := m.styles.Muted.Render(fmt.Sprintf("Photo %d/%d  %s", m.cursor.Index()+1, m.cursor.Count(), current.URL))
	return lipgloss.JoinVertical(lipgloss.Left, strip, label)
}

// safeRenderMarkdown renders markdown with panic recovery
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

// =============================================================================
// CHAT VIEW
// =============================================================================

func (m Model) renderTranscript() string {
	turns := m.engine.Turns()
	if len(turns) == 0 {
		return m.styles.Muted.Render("Ask anything about the catalog. Try \"3BHK apartments in Mumbai for rent\".")
	}

	emphasis := func(s string) string { return m.styles.Bold.Render(s) }

	var sb strings.Builder
	for _, t := range turns {
		switch t.Kind {
		case conversation.TurnUser:
			userStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Primary).
				MarginTop(1)
			sb.WriteString(userStyle.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(t.Text))
			sb.WriteString("\n")

		case conversation.TurnAssistantError:
			sb.WriteString(m.styles.Error.Render("propscout") + "\n")
			sb.WriteString(m.styles.AgentResponse.Render(t.Text))
			sb.WriteString("\n")

		default:
			assistantStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Accent).
				MarginTop(1)
			sb.WriteString(assistantStyle.Render("propscout") + "\n")
			sb.WriteString(m.styles.AgentResponse.Render(conversation.Format(t.Text, emphasis)))
			sb.WriteString("\n")
			if len(t.Properties) > 0 {
				sb.WriteString(m.renderChatProperties(t.Properties))
			}
		}
	}

	if m.engine.Awaiting() {
		sb.WriteString("\n" + m.spinner.View() + m.styles.Muted.Render(" Thinking..."))
	}
	return sb.String()
}

func (m Model) renderChatProperties(refs []catalog.PropertyRef) string {
	var sb strings.Builder
	sb.WriteString(m.styles.Muted.Render("Mentioned listings:") + "\n")
	for i, ref := range refs {
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			m.styles.Badge.Render(fmt.Sprintf("%d", i+1)),
			m.styles.Body.Render(ref.Title),
			m.styles.Muted.Render("["+ref.ID+"]")))
	}
	return sb.String()
}

// =============================================================================
// SUBMIT VIEW
// =============================================================================

func (m Model) renderSubmitForm() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("List a property") + "\n")

	for i, in := range m.submitInputs {
		label := submitLabels[i]
		if i == m.submitFocus {
			sb.WriteString(m.styles.Prompt.Render(fmt.Sprintf("%-12s", label)))
		} else {
			sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("%-12s", label)))
		}
		sb.WriteString(in.View() + "\n")
	}

	selections := fmt.Sprintf("Type: %s   For: %s   Unit: %s",
		m.styles.Badge.Render(string(m.draft.PropertyType)),
		m.styles.Badge.Render(string(m.draft.ForType)),
		m.styles.Badge.Render(string(m.draft.AreaUnit)))
	sb.WriteString("\n" + selections + "\n")

	if m.submitErr != nil {
		sb.WriteString("\n" + m.styles.Error.Render(m.submitErr.Error()) + "\n")
	}
	if m.lastResult != nil {
		switch m.lastResult.Status {
		case listing.StatusCreated:
			sb.WriteString("\n" + m.styles.Success.Render("Published as "+m.lastResult.PropertyID) + "\n")
		default:
			sb.WriteString("\n" + m.styles.Warning.Render(
				fmt.Sprintf("Created %s, but the photos did not upload. Press Ctrl+S to retry the upload.", m.lastResult.PropertyID)) + "\n")
		}
	}

	return sb.String()
}

// =============================================================================
// HELPERS
// =============================================================================

func formatPrice(p float64) string {
	return "₹" + formatINR(p)
}

// formatINR groups digits in the Indian system (lakh/crore separators).
func formatINR(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	if len(s) <= 3 {
		return s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
