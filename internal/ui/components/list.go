package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ListItem represents an item in a list
type ListItem struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Relevance   float64 // shown as a bar when ShowRelevance is set
}

// List represents a navigable list component
type List struct {
	Title         string
	Items         []ListItem
	Selected      int
	Width         int
	Height        int
	ShowNumbers   bool
	ShowRelevance bool
	Colors        ListColors
}

// ListColors holds the colors a list renders with
type ListColors struct {
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Selected  lipgloss.AdaptiveColor
	Bar       lipgloss.AdaptiveColor
}

// DefaultListColors returns the default palette
func DefaultListColors() ListColors {
	return ListColors{
		Primary:   lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"},
		Secondary: lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Selected:  lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A8A"},
		Bar:       lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"},
	}
}

// NewList creates a new list component
func NewList(title string, width, height int) *List {
	return &List{
		Title:       title,
		Width:       width,
		Height:      height,
		ShowNumbers: true,
		Colors:      DefaultListColors(),
	}
}

// SetItems sets all items in the list
func (l *List) SetItems(items []ListItem) {
	l.Items = items
	l.Selected = 0
}

// SelectedItem returns the currently selected item
func (l *List) SelectedItem() *ListItem {
	if l.Selected < 0 || l.Selected >= len(l.Items) {
		return nil
	}
	return &l.Items[l.Selected]
}

// MoveUp moves selection up
func (l *List) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
	}
}

// MoveDown moves selection down
func (l *List) MoveDown() {
	if l.Selected < len(l.Items)-1 {
		l.Selected++
	}
}

// Render renders the list
func (l *List) Render() string {
	headerStyle := lipgloss.NewStyle().Foreground(l.Colors.Primary).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(l.Colors.Secondary)

	content := []string{headerStyle.Render(l.Title), ""}

	if len(l.Items) == 0 {
		content = append(content, mutedStyle.Render("(empty)"))
		return lipgloss.JoinVertical(lipgloss.Left, content...)
	}

	maxVisible := max(1, l.Height-4)
	start := 0
	if l.Selected >= maxVisible {
		start = l.Selected - maxVisible + 1
	}
	end := min(start+maxVisible, len(l.Items))

	for i := start; i < end; i++ {
		content = append(content, l.renderItem(&l.Items[i], i+1, i == l.Selected))
	}

	if len(l.Items) > maxVisible {
		content = append(content, "", mutedStyle.Render(fmt.Sprintf("(%d-%d of %d)", start+1, end, len(l.Items))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, content...)
}

func (l *List) renderItem(item *ListItem, number int, selected bool) string {
	var parts []string

	if l.ShowNumbers {
		parts = append(parts, fmt.Sprintf("%2d.", number))
	}
	if item.Icon != "" {
		parts = append(parts, item.Icon)
	}
	if l.ShowRelevance {
		parts = append(parts, RelevanceBar(item.Relevance, 10, l.Colors.Bar))
	}

	title := item.Title
	if item.Description != "" {
		title += " - " + item.Description
	}
	parts = append(parts, title)

	line := strings.Join(parts, " ")

	style := lipgloss.NewStyle().Foreground(l.Colors.Secondary)
	if selected {
		style = lipgloss.NewStyle().Background(l.Colors.Selected).Foreground(l.Colors.Primary).Bold(true)
	}
	if l.Width > 4 {
		style = style.MaxWidth(l.Width - 2)
	}
	return style.Render(line)
}
