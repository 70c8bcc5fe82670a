package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme for the browser
type Theme struct {
	Name string

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Accent    lipgloss.AdaptiveColor

	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor

	Border   lipgloss.AdaptiveColor
	Muted    lipgloss.AdaptiveColor
	Selected lipgloss.AdaptiveColor

	// Relevance colors the score bars of query matches
	Relevance lipgloss.AdaptiveColor
}

func buildTheme(name string, primary, secondary, accent, success, warning, errorColor, border, muted, selected, relevance [2]string) Theme {
	color := func(c [2]string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: c[0], Dark: c[1]}
	}
	return Theme{
		Name:      name,
		Primary:   color(primary),
		Secondary: color(secondary),
		Accent:    color(accent),
		Success:   color(success),
		Warning:   color(warning),
		Error:     color(errorColor),
		Border:    color(border),
		Muted:     color(muted),
		Selected:  color(selected),
		Relevance: color(relevance),
	}
}

// Available themes
var (
	DefaultTheme = buildTheme("default",
		[2]string{"#1E40AF", "#3B82F6"}, [2]string{"#6B7280", "#9CA3AF"}, [2]string{"#7C3AED", "#A855F7"},
		[2]string{"#059669", "#10B981"}, [2]string{"#D97706", "#F59E0B"}, [2]string{"#DC2626", "#EF4444"},
		[2]string{"#D1D5DB", "#374151"}, [2]string{"#6B7280", "#9CA3AF"}, [2]string{"#DBEAFE", "#1E3A8A"},
		[2]string{"#059669", "#10B981"})

	HighContrastTheme = buildTheme("high-contrast",
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"}, [2]string{"#000080", "#8080FF"},
		[2]string{"#006600", "#00FF00"}, [2]string{"#CC6600", "#FFAA00"}, [2]string{"#CC0000", "#FF4444"},
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"}, [2]string{"#CCCCCC", "#333333"},
		[2]string{"#006600", "#00FF00"})

	MinimalTheme = buildTheme("minimal",
		[2]string{"#2D3748", "#E2E8F0"}, [2]string{"#718096", "#A0AEC0"}, [2]string{"#4A5568", "#CBD5E0"},
		[2]string{"#2F855A", "#68D391"}, [2]string{"#C05621", "#F6AD55"}, [2]string{"#C53030", "#FC8181"},
		[2]string{"#E2E8F0", "#2D3748"}, [2]string{"#A0AEC0", "#718096"}, [2]string{"#EDF2F7", "#2D3748"},
		[2]string{"#2F855A", "#68D391"})
)

// ThemeByName looks up a theme
func ThemeByName(name string) (Theme, bool) {
	switch name {
	case "", "default":
		return DefaultTheme, true
	case "high-contrast":
		return HighContrastTheme, true
	case "minimal":
		return MinimalTheme, true
	default:
		return Theme{}, false
	}
}

// GetAvailableThemes returns list of available theme names
func GetAvailableThemes() []string {
	return []string{"default", "high-contrast", "minimal"}
}

// IsColorDisabled checks if colors should be disabled
func IsColorDisabled() bool {
	return os.Getenv("NO_COLOR") != ""
}

// Styles contains the styles the browser renders with
type Styles struct {
	Theme Theme

	Title   lipgloss.Style
	Header  lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Prompt  lipgloss.Style
	Box     lipgloss.Style
	Status  lipgloss.Style
}

// NewStyles builds styles from a theme. With color off every style renders plain text.
func NewStyles(theme Theme, color bool) *Styles {
	if !color || IsColorDisabled() {
		plain := lipgloss.NewStyle()
		return &Styles{
			Theme: theme, Title: plain, Header: plain, Body: plain, Muted: plain, Key: plain,
			Value: plain, Error: plain, Success: plain, Prompt: plain,
			Box:    lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1),
			Status: plain,
		}
	}

	return &Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),

		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Body:  lipgloss.NewStyle(),
		Muted: lipgloss.NewStyle().Foreground(theme.Muted),

		Key: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Value: lipgloss.NewStyle().Foreground(theme.Secondary),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Warning).
			Bold(true),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Status: lipgloss.NewStyle().Foreground(theme.Muted),
	}
}
