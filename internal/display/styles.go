package display

import "github.com/charmbracelet/lipgloss"

const panelWidth = 78

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Background(lipgloss.Color("#1F2937")).
		Padding(0, 1)

	approvedBanner = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#0B1F14")).
		Background(lipgloss.Color("#10B981")).
		Padding(0, 2).
		Width(panelWidth).
		Align(lipgloss.Center)

	rejectedBanner = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#EF4444")).
		Padding(0, 2).
		Width(panelWidth).
		Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 1).
		Width(panelWidth)

	pillarStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderTop(false).
		BorderRight(false).
		BorderBottom(false).
		BorderForeground(lipgloss.Color("#F59E0B")).
		PaddingLeft(1).
		Width(panelWidth - 2)

	labelStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#9CA3AF"))

	checkedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	uncheckedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	scoreHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	scoreMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	scoreLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	noticeStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("#EF4444")).
		Foreground(lipgloss.Color("#FCA5A5")).
		Bold(true).
		Padding(1, 2).
		Width(panelWidth)
)
