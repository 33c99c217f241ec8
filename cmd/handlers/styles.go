package handlers

import (
	"autoblog/internal/core"
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB454"))
)

func label(name string) string {
	return labelStyle.Render(name + ":")
}

func formatStats(stats core.TextStats) string {
	return fmt.Sprintf("%s %d  %s %d  %s %d",
		label("total"), stats.TotalChars,
		label("no spaces"), stats.TotalCharsNoWhitespace,
		label("script"), stats.ScriptChars,
	)
}
