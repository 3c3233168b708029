package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type CardData struct {
	Header string
	Title  string
	Body   string
	Footer string
	Color  string
}

// ScreenData is the frame of the interactive agenda.
type ScreenData struct {
	Header     string
	Main       string
	Detail     string
	StatusLine string
	IsError    bool
	Footer     string
}

type AlertData struct {
	Header    string
	Title     string
	Body      string
	Color     string
	Locked    bool
	Hint      string
	Selecting bool
	Prompt    string
	Options   []string
	Cursor    int
	Help      string
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	alertStyle    = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Padding(1, 3)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// RenderCard draws a standard notification.
func RenderCard(data CardData) string {
	lines := []string{headerStyle.Render(data.Header), titleStyle.Render(data.Title)}
	if body := RenderMarkdown(data.Body); body != "" {
		lines = append(lines, body)
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	style := panelStyle.Width(58)
	if data.Color != "" {
		style = style.BorderForeground(lipgloss.Color(data.Color))
	}
	return style.Render(strings.Join(lines, "\n"))
}

// RenderAlert draws the full-screen alert body.
func RenderAlert(data AlertData) string {
	lines := []string{headerStyle.Render(data.Header), "", titleStyle.Render(data.Title)}
	if body := RenderMarkdown(data.Body); body != "" {
		lines = append(lines, "", body)
	}
	lines = append(lines, "")
	switch {
	case data.Locked:
		lines = append(lines, hintStyle.Render(data.Hint))
	case data.Selecting:
		lines = append(lines, data.Prompt)
		for i, opt := range data.Options {
			if i == data.Cursor {
				lines = append(lines, selectedStyle.Render("> "+opt))
				continue
			}
			lines = append(lines, "  "+opt)
		}
	}
	if data.Help != "" {
		lines = append(lines, "", footerStyle.Render(data.Help))
	}
	style := alertStyle
	if data.Color != "" {
		style = style.BorderForeground(lipgloss.Color(data.Color))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func RenderScreen(data ScreenData) string {
	row := panelStyle.Render(data.Main)
	if data.Detail != "" {
		row = lipgloss.JoinHorizontal(lipgloss.Top, row, panelStyle.Width(40).Render(data.Detail))
	}
	status := statusStyle.Render(data.StatusLine)
	if data.IsError {
		status = errorStyle.Render(data.StatusLine)
	}
	lines := []string{headerStyle.Render(data.Header), row, status}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}
