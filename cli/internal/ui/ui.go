// Package ui renders terminal output for the phpattr command.
package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/phpattr/attrs/reader"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

func width() int {
	if w := pterm.GetTerminalWidth(); w > 0 && w < 120 {
		return w
	}
	return 80
}

// Header renders a boxed title with a subtitle.
func Header(title, subtitle string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			TitleStyle.Render(title),
			SecondaryStyle.Render(subtitle),
		))
}

// Success writes a success line to w.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Error writes an error line to w.
func Error(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Warning writes a warning line to w.
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Info writes a dimmed informational line to w.
func Info(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, SecondaryStyle.Render(fmt.Sprintf(format, args...)))
}

// AnnotationRows turns annotations into table rows: attribute, target,
// location and arguments.
func AnnotationRows(annotations []*reader.Annotation) [][]string {
	rows := make([][]string, 0, len(annotations))
	for _, a := range annotations {
		rows = append(rows, []string{
			a.Name,
			a.Target.String() + " " + a.Subject(),
			a.File + ":" + strconv.Itoa(a.Line),
			a.Arguments.String(),
		})
	}
	return rows
}

// Table renders rows under headers using pterm.
func Table(headers []string, rows [][]string) (string, error) {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
}

// Markdown renders markdown for the terminal. Colors follow the terminal
// background unless NO_COLOR is set.
func Markdown(content string) (string, error) {
	style := glamour.WithAutoStyle()
	if os.Getenv("NO_COLOR") != "" {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width()))
	if err != nil {
		return "", err
	}
	return r.Render(content)
}

// Spinner starts a spinner with message. Stop it with Success, Fail or Stop.
func Spinner(message string) *pterm.SpinnerPrinter {
	spinner, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(message)
	if err != nil {
		return nil
	}
	return spinner
}
