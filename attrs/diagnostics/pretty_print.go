package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// DiagnosticColorer defines the interface for coloring diagnostic output.
type DiagnosticColorer interface {
	Title() string
	PrimaryColor(text string) string
}

// ErrorColorer provides coloring for error diagnostics.
type ErrorColorer struct{}

// Title returns the title for errors.
func (e ErrorColorer) Title() string {
	return "error"
}

// PrimaryColor returns the colored text for errors.
func (e ErrorColorer) PrimaryColor(text string) string {
	return color.New(color.FgRed, color.Bold).Sprint(text)
}

// PrettyPrint writes err followed by the offending line of text and one line
// of leading context. Errors without a location print the message only.
func PrettyPrint(w io.Writer, text string, err error, colorer DiagnosticColorer) error {
	// Disable colors if NO_COLOR environment variable is set
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	titleColor := color.New(color.Bold)
	arrowColor := color.New(color.FgCyan, color.Bold)
	filePathColor := color.New(color.Underline)
	lineNumColor := color.New(color.FgCyan, color.Bold)

	var located Located
	if !errors.As(err, &located) {
		_, werr := titleColor.Fprintf(w, "%s: %s\n", colorer.Title(), err.Error())
		return werr
	}
	loc := located.Location()

	titleColor.Fprintf(w, "%s: ", colorer.Title())
	titleColor.Fprintf(w, "%s\n", describe(err))

	arrowColor.Fprintf(w, "  --> ")
	filePathColor.Fprintf(w, "%s\n", loc.String())

	fileLines := strings.Split(text, "\n")
	if loc.Line <= 0 || loc.Line > len(fileLines) {
		return nil
	}

	lineNumColor.Fprintf(w, "   | \n")
	if loc.Line > 1 {
		lineNumColor.Fprintf(w, "%2d | ", loc.Line-1)
		fmt.Fprintf(w, "%s\n", strings.TrimRight(fileLines[loc.Line-2], "\r"))
	}

	line := strings.TrimRight(fileLines[loc.Line-1], "\r")
	trimmed := strings.TrimLeft(line, " \t")
	lineNumColor.Fprintf(w, "%2d | ", loc.Line)
	fmt.Fprintf(w, "%s%s\n", line[:len(line)-len(trimmed)], colorer.PrimaryColor(trimmed))
	lineNumColor.Fprintf(w, "   | \n")

	return nil
}

// ToPrettyString is PrettyPrint into a string using ErrorColorer.
func ToPrettyString(text string, err error) string {
	var sb strings.Builder
	_ = PrettyPrint(&sb, text, err, ErrorColorer{})
	return sb.String()
}

// describe strips the trailing " in file:line" every located error carries,
// since the location gets its own line.
func describe(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, " in "); idx > 0 {
		return msg[:idx]
	}
	return msg
}
