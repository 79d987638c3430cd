package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Level represents the console verbosity level
type Level int

const (
	// LevelQuiet shows only critical information (errors, warnings, final summary)
	LevelQuiet Level = iota
	// LevelNormal shows standard run progress (default)
	LevelNormal
	// LevelVerbose shows detailed run information
	LevelVerbose
	// LevelDebug shows all internal details for debugging
	LevelDebug
)

// Status values printed by Summary.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	mintGreen   = lipgloss.Color("#A8E6CF")
	amber       = lipgloss.Color("#FBBF24")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")

	headerStyle  = lipgloss.NewStyle().Foreground(brightWhite).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(salmonPink)
	ruleStyle    = lipgloss.NewStyle().Foreground(mutedGray)
	successStyle = lipgloss.NewStyle().Foreground(mintGreen).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(salmonPink)
	warnStyle    = lipgloss.NewStyle().Foreground(amber)
	errorStyle   = lipgloss.NewStyle().Foreground(salmonPink).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(mutedGray)
)

// Console prints run progress for the person watching the job log.
type Console struct {
	level     Level
	writer    io.Writer
	stepCount int
}

// NewConsole creates a console reporter writing to stdout.
func NewConsole(level Level) *Console {
	return &Console{level: level, writer: os.Stdout}
}

// NewConsoleWriter creates a console reporter writing to w.
func NewConsoleWriter(level Level, w io.Writer) *Console {
	return &Console{level: level, writer: w}
}

// Header prints a prominent header message
func (c *Console) Header(message string) {
	if c.level >= LevelNormal {
		rule := strings.Repeat("=", 70)
		fmt.Fprintf(c.writer, "\n%s\n%s\n%s\n", headerStyle.Render(rule), headerStyle.Render("  "+message), headerStyle.Render(rule))
	}
}

// Section prints a section divider
func (c *Console) Section(title string) {
	if c.level >= LevelNormal {
		fmt.Fprintln(c.writer)
		fmt.Fprintln(c.writer, sectionStyle.Render("▶ "+title))
		fmt.Fprintln(c.writer, ruleStyle.Render(strings.Repeat("─", 50)))
	}
}

// Step prints a numbered step
func (c *Console) Step(message string) {
	if c.level >= LevelNormal {
		c.stepCount++
		fmt.Fprintf(c.writer, "\n%s\n", sectionStyle.Render(fmt.Sprintf("[%d] %s", c.stepCount, message)))
	}
}

// Successf prints a success message with checkmark
func (c *Console) Successf(format string, args ...interface{}) {
	if c.level >= LevelNormal {
		fmt.Fprintln(c.writer, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
	}
}

// Infof prints an informational message
func (c *Console) Infof(format string, args ...interface{}) {
	if c.level >= LevelNormal {
		fmt.Fprintln(c.writer, infoStyle.Render(fmt.Sprintf(format, args...)))
	}
}

// Warningf prints a warning message
func (c *Console) Warningf(format string, args ...interface{}) {
	fmt.Fprintln(c.writer, warnStyle.Render("⚠ Warning: "+fmt.Sprintf(format, args...)))
}

// Errorf prints an error message
func (c *Console) Errorf(format string, args ...interface{}) {
	fmt.Fprintln(c.writer, errorStyle.Render("✗ Error: "+fmt.Sprintf(format, args...)))
}

// Verbosef prints detailed information (only in verbose mode)
func (c *Console) Verbosef(format string, args ...interface{}) {
	if c.level >= LevelVerbose {
		fmt.Fprintln(c.writer, dimStyle.Render("→ "+fmt.Sprintf(format, args...)))
	}
}

// Debugf prints debug information (only in debug mode)
func (c *Console) Debugf(format string, args ...interface{}) {
	if c.level >= LevelDebug {
		fmt.Fprintln(c.writer, dimStyle.Render("[DEBUG] "+fmt.Sprintf(format, args...)))
	}
}

// Row is one labelled line of the final summary.
type Row struct {
	Label string
	Value string
}

// Summary prints the final run summary. It is printed at every level.
func (c *Console) Summary(status string, rows []Row, errText string) {
	rule := headerStyle.Render(strings.Repeat("=", 70))
	fmt.Fprintln(c.writer)
	fmt.Fprintln(c.writer, rule)
	fmt.Fprintln(c.writer, headerStyle.Render("  RUN SUMMARY"))
	fmt.Fprintln(c.writer, rule)

	fmt.Fprint(c.writer, "  Status: ")
	switch status {
	case StatusSuccess:
		fmt.Fprintln(c.writer, successStyle.Render("✓ SUCCESS"))
	case StatusFailed:
		fmt.Fprintln(c.writer, errorStyle.Render("✗ FAILED"))
	default:
		fmt.Fprintln(c.writer, status)
	}

	for _, row := range rows {
		if row.Value == "" {
			continue
		}
		fmt.Fprintf(c.writer, "  %s: %s\n", row.Label, row.Value)
	}

	if errText != "" {
		fmt.Fprintln(c.writer)
		fmt.Fprintln(c.writer, errorStyle.Render("  Error Details:"))
		fmt.Fprintln(c.writer, "    "+errText)
	}

	fmt.Fprintln(c.writer, rule)
	fmt.Fprintln(c.writer)
}

// ParseLevel converts a string log level to Level
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "quiet":
		return LevelQuiet
	case "normal":
		return LevelNormal
	case "verbose":
		return LevelVerbose
	case "debug":
		return LevelDebug
	default:
		return LevelNormal
	}
}
