package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/typegraph/pkg/graph"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan    = lipgloss.Color("36")  // Teal - primary actions
	colorGreen   = lipgloss.Color("35")  // Green - success
	colorYellow  = lipgloss.Color("220") // Amber - warnings
	colorRed     = lipgloss.Color("167") // Soft red - errors
	colorBlue    = lipgloss.Color("75")  // Light blue - links
	colorMagenta = lipgloss.Color("176") // Pink - functions
	colorWhite   = lipgloss.Color("255") // Bright white - values
	colorGray    = lipgloss.Color("245") // Gray - secondary text
	colorDim     = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)

	kindStyles = map[graph.Kind]lipgloss.Style{
		graph.KindData:      lipgloss.NewStyle().Foreground(colorBlue),
		graph.KindChoice:    lipgloss.NewStyle().Foreground(colorGreen),
		graph.KindEnum:      lipgloss.NewStyle().Foreground(colorYellow),
		graph.KindFunc:      lipgloss.NewStyle().Foreground(colorMagenta),
		graph.KindTypeAlias: lipgloss.NewStyle().Foreground(colorGray),
	}
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Model Output
// =============================================================================

// printStats prints model statistics on a single line.
func printStats(nodeCount, edgeCount int, diags []graph.ValidationError) {
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d types", nodeCount)),
		StyleDim.Render(fmt.Sprintf("%d edges", edgeCount)),
	}
	errs, warns := countSeverities(diags)
	if errs > 0 {
		parts = append(parts, StyleError.Render(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, StyleWarning.Render(plural(warns, "warning")))
	}
	if errs == 0 && warns == 0 {
		parts = append(parts, StyleSuccess.Render("valid"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// printDiagnostic prints one validation finding.
func printDiagnostic(d graph.ValidationError) {
	icon, style := styleIconWarning.Render(iconWarning), StyleWarning
	if d.Severity == graph.SeverityError {
		icon, style = styleIconError.Render(iconError), StyleError
	}
	where := d.NodeID
	if d.Member != "" {
		where += "." + d.Member
	}
	fmt.Println(icon + " " + style.Render(d.Code) + " " + StyleValue.Render(where) + " " + StyleDim.Render(d.Message))
}

// kindLabel renders a kind tag in its color.
func kindLabel(k graph.Kind) string {
	if s, ok := kindStyles[k]; ok {
		return s.Render(string(k))
	}
	return string(k)
}

func countSeverities(diags []graph.ValidationError) (errs, warns int) {
	for _, d := range diags {
		if d.Severity == graph.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	return errs, warns
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
