// Package printer is the stint CLI's output voice: short colored status
// lines on stdout, structured errors on stderr, and the confirmation
// prompt destructive commands go through.
package printer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to a TTY.
	// Users can disable with the NO_COLOR environment variable.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)

	// confirmInput is swapped out by tests to script prompt answers.
	confirmInput io.Reader = os.Stdin
)

// Success prints a success message in green with a checkmark prefix.
func Success(format string, a ...any) {
	green.Printf("✓ %s", fmt.Sprintf(format, a...))
}

// Info prints an informational message in the default color.
func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Warning prints a warning message in yellow.
func Warning(format string, a ...any) {
	yellow.Printf("! %s", fmt.Sprintf(format, a...))
}

// Step prints a step message with emphasis, used in multi-step operations.
func Step(format string, a ...any) {
	cyan.Printf("→ %s", fmt.Sprintf(format, a...))
}

// Error prints a formatted error to stderr: a red title, an explanation,
// and optional suggestions. It returns a plain error carrying the title
// for Cobra, which will not re-print it because commands set SilenceErrors.
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return fmt.Errorf("%s", title)
}

// Confirm prints a yes/no prompt and reads one line of input. Only an
// explicit "y" or "yes" (any case) counts as yes; everything else,
// including a read failure, is no.
func Confirm(format string, a ...any) bool {
	yellow.Printf("%s [y/N]: ", fmt.Sprintf(format, a...))

	line, err := bufio.NewReader(confirmInput).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// Println prints a plain message, for output that needs no coloring.
func Println(a ...any) {
	fmt.Println(a...)
}

// Printf prints a plain formatted message, for output that needs no coloring.
func Printf(format string, a ...any) {
	fmt.Printf(format, a...)
}
