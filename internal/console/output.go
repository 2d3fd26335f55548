package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// WriteBanner writes the REPL banner, centered in the terminal when stdout is one.
func WriteBanner(w io.Writer, botName, model string, colored bool) {
	if w == nil {
		return
	}

	lines := []string{
		strings.ToUpper(botName),
		"Telegram AI relay, local console",
		"model: " + model,
	}

	width := 0
	for _, l := range lines {
		if n := runeLen(l); n > width {
			width = n
		}
	}
	rule := strings.Repeat("─", width+4)

	indent := 0
	if termWidth := terminalWidth(); termWidth > width+4 {
		indent = (termWidth - width - 4) / 2
	}
	pad := strings.Repeat(" ", indent)

	c := color.New(color.FgHiBlack)
	if !colored {
		c.DisableColor()
	}

	c.Fprintln(w, pad+rule)
	for _, l := range lines {
		c.Fprintf(w, "%s  %s\n", pad, padRight(l, width))
	}
	c.Fprintln(w, pad+rule)
	fmt.Fprintln(w)
}

// WriteHelp lists the console's own commands and how to press buttons
func WriteHelp(w io.Writer) {
	fmt.Fprintln(w, "📚 Console commands:")
	fmt.Fprintln(w, "  /start, /help, /about, /reset, /image <prompt>  - sent to the bot")
	fmt.Fprintln(w, "  !<token>          - press a button, e.g. !about")
	fmt.Fprintln(w, "  !                 - choose a button from the last reply")
	fmt.Fprintln(w, "  :user <id>        - talk as another user")
	fmt.Fprintln(w, "  :help             - show this help")
	fmt.Fprintln(w, "  :quit             - exit")
	fmt.Fprintln(w, "  anything else     - chat with the AI")
}

func terminalWidth() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// runeLen returns the number of runes in s.
func runeLen(s string) int { return utf8.RuneCountInString(s) }

// padRight pads s with spaces on the right to width runes.
func padRight(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
