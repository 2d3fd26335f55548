// Package console drives the relay from a terminal: a Notifier that prints
// replies and a readline REPL that feeds typed lines to the dispatcher.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/fpt/klein-relay/internal/relay"
	pkgLogger "github.com/fpt/klein-relay/pkg/logger"
)

// NotifierConfig configures a console Notifier
type NotifierConfig struct {
	Out io.Writer
	// ImageDir receives generated images; empty discards them
	ImageDir string
	Colored  bool
	Logger   *pkgLogger.Logger
}

// Notifier prints relay replies to a writer. It remembers the most recent
// keyboard so the REPL can offer its buttons.
type Notifier struct {
	mu           sync.Mutex
	out          io.Writer
	imageDir     string
	lastKeyboard relay.Keyboard
	photos       int
	header       *color.Color
	faint        *color.Color
	logger       *pkgLogger.Logger
}

var (
	_ relay.Notifier        = (*Notifier)(nil)
	_ relay.TypingIndicator = (*Notifier)(nil)
)

// NewNotifier creates a console notifier
func NewNotifier(cfg NotifierConfig) *Notifier {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("console")
	}

	header := color.New(color.FgHiCyan, color.Bold)
	faint := color.New(color.Faint)
	if !cfg.Colored {
		header.DisableColor()
		faint.DisableColor()
	}

	return &Notifier{
		out:      out,
		imageDir: cfg.ImageDir,
		header:   header,
		faint:    faint,
		logger:   logger,
	}
}

// SendText prints text followed by the keyboard, one row per line
func (n *Notifier) SendText(ctx context.Context, chatID int64, text string, keyboard relay.Keyboard) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.header.Fprintf(n.out, "🤖 [chat %d]\n", chatID)
	fmt.Fprintln(n.out, text)
	if len(keyboard) > 0 {
		fmt.Fprint(n.out, renderKeyboard(keyboard, n.faint))
	}
	n.lastKeyboard = keyboard
}

// SendPhoto reports the image and saves it when an image directory is set
func (n *Notifier) SendPhoto(ctx context.Context, chatID int64, image []byte, caption string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.header.Fprintf(n.out, "🤖 [chat %d]\n", chatID)
	n.photos++

	if n.imageDir == "" {
		fmt.Fprintf(n.out, "[photo, %d bytes]\n", len(image))
	} else if path, err := n.saveImage(image); err != nil {
		n.logger.Error("Failed to save image", "dir", n.imageDir, "error", err)
		fmt.Fprintf(n.out, "[photo, %d bytes, not saved]\n", len(image))
	} else {
		fmt.Fprintf(n.out, "[photo, %d bytes] saved to %s\n", len(image), path)
	}
	if caption != "" {
		fmt.Fprintln(n.out, caption)
	}
}

// SendTyping prints a typing hint
func (n *Notifier) SendTyping(ctx context.Context, chatID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.faint.Fprintln(n.out, "💭 typing...")
}

// LastKeyboard returns the keyboard of the most recent text reply
func (n *Notifier) LastKeyboard() relay.Keyboard {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastKeyboard
}

func (n *Notifier) saveImage(image []byte) (string, error) {
	if err := os.MkdirAll(n.imageDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("image-%s-%d%s", time.Now().Format("20060102-150405"), n.photos, imageExt(image))
	path := filepath.Join(n.imageDir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// imageExt guesses the file extension from the image's magic bytes
func imageExt(image []byte) string {
	switch {
	case len(image) >= 8 && string(image[:8]) == "\x89PNG\r\n\x1a\n":
		return ".png"
	case len(image) >= 3 && string(image[:3]) == "\xff\xd8\xff":
		return ".jpg"
	case len(image) >= 12 && string(image[:4]) == "RIFF" && string(image[8:12]) == "WEBP":
		return ".webp"
	}
	return ".bin"
}

// renderKeyboard prints callback buttons with the input that presses them
func renderKeyboard(keyboard relay.Keyboard, faint *color.Color) string {
	var b strings.Builder
	for _, row := range keyboard {
		cells := make([]string, 0, len(row))
		for _, btn := range row {
			switch btn.Kind {
			case relay.ButtonPrefill:
				cells = append(cells, fmt.Sprintf("[%s: type a message]", btn.Text))
			default:
				cells = append(cells, fmt.Sprintf("[%s: !%s]", btn.Text, btn.Data))
			}
		}
		b.WriteString(faint.Sprint("  " + strings.Join(cells, " ")))
		b.WriteString("\n")
	}
	return b.String()
}

// callbackButtons flattens the keyboard to the buttons that send callbacks
func callbackButtons(keyboard relay.Keyboard) []relay.Button {
	var out []relay.Button
	for _, row := range keyboard {
		for _, btn := range row {
			if btn.Kind == relay.ButtonCallback {
				out = append(out, btn)
			}
		}
	}
	return out
}
