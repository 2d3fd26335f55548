package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Keys bound for file logs that are noise on the console.
var consoleHiddenKeys = map[string]bool{
	slog.TimeKey:    true,
	slog.LevelKey:   true,
	slog.MessageKey: true,
	"intention":     true,
	"component":     true,
	"event_id":      true,
}

var (
	warnLabel  = color.New(color.FgYellow, color.Bold).SprintFunc()
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
)

// plainHandler prints the message with an intention icon and trailing
// key=value pairs, no time decoration. WARN and ERROR get a colored label.
type plainHandler struct {
	w       io.Writer
	mu      *sync.Mutex
	attrs   []slog.Attr
	leveler slog.Leveler
}

func newPlainHandler(w io.Writer, leveler slog.Leveler) slog.Handler {
	return &plainHandler{w: w, mu: &sync.Mutex{}, leveler: leveler}
}

func (h *plainHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.leveler == nil {
		return true
	}
	return lvl >= h.leveler.Level()
}

func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	var attrs []slog.Attr
	collect := func(a slog.Attr) bool {
		if a.Value.Kind() == slog.KindGroup {
			attrs = append(attrs, a.Value.Group()...)
		} else {
			attrs = append(attrs, a)
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	var b strings.Builder
	switch {
	case r.Level >= slog.LevelError:
		b.WriteString(errorLabel("ERROR") + " ")
	case r.Level >= slog.LevelWarn:
		b.WriteString(warnLabel("WARN") + " ")
	}
	for _, a := range attrs {
		if a.Key == "intention" {
			b.WriteString(iconFor(Intention(a.Value.String())) + " ")
			break
		}
	}
	b.WriteString(r.Message)
	for _, a := range attrs {
		if consoleHiddenKeys[a.Key] {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, b.String())
	return err
}

func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// WithGroup is flattened on the console.
func (h *plainHandler) WithGroup(name string) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), slog.Group(name))
	return &nh
}
