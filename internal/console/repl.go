package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"

	"github.com/fpt/klein-relay/internal/relay"
	pkgLogger "github.com/fpt/klein-relay/pkg/logger"
)

// Dispatcher handles one relay event to completion
type Dispatcher interface {
	Dispatch(ctx context.Context, ev relay.Event)
}

// REPLConfig wires a REPL
type REPLConfig struct {
	Dispatcher  Dispatcher
	Notifier    *Notifier
	HistoryFile string
	UserID      int64 // also used as the chat id, like a private chat
	BotName     string
	Model       string
	Out         io.Writer
	Colored     bool
	Logger      *pkgLogger.Logger
}

type inputKind int

const (
	inputSkip inputKind = iota
	inputMessage
	inputCallback
	inputChooseButton
	inputSwitchUser
	inputHelp
	inputQuit
	inputInvalid
)

// input is one parsed REPL line
type input struct {
	kind   inputKind
	text   string // message text or callback token
	userID int64
}

// parseInput classifies a REPL line. Lines starting with ':' drive the
// console itself, '!' presses buttons and everything else goes to the bot.
func parseInput(line string) input {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return input{kind: inputSkip}
	case line == "!":
		return input{kind: inputChooseButton}
	case strings.HasPrefix(line, "!"):
		return input{kind: inputCallback, text: strings.TrimSpace(line[1:])}
	case strings.HasPrefix(line, ":"):
		fields := strings.Fields(line[1:])
		if len(fields) == 0 {
			return input{kind: inputInvalid, text: line}
		}
		switch fields[0] {
		case "quit", "exit", "q":
			return input{kind: inputQuit}
		case "help", "h":
			return input{kind: inputHelp}
		case "user":
			if len(fields) != 2 {
				return input{kind: inputInvalid, text: line}
			}
			id, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return input{kind: inputInvalid, text: line}
			}
			return input{kind: inputSwitchUser, userID: id}
		}
		return input{kind: inputInvalid, text: line}
	}
	return input{kind: inputMessage, text: line}
}

// RunREPL reads lines until EOF or :quit and dispatches them as if they came
// from Telegram. Each event is handled to completion before the next prompt.
func RunREPL(ctx context.Context, cfg REPLConfig) error {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("console")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "you> ",
		HistoryFile:         cfg.HistoryFile,
		AutoComplete:        newCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		HistoryLimit:        2000,
		FuncFilterInputRune: filterInput,
		Stdout:              out,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	WriteBanner(out, cfg.BotName, cfg.Model, cfg.Colored)
	fmt.Fprintln(out, "💬 Type /start to begin, :help for console commands.")

	userID := cfg.UserID
	callbacks := 0

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		in := parseInput(line)
		var ev relay.Event
		switch in.kind {
		case inputSkip:
			continue
		case inputQuit:
			fmt.Fprintln(out, "👋 Goodbye!")
			return nil
		case inputHelp:
			WriteHelp(out)
			continue
		case inputInvalid:
			fmt.Fprintf(out, "❌ Unknown console command: %s\n", in.text)
			continue
		case inputSwitchUser:
			userID = in.userID
			fmt.Fprintf(out, "👤 Now talking as user %d\n", userID)
			continue
		case inputMessage:
			ev = relay.Message{ChatID: userID, UserID: userID, Text: in.text}
		case inputCallback, inputChooseButton:
			token := in.text
			if in.kind == inputChooseButton {
				token = chooseButton(out, cfg.Notifier)
				if token == "" {
					continue
				}
			}
			callbacks++
			ev = relay.CallbackQuery{
				ID:     fmt.Sprintf("console-%d", callbacks),
				ChatID: userID,
				UserID: userID,
				Data:   token,
			}
		}

		dispatch(ctx, cfg.Dispatcher, ev, out)
		logger.Debug("Console event handled", "user_id", userID, "type", fmt.Sprintf("%T", ev))
	}
}

// dispatch runs one event, cancelling it on Ctrl+C
func dispatch(ctx context.Context, d Dispatcher, ev relay.Event, out io.Writer) {
	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(out)
			cancel()
		case <-execCtx.Done():
		}
	}()

	d.Dispatch(execCtx, ev)
}

// chooseButton lets the user pick one of the last reply's callback buttons
func chooseButton(out io.Writer, n *Notifier) string {
	if n == nil {
		return ""
	}
	buttons := callbackButtons(n.LastKeyboard())
	if len(buttons) == 0 {
		fmt.Fprintln(out, "No buttons on the last reply.")
		return ""
	}

	prompt := promptui.Select{
		Label: "Press a button",
		Items: buttons,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}?",
			Active:   "▸ {{ .Text | cyan }} {{ .Data | faint }}",
			Inactive: "  {{ .Text | cyan }} {{ .Data | faint }}",
			Selected: "{{ .Text | cyan }}",
		},
		Size: 10,
	}
	i, _, err := prompt.Run()
	if err != nil {
		if err != promptui.ErrInterrupt {
			fmt.Fprintf(out, "Button selection failed: %v\n", err)
		}
		return ""
	}
	return buttons[i].Data
}

func newCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range []string{relay.CommandStart, relay.CommandHelp, relay.CommandAbout, relay.CommandReset} {
		items = append(items, readline.PcItem("/"+cmd))
	}
	items = append(items, readline.PcItem("/"+relay.CommandImage+" "))
	for _, token := range []string{relay.CallbackAbout, relay.CallbackCredits, relay.CallbackHelp, relay.CallbackReset, relay.CallbackImageHelp} {
		items = append(items, readline.PcItem("!"+token))
	}
	items = append(items, readline.PcItem(":help"), readline.PcItem(":user "), readline.PcItem(":quit"))
	return readline.NewPrefixCompleter(items...)
}

// filterInput drops Ctrl+Z, which would suspend the REPL mid-line
func filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}
