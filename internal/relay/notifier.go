package relay

import "context"

// Notifier delivers replies to a chat. Delivery is best-effort: implementations
// log failures and never retry, so nothing is returned to the caller.
type Notifier interface {
	// SendText sends Markdown text with an optional inline keyboard (nil for none)
	SendText(ctx context.Context, chatID int64, text string, keyboard Keyboard)
	// SendPhoto sends image bytes with a plain-text caption
	SendPhoto(ctx context.Context, chatID int64, image []byte, caption string)
}

// CallbackAcknowledger is optionally implemented by notifiers whose platform
// expects button presses to be answered.
type CallbackAcknowledger interface {
	AnswerCallback(ctx context.Context, callbackID string)
}

// TypingIndicator is optionally implemented by notifiers that can show a
// typing status while a reply is being produced.
type TypingIndicator interface {
	SendTyping(ctx context.Context, chatID int64)
}

// ButtonKind selects what pressing a button does
type ButtonKind int

const (
	// ButtonCallback sends its Data back as a callback query
	ButtonCallback ButtonKind = iota
	// ButtonPrefill puts its Data into the user's input field
	ButtonPrefill
)

// Button is one labeled inline keyboard button
type Button struct {
	Text string
	Kind ButtonKind
	Data string
}

// Keyboard is an ordered list of button rows
type Keyboard [][]Button

// CallbackButton creates a button that answers with data
func CallbackButton(text, data string) Button {
	return Button{Text: text, Kind: ButtonCallback, Data: data}
}

// PrefillButton creates a button that prefills query into the input field
func PrefillButton(text, query string) Button {
	return Button{Text: text, Kind: ButtonPrefill, Data: query}
}
