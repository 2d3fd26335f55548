package relay

// Event is one inbound update, either a Message or a CallbackQuery
type Event interface {
	isEvent()
}

// Message is a text message sent by a user in a chat
type Message struct {
	ChatID int64
	UserID int64
	Text   string // empty for stickers, photos and other non-text messages
}

// CallbackQuery is an inline keyboard button press
type CallbackQuery struct {
	ID     string // acknowledged via CallbackAcknowledger
	ChatID int64
	UserID int64
	Data   string
}

func (Message) isEvent()       {}
func (CallbackQuery) isEvent() {}
