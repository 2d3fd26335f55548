package logger

// Intention tags what a log line is about, orthogonal to its level.
// The console handler renders it as an icon; file logs keep it as an attribute.
type Intention string

const (
	IntentionInbound  Intention = "inbound"  // update received from the webhook
	IntentionOutbound Intention = "outbound" // message delivered to a chat
	IntentionAI       Intention = "ai"       // provider round trip
	IntentionCommand  Intention = "command"
	IntentionStatus   Intention = "status"
	IntentionSuccess  Intention = "success"
	IntentionConfig   Intention = "config"
	IntentionDebug    Intention = "debug"
	IntentionShutdown Intention = "shutdown"
	IntentionWarning  Intention = "warning" // no icon mapping; level handles emphasis
	IntentionError    Intention = "error"   // no icon mapping; level handles emphasis
)

// iconFor returns a short console prefix for the intention.
func iconFor(i Intention) string {
	switch i {
	case IntentionInbound:
		return "📥"
	case IntentionOutbound:
		return "📤"
	case IntentionAI:
		return "🤖"
	case IntentionCommand:
		return "⌘"
	case IntentionStatus:
		return "ℹ️"
	case IntentionSuccess:
		return "✅"
	case IntentionConfig:
		return "⚙️"
	case IntentionDebug:
		return "🛠️"
	case IntentionShutdown:
		return "🛑"
	default:
		return "➤"
	}
}
