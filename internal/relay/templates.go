package relay

import (
	"fmt"
	"strings"
)

// Callback data tokens carried by the main menu
const (
	CallbackAbout     = "about"
	CallbackCredits   = "credits"
	CallbackHelp      = "help"
	CallbackReset     = "reset"
	CallbackImageHelp = "image_help"
)

// Branding fills the informational templates
type Branding struct {
	BotName   string
	Developer string
	PoweredBy string
}

// Templates renders the fixed responses
type Templates struct {
	branding Branding
	model    string
	images   bool
}

// NewTemplates creates templates for a bot backed by model. images toggles the
// image generation entries.
func NewTemplates(branding Branding, model string, images bool) *Templates {
	if branding.BotName == "" {
		branding.BotName = "Klein Relay"
	}
	return &Templates{branding: branding, model: model, images: images}
}

func (t *Templates) Welcome() string {
	return fmt.Sprintf("👋 Welcome to *%s* 🤖\n\nType anything to chat with the AI or use the menu below ⬇️", t.branding.BotName)
}

func (t *Templates) Help() string {
	var b strings.Builder
	b.WriteString("⚡ *Help Menu* ⚡\n\n")
	b.WriteString("- Type your message and get an AI response.\n")
	b.WriteString("- Use the menu buttons for quick actions.\n")
	if t.images {
		b.WriteString("- /image <prompt> : Generate an image.\n")
	}
	b.WriteString("- /reset : Reset your conversation memory.")
	return b.String()
}

func (t *Templates) About() string {
	return fmt.Sprintf("ℹ️ *About %s*\n\nThis bot relays your messages to %s and remembers the last few turns of your chat.\nDeveloper: %s",
		t.branding.BotName, t.branding.PoweredBy, t.branding.Developer)
}

func (t *Templates) Credits() string {
	return fmt.Sprintf("👤 *Credits*\n\nDeveloper: %s\nPowered by %s (%s)", t.branding.Developer, t.branding.PoweredBy, t.model)
}

func (t *Templates) ResetDone() string {
	return "♻️ Your conversation memory has been reset."
}

func (t *Templates) ImageHelp() string {
	if !t.images {
		return t.ImageUnavailable()
	}
	return "🎨 *Image Generation*\n\nSend /image followed by a description, for example:\n`/image sunset over mountains`"
}

func (t *Templates) ImageUsage() string {
	return "Usage: /image <prompt>\nExample: /image sunset over mountains"
}

func (t *Templates) ImageWorking() string {
	return "🎨 Generating your image, please wait..."
}

func (t *Templates) ImageUnavailable() string {
	return "🚫 Image generation is not available for this bot."
}

// ImageFailed describes a failed generation; detail is empty when errors are hidden
func (t *Templates) ImageFailed(detail string) string {
	if detail == "" {
		return "❌ Image generation failed. Please try again later."
	}
	return "❌ Image generation failed: " + detail
}

// ImageCaption always contains the prompt
func (t *Templates) ImageCaption(prompt string) string {
	return "🖼 " + prompt
}

// AIError describes a failed completion; detail is empty when errors are hidden
func (t *Templates) AIError(detail string) string {
	if detail == "" {
		return "⚠ Sorry, the AI service is unavailable right now. Please try again later."
	}
	return "⚠ AI Error: " + detail
}

// MainMenu is attached to every informational reply and AI answer
func (t *Templates) MainMenu() Keyboard {
	kb := Keyboard{
		{PrefillButton("💬 Ask AI", "")},
		{CallbackButton("ℹ️ About Bot", CallbackAbout)},
		{CallbackButton("❓ Help", CallbackHelp)},
	}
	if t.images {
		kb = append(kb, []Button{CallbackButton("🎨 Image", CallbackImageHelp)})
	}
	return append(kb,
		[]Button{CallbackButton("👤 Credits", CallbackCredits)},
		[]Button{CallbackButton("🔄 Reset Chat", CallbackReset)},
	)
}
