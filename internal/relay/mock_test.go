package relay

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/fpt/klein-relay/pkg/message"
)

type mockLLM struct {
	completeFunc func(ctx context.Context, conversation []message.Turn, newUserText string) (string, error)
	mu           sync.Mutex
	calls        [][]message.Turn
	prompts      []string
}

func (m *mockLLM) Complete(ctx context.Context, conversation []message.Turn, newUserText string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, conversation)
	m.prompts = append(m.prompts, newUserText)
	m.mu.Unlock()
	if m.completeFunc != nil {
		return m.completeFunc(ctx, conversation, newUserText)
	}
	return "", errors.New("mock not configured")
}

func (m *mockLLM) ModelID() string { return "mock-model" }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockImageGenerator struct {
	generateFunc func(ctx context.Context, prompt string) ([]byte, error)
	calls        []string
}

func (m *mockImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	m.calls = append(m.calls, prompt)
	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt)
	}
	return nil, errors.New("mock not configured")
}

type sentKind int

const (
	sentText sentKind = iota
	sentPhoto
	sentAck
	sentTyping
)

type sent struct {
	kind     sentKind
	chatID   int64
	text     string // text, caption or callback id
	keyboard Keyboard
	image    []byte
}

// recordingNotifier records every delivery in order
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (n *recordingNotifier) SendText(_ context.Context, chatID int64, text string, keyboard Keyboard) {
	n.record(sent{kind: sentText, chatID: chatID, text: text, keyboard: keyboard})
}

func (n *recordingNotifier) SendPhoto(_ context.Context, chatID int64, image []byte, caption string) {
	n.record(sent{kind: sentPhoto, chatID: chatID, text: caption, image: image})
}

func (n *recordingNotifier) AnswerCallback(_ context.Context, callbackID string) {
	n.record(sent{kind: sentAck, text: callbackID})
}

func (n *recordingNotifier) SendTyping(_ context.Context, chatID int64) {
	n.record(sent{kind: sentTyping, chatID: chatID})
}

func (n *recordingNotifier) record(s sent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, s)
}

// deliveries returns recorded items, skipping typing indicators
func (n *recordingNotifier) deliveries() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sent, 0, len(n.sent))
	for _, s := range n.sent {
		if s.kind != sentTyping {
			out = append(out, s)
		}
	}
	return out
}

// plainNotifier implements only the required interface
type plainNotifier struct {
	texts []string
}

func (n *plainNotifier) SendText(_ context.Context, _ int64, text string, _ Keyboard) {
	n.texts = append(n.texts, text)
}

func (n *plainNotifier) SendPhoto(context.Context, int64, []byte, string) {}
