package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/klein-relay/internal/relay"
)

func TestToEvent(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   relay.Event
		wantOK bool
	}{
		{
			name: "text message",
			body: `{"update_id":1,"message":{"message_id":5,"date":0,
				"from":{"id":42,"is_bot":false,"first_name":"A"},
				"chat":{"id":7,"type":"private"},"text":"hello"}}`,
			want:   relay.Message{ChatID: 7, UserID: 42, Text: "hello"},
			wantOK: true,
		},
		{
			name: "sticker has empty text",
			body: `{"update_id":2,"message":{"message_id":6,"date":0,
				"from":{"id":42,"first_name":"A"},"chat":{"id":7,"type":"private"},
				"sticker":{"file_id":"s","file_unique_id":"u","width":1,"height":1,"is_animated":false}}}`,
			want:   relay.Message{ChatID: 7, UserID: 42},
			wantOK: true,
		},
		{
			name: "callback query",
			body: `{"update_id":3,"callback_query":{"id":"cb-9","chat_instance":"x","data":"about",
				"from":{"id":42,"first_name":"A"},
				"message":{"message_id":8,"date":0,"chat":{"id":-100,"type":"group"}}}}`,
			want:   relay.CallbackQuery{ID: "cb-9", ChatID: -100, UserID: 42, Data: "about"},
			wantOK: true,
		},
		{
			name: "inline callback without message",
			body: `{"update_id":4,"callback_query":{"id":"cb-1","chat_instance":"x","data":"help",
				"from":{"id":42,"first_name":"A"},"inline_message_id":"im"}}`,
		},
		{
			name: "message without sender",
			body: `{"update_id":5,"message":{"message_id":9,"date":0,"chat":{"id":-100,"type":"channel"},"text":"post"}}`,
		},
		{
			name: "edited message",
			body: `{"update_id":6,"edited_message":{"message_id":5,"date":0,
				"from":{"id":42,"first_name":"A"},"chat":{"id":7,"type":"private"},"text":"hello!"}}`,
		},
		{
			name: "empty update",
			body: `{"update_id":7}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := DecodeUpdate([]byte(tt.body))
			require.NoError(t, err)

			got, ok := ToEvent(update)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeUpdate_Malformed(t *testing.T) {
	_, err := DecodeUpdate([]byte(`{"update_id":`))
	require.Error(t, err)

	_, err = DecodeUpdate([]byte(`not json`))
	require.Error(t, err)
}
