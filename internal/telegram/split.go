package telegram

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Telegram limits, counted in UTF-16 code units.
const (
	maxMessageLength = 4096
	maxCaptionLength = 1024
)

// splitMessage cuts text into chunks of at most limit UTF-16 units, preferring
// to cut after the last newline that fits.
func splitMessage(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		cutAt := cutIndex(text, limit)
		chunks = append(chunks, text[:cutAt])
		text = text[cutAt:]
	}
	return chunks
}

// truncate shortens text to at most limit UTF-16 units without splitting a rune.
func truncate(text string, limit int) string {
	if utf16Len(text) <= limit {
		return text
	}
	units := 0
	for i, r := range text {
		units += runeUnits(r)
		if units > limit {
			return text[:i]
		}
	}
	return text
}

// cutIndex returns the byte offset ending the next chunk of text.
func cutIndex(text string, limit int) int {
	units, lastNewline := 0, -1
	for i, r := range text {
		n := runeUnits(r)
		if units+n > limit {
			if lastNewline > 0 {
				return lastNewline + 1
			}
			if i == 0 {
				_, size := utf8.DecodeRuneInString(text)
				return size
			}
			return i
		}
		units += n
		if r == '\n' {
			lastNewline = i
		}
	}
	return len(text)
}

func utf16Len(text string) int {
	n := 0
	for _, r := range text {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
