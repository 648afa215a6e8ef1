// Package share builds the links a finished video is handed out with.
package share

import (
	"net/url"
	"strings"
	"unicode"
)

const (
	directBase = "https://wa.me/"
	webBase    = "https://web.whatsapp.com/send"
)

// WhatsAppLink returns a link that opens a chat prefilled with message.
// With a phone number the chat is addressed to it; any non-digit characters
// in phone are ignored. Without one the link opens WhatsApp Web's picker.
func WhatsAppLink(message, phone string) string {
	text := escape(message)
	if digits := Digits(phone); digits != "" {
		return directBase + digits + "?text=" + text
	}
	return webBase + "?text=" + text
}

// Digits keeps only the ASCII digits of s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// escape percent-encodes s for a query value, with spaces as %20 so the
// message survives apps that do not decode '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
