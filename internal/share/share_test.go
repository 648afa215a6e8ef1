package share

import (
	"net/url"
	"testing"
)

func TestWhatsAppLink(t *testing.T) {
	tests := []struct {
		name    string
		message string
		phone   string
		want    string
	}{
		{"web", "Acme is hiring", "", "https://web.whatsapp.com/send?text=Acme%20is%20hiring"},
		{"direct", "hi", "+91 98765-43210", "https://wa.me/919876543210?text=hi"},
		{"phone without digits", "hi", "n/a", "https://web.whatsapp.com/send?text=hi"},
		{"reserved characters", "CTC: 12 LPA & more?", "", "https://web.whatsapp.com/send?text=CTC%3A%2012%20LPA%20%26%20more%3F"},
		{"plus sign", "C++ role", "1", "https://wa.me/1?text=C%2B%2B%20role"},
		{"empty message", "", "", "https://web.whatsapp.com/send?text="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WhatsAppLink(tt.message, tt.phone); got != tt.want {
				t.Errorf("WhatsAppLink(%q, %q) = %s, want %s", tt.message, tt.phone, got, tt.want)
			}
		})
	}
}

func TestWhatsAppLinkRoundTrips(t *testing.T) {
	msg := "🎯 Placement: Acme Ltd\nRole: SDE / Backend\n100% remote"
	u, err := url.Parse(WhatsAppLink(msg, ""))
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Query().Get("text"); got != msg {
		t.Errorf("decoded message = %q, want %q", got, msg)
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+1 (555) ٣ 010-99"); got != "155501099" {
		t.Errorf("Digits = %q", got)
	}
}
