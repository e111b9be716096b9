package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateInbound(t *testing.T) {
	cases := []struct {
		name string
		in   Inbound
		want error
	}{
		{"ok", Inbound{SenderID: "u1", Content: "halo", Role: "user"}, nil},
		{"empty role ok", Inbound{SenderID: "u1", Content: "halo"}, nil},
		{"no sender", Inbound{Content: "halo"}, ErrNoSender},
		{"no content", Inbound{SenderID: "u1"}, ErrNoContent},
		{"bad role", Inbound{SenderID: "u1", Content: "halo", Role: "system"}, ErrBadRole},
		{"bad utf8", Inbound{SenderID: "u1", Content: string([]byte{0xff, 0xfe})}, ErrContentValid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInbound(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateInboundOversized(t *testing.T) {
	in := Inbound{SenderID: "u1", Content: strings.Repeat("a", MaxContentLen+1)}
	if err := ValidateInbound(in); err == nil {
		t.Fatal("oversized content must be rejected")
	}
}
