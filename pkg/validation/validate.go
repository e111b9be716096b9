// Package validation is the canonicalization boundary for inbound
// messages: transport adapters must produce a fixed models.Message that
// passes these checks before anything reaches the engine.
package validation

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxContentLen bounds message content; chat transports cap far below
// this, so exceeding it indicates a broken adapter.
const MaxContentLen = 64 * 1024

var (
	ErrNoSender     = errors.New("sender_id is required")
	ErrNoContent    = errors.New("content is required")
	ErrBadRole      = errors.New("role must be user or agent")
	ErrContentValid = errors.New("content is not valid UTF-8")
)

// Inbound is the subset of a message a transport must supply.
type Inbound struct {
	SenderID string
	Content  string
	Role     string
}

// ValidateInbound checks a canonicalized inbound message. Empty role
// defaults to user upstream and is accepted here.
func ValidateInbound(in Inbound) error {
	if in.SenderID == "" {
		return ErrNoSender
	}
	if in.Content == "" {
		return ErrNoContent
	}
	if len(in.Content) > MaxContentLen {
		return fmt.Errorf("content exceeds %d bytes", MaxContentLen)
	}
	if !utf8.ValidString(in.Content) {
		return ErrContentValid
	}
	switch in.Role {
	case "", "user", "agent":
		return nil
	default:
		return ErrBadRole
	}
}
