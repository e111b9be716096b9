package utils

import "github.com/google/uuid"

// GenMessageID mints an id for an inbound message that arrived without
// one.
func GenMessageID() string { return "msg-" + uuid.NewString() }
