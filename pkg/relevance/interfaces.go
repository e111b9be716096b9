package relevance

import (
	"context"
	"errors"
	"time"

	"recall/pkg/models"
)

// ErrNotFound marks a missing conversation or subject. The assembler
// treats it as a valid empty result; only unexpected failures degrade.
var ErrNotFound = errors.New("not found")

// ConversationStore is the narrow read surface the engine needs from
// conversation storage.
type ConversationStore interface {
	// GetConversation returns a conversation with its retained message
	// log loaded, or ErrNotFound.
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	// ListConversations returns metadata (participants, activity) for
	// every conversation; message logs need not be loaded.
	ListConversations(ctx context.Context) ([]*models.Conversation, error)
}

// FactStore is the read-only fact surface. Facts are written by the
// external extraction pipeline, never by this engine.
type FactStore interface {
	GetFacts(ctx context.Context, subjectID string) (map[string]models.Fact, error)
}

// ImageQuery bounds an image-similarity lookup.
type ImageQuery struct {
	ConversationID string
	Since          time.Duration
	Limit          int
	Threshold      float64
}

// ImageMatch is one scored result of an image-description lookup.
type ImageMatch struct {
	MessageID  string
	Similarity float64
}

// ImageSimilarityLookup is an optional collaborator; a nil lookup just
// means image context is never attached.
type ImageSimilarityLookup interface {
	Similar(ctx context.Context, text string, q ImageQuery) ([]ImageMatch, error)
}

// GroupMetadata labels group-activity excerpts.
type GroupMetadata struct {
	DisplayName string
	MemberCount int
}

// GroupMetadataLookup is an optional collaborator used only to label
// cross-chat group excerpts.
type GroupMetadataLookup interface {
	GroupMetadata(ctx context.Context, conversationID string) (GroupMetadata, error)
}
