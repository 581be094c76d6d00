package domain

import (
	"context"
	"time"
)

// Message represents a single tweet in a conversation
type Message struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenSource provides a valid access token for the platform API,
// refreshing or re-authorizing as needed
type TokenSource interface {
	Valid(ctx context.Context) (string, error)
}

// ReplyGenerator produces the reply text for a new message given its
// conversation history. An error means "do not reply", never an empty reply.
type ReplyGenerator interface {
	Generate(ctx context.Context, text string, history []Message) (string, error)
}
