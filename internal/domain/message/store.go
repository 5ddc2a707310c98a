package message

import "context"

// Store looks up chat messages captured by the ingestion side. The queue
// classifier needs only the text of the reacted-to message.
type Store interface {
	// FindText returns the message body and whether the message exists.
	FindText(ctx context.Context, messageID string) (string, bool, error)
}
