package notify

import "context"

// StatusHandle identifies the single in-place progress message of one job.
type StatusHandle struct {
	ChatID    int64
	MessageID int
}

// Channel is the chat transport the pipeline reports through. Every call may
// fail independently; the pipeline decides which failures are fatal.
type Channel interface {
	// SendStatus posts the initial status message and returns its handle.
	SendStatus(ctx context.Context, chatID int64, text string) (StatusHandle, error)
	// EditStatus rewrites the status message in place.
	EditStatus(ctx context.Context, h StatusHandle, text string) error
	// DeleteStatus removes the status message after successful delivery.
	DeleteStatus(ctx context.Context, h StatusHandle) error
	// SendArchive delivers the sealed archive as a document attachment.
	SendArchive(ctx context.Context, chatID int64, path, filename, caption string) error
	// Reply posts a fresh message, used as the last-resort error path.
	Reply(ctx context.Context, chatID int64, text string) error
}
