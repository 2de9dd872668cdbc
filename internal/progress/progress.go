package progress

import (
	"context"
	"fmt"
	"log/slog"

	"stickerzip/internal/notify"
)

// Reporter throttles status edits to every Nth item plus the final one.
// Edits are best-effort: a failed edit is logged and never aborts the job.
type Reporter struct {
	channel notify.Channel
	every   int
	logger  *slog.Logger
}

func NewReporter(channel notify.Channel, every int, logger *slog.Logger) *Reporter {
	if every < 1 {
		every = 1
	}
	return &Reporter{channel: channel, every: every, logger: logger}
}

// Step is called for every item; it only sends an edit when the 1-based item
// number hits the cadence or equals total.
func (r *Reporter) Step(ctx context.Context, h notify.StatusHandle, index, total int) {
	n := index + 1
	if n%r.every != 0 && n != total {
		return
	}
	text := fmt.Sprintf("Converting stickers... Processed %d of %d.", n, total)
	if err := r.channel.EditStatus(ctx, h, text); err != nil {
		r.logger.Warn("status update failed", "item", n, "error", err)
	}
}
