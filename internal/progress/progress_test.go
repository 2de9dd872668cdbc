package progress

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"stickerzip/internal/notify"
)

type recordingChannel struct {
	edits []string
	err   error
}

func (c *recordingChannel) SendStatus(ctx context.Context, chatID int64, text string) (notify.StatusHandle, error) {
	return notify.StatusHandle{ChatID: chatID, MessageID: 1}, nil
}

func (c *recordingChannel) EditStatus(ctx context.Context, h notify.StatusHandle, text string) error {
	if c.err != nil {
		return c.err
	}
	c.edits = append(c.edits, text)
	return nil
}

func (c *recordingChannel) DeleteStatus(ctx context.Context, h notify.StatusHandle) error {
	return nil
}

func (c *recordingChannel) SendArchive(ctx context.Context, chatID int64, path, filename, caption string) error {
	return nil
}

func (c *recordingChannel) Reply(ctx context.Context, chatID int64, text string) error {
	return nil
}

func TestStepCadence(t *testing.T) {
	ch := &recordingChannel{}
	r := NewReporter(ch, 5, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := notify.StatusHandle{ChatID: 1, MessageID: 2}

	total := 12
	for i := 0; i < total; i++ {
		r.Step(context.Background(), h, i, total)
	}

	want := []string{
		"Converting stickers... Processed 5 of 12.",
		"Converting stickers... Processed 10 of 12.",
		"Converting stickers... Processed 12 of 12.",
	}
	if len(ch.edits) != len(want) {
		t.Fatalf("expected %d edits, got %d: %v", len(want), len(ch.edits), ch.edits)
	}
	for i, text := range want {
		if ch.edits[i] != text {
			t.Fatalf("edit %d = %q, want %q", i, ch.edits[i], text)
		}
	}
}

func TestStepSwallowsEditFailures(t *testing.T) {
	ch := &recordingChannel{err: errors.New("rate limited")}
	r := NewReporter(ch, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Must not panic or propagate.
	r.Step(context.Background(), notify.StatusHandle{}, 0, 1)
}

func TestStepFinalItemAlwaysReported(t *testing.T) {
	ch := &recordingChannel{}
	r := NewReporter(ch, 5, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r.Step(context.Background(), notify.StatusHandle{}, 2, 3)
	if len(ch.edits) != 1 {
		t.Fatalf("final item not reported: %v", ch.edits)
	}
}
