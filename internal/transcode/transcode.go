package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"stickerzip/internal/source"
)

// Kind classifies the outcome of a single item conversion.
type Kind int

const (
	Converted Kind = iota
	SkippedTooLarge
	Failed
)

// Outcome is the per-item result. Data and EntryName are set only for
// Converted; Err only for Failed.
type Outcome struct {
	Kind      Kind
	Data      []byte
	EntryName string
	Err       error
}

var errPayloadTooLarge = errors.New("payload exceeds size ceiling")

// Transcoder fetches one item and converts it to a JPEG still.
type Transcoder struct {
	provider     source.Provider
	client       *http.Client
	maxItemBytes int64
	quality      int
	logger       *slog.Logger
}

func New(provider source.Provider, client *http.Client, maxItemBytes int64, quality int, logger *slog.Logger) *Transcoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Transcoder{
		provider:     provider,
		client:       client,
		maxItemBytes: maxItemBytes,
		quality:      quality,
		logger:       logger,
	}
}

// Transcode never fails the job: every error is folded into the Outcome.
// Items whose declared size exceeds the ceiling are skipped without a fetch;
// the fetch itself is also capped, so an undeclared oversized payload is
// skipped after download.
func (t *Transcoder) Transcode(ctx context.Context, ref source.ItemRef, index int, setName string) Outcome {
	if ref.Size > 0 && ref.Size > t.maxItemBytes {
		return Outcome{Kind: SkippedTooLarge}
	}

	raw, err := t.fetch(ctx, ref)
	if err != nil {
		if errors.Is(err, errPayloadTooLarge) {
			return Outcome{Kind: SkippedTooLarge}
		}
		t.logger.Error("item fetch failed", "item", index+1, "error", err)
		return Outcome{Kind: Failed, Err: err}
	}

	data, err := t.convert(raw)
	if err != nil {
		t.logger.Error("item conversion failed", "item", index+1, "error", err)
		return Outcome{Kind: Failed, Err: err}
	}

	return Outcome{
		Kind:      Converted,
		Data:      data,
		EntryName: fmt.Sprintf("%s_%d.jpg", setName, index+1),
	}
}

func (t *Transcoder) fetch(ctx context.Context, ref source.ItemRef) ([]byte, error) {
	location, err := t.provider.ResolveContentLocation(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolving content location: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching item content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching item content: unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, t.maxItemBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading item content: %w", err)
	}
	if int64(len(raw)) > t.maxItemBytes {
		return nil, errPayloadTooLarge
	}
	return raw, nil
}

// convert decodes the payload (frame 0 for animated sources), composites it
// onto an opaque white canvas so transparency and palettes are gone, and
// encodes a JPEG.
func (t *Transcoder) convert(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: t.quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
