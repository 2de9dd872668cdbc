package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stickerzip/internal/archive"
	"stickerzip/internal/config"
	"stickerzip/internal/jobs"
	"stickerzip/internal/notify"
	"stickerzip/internal/progress"
	"stickerzip/internal/source"
	"stickerzip/internal/transcode"
)

// Request describes one conversion job. SetName is already sanitized and
// non-empty.
type Request struct {
	ChatID  int64
	SetName string
}

// Orchestrator drives a job end to end: resolve the set, convert each item,
// archive the successes and deliver the result, keeping the single status
// message current throughout.
type Orchestrator struct {
	resolver   *source.Resolver
	transcoder *transcode.Transcoder
	channel    notify.Channel
	reporter   *progress.Reporter
	registry   *jobs.Registry
	cfg        config.Config
	logger     *slog.Logger
}

func New(
	resolver *source.Resolver,
	transcoder *transcode.Transcoder,
	channel notify.Channel,
	reporter *progress.Reporter,
	registry *jobs.Registry,
	cfg config.Config,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		resolver:   resolver,
		transcoder: transcoder,
		channel:    channel,
		reporter:   reporter,
		registry:   registry,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one job. It never returns an error: every failure ends with
// the user seeing a final status, and the archive's backing file is removed
// on every path.
func (o *Orchestrator) Run(ctx context.Context, req Request) {
	job := o.registry.Create(req.SetName, req.ChatID)
	log := o.logger.With("job_id", job.ID, "set", req.SetName)

	h, err := o.channel.SendStatus(ctx, req.ChatID,
		fmt.Sprintf("Processing set: <b>%s</b>. Fetching data...", req.SetName))
	if err != nil {
		log.Error("could not send status message", "error", err)
		o.markFailed(job.ID, err)
		return
	}

	if err := o.convert(ctx, req, job.ID, h, log); err != nil {
		log.Error("job failed", "error", err)
		o.markFailed(job.ID, err)
		o.reportFailure(ctx, req.ChatID, h, err, log)
		return
	}
}

// convert runs resolution, the item loop and delivery. A nil return means
// the job reached a terminal state the user has already been told about;
// a non-nil return is handled by Run's catch-all reporting.
func (o *Orchestrator) convert(ctx context.Context, req Request, jobID string, h notify.StatusHandle, log *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during conversion", "panic", r)
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	refs, err := o.resolver.Resolve(ctx, req.SetName)
	if err != nil {
		if errors.Is(err, source.ErrSetNotFound) {
			o.markFailed(jobID, err)
			o.edit(ctx, h, fmt.Sprintf("Sticker set '%s' was not found. Check the name or the link.", req.SetName), log)
			return nil
		}
		return err
	}

	total := len(refs)
	o.registry.Update(jobID, func(j *jobs.Job) {
		j.Status = jobs.StatusConverting
		j.Total = total
	})
	if err := o.channel.EditStatus(ctx, h, fmt.Sprintf("Found %d stickers. Starting conversion...", total)); err != nil {
		return fmt.Errorf("updating status message: %w", err)
	}

	builder, err := archive.Open(o.cfg.TempDir, "stickerzip-*.zip")
	if err != nil {
		return err
	}
	defer builder.Discard()

	processed := 0
	skippedLarge := 0
	for i, ref := range refs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		o.reporter.Step(ctx, h, i, total)

		out := o.transcoder.Transcode(ctx, ref, i, req.SetName)
		switch out.Kind {
		case transcode.Converted:
			if err := builder.Append(out.EntryName, out.Data); err != nil {
				return err
			}
			processed++
		case transcode.SkippedTooLarge:
			skippedLarge++
		case transcode.Failed:
			// Already logged; the item is simply absent from the archive.
		}

		done := i + 1
		o.registry.Update(jobID, func(j *jobs.Job) {
			j.Index = done
			j.Processed = processed
			j.SkippedLarge = skippedLarge
		})
	}

	if processed == 0 {
		msg := "Could not convert any stickers. "
		if skippedLarge > 0 {
			msg += fmt.Sprintf("Skipped %d stickers because they were too large.", skippedLarge)
		} else {
			msg += "The set may contain only animated stickers."
		}
		o.registry.Update(jobID, func(j *jobs.Job) { j.Status = jobs.StatusEmpty })
		if err := o.channel.EditStatus(ctx, h, msg); err != nil {
			return fmt.Errorf("updating status message: %w", err)
		}
		log.Info("job finished empty", "skipped_large", skippedLarge)
		return nil
	}

	path, err := builder.Seal()
	if err != nil {
		return err
	}

	o.registry.Update(jobID, func(j *jobs.Job) { j.Status = jobs.StatusDelivering })
	caption := fmt.Sprintf("JPG archive (%d images) for set '%s'", processed, req.SetName)
	filename := fmt.Sprintf("%s_%s", req.SetName, o.cfg.ArchiveSuffix)
	if err := o.deliver(ctx, req.ChatID, h, path, filename, caption); err != nil {
		log.Error("archive delivery failed", "error", err)
		o.markFailed(jobID, err)
		o.edit(ctx, h, fmt.Sprintf("Failed to send the archive: %v", err), log)
		return nil
	}

	o.registry.Update(jobID, func(j *jobs.Job) { j.Status = jobs.StatusCompleted })
	log.Info("job completed", "processed", processed, "skipped_large", skippedLarge, "total", total)
	return nil
}

func (o *Orchestrator) deliver(ctx context.Context, chatID int64, h notify.StatusHandle, path, filename, caption string) error {
	if err := o.channel.SendArchive(ctx, chatID, path, filename, caption); err != nil {
		return err
	}
	return o.channel.DeleteStatus(ctx, h)
}

// reportFailure is the top-level catch-all: edit the status message, and if
// even that fails, fall back to a fresh reply.
func (o *Orchestrator) reportFailure(ctx context.Context, chatID int64, h notify.StatusHandle, cause error, log *slog.Logger) {
	text := fmt.Sprintf("An error occurred while processing: %v", cause)
	if err := o.channel.EditStatus(ctx, h, text); err != nil {
		if rerr := o.channel.Reply(ctx, chatID, fmt.Sprintf("A critical error occurred: %v", cause)); rerr != nil {
			log.Error("could not report failure to the user", "error", rerr)
		}
	}
}

func (o *Orchestrator) markFailed(jobID string, cause error) {
	o.registry.Update(jobID, func(j *jobs.Job) {
		j.Status = jobs.StatusFailed
		j.Error = cause.Error()
	})
}

// edit is for terminal status texts whose failure we only log.
func (o *Orchestrator) edit(ctx context.Context, h notify.StatusHandle, text string, log *slog.Logger) {
	if err := o.channel.EditStatus(ctx, h, text); err != nil {
		log.Warn("status edit failed", "error", err)
	}
}
