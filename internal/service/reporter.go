package service

import (
	"context"
	"log/slog"
)

// Reporter is the side channel for best-effort cleanup failures. The
// primary operation a cleanup is attached to succeeds or fails on its
// own; whatever goes wrong during cleanup only lands here.
type Reporter interface {
	Report(ctx context.Context, op string, err error)
}

// SlogReporter logs cleanup failures through the injected logger.
type SlogReporter struct {
	log *slog.Logger
}

func NewSlogReporter(log *slog.Logger) *SlogReporter {
	return &SlogReporter{log: log}
}

func (r *SlogReporter) Report(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	r.log.ErrorContext(ctx, "cleanup failed", "op", op, "error", err)
}
