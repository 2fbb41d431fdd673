package operations

import (
	"context"
	"log/slog"

	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/internal/infrastructure"
)

func (m *Manager) logRunStart(ctx context.Context, logger *slog.Logger) {
	logger.InfoContext(ctx, "Report run started",
		slog.String("input", m.paths.InputFile),
		slog.String("template", m.paths.TemplateFile),
		slog.String("output_dir", m.paths.OutputDir),
		slog.Int("steps", m.registry.Count()),
		slog.Any("step_ids", m.registry.ListIDs()),
		slog.String("otel_trace_id", infrastructure.TraceIDFromContext(ctx)))
}

func (m *Manager) logRunComplete(ctx context.Context, logger *slog.Logger, state *OperationState, stats infrastructure.RunStats) {
	steps := make([]any, 0, len(state.Steps))
	for _, s := range state.StepsInOrder() {
		steps = append(steps, slog.Group(s.ID,
			slog.String("status", string(s.GetStatus())),
			slog.Duration("duration", s.Duration())))
	}

	attrs := []any{
		slog.String("status", string(state.Status)),
		slog.Duration("duration", state.Duration()),
		slog.Int("artifacts", len(state.Artifacts())),
		slog.Int("completed_steps", len(state.GetCompletedStages())),
		slog.Group("steps", steps...),
		slog.Any("resources", stats),
	}
	if state.Error != nil {
		logger.ErrorContext(ctx, "Report run failed", append(attrs,
			slog.String("failed_step", FailedStep(state.Error)),
			slog.String("error", state.Error.Error()))...)
		return
	}
	logger.InfoContext(ctx, "Report run completed", append(attrs,
		slog.String("report", state.ReportPath()))...)
}

func (m *Manager) logStepComplete(ctx context.Context, logger *slog.Logger, s *StepState, artifacts int) {
	logger.InfoContext(ctx, "Step completed",
		slog.String("step", s.ID),
		slog.Duration("duration", s.Duration()),
		slog.Int("artifacts", artifacts))
}

func (m *Manager) logStepError(ctx context.Context, logger *slog.Logger, stepID string, err error) {
	infrastructure.WithError(logger, err).ErrorContext(ctx, "Step failed",
		slog.String("step", stepID),
		slog.String("error_type", string(apperrors.TypeOf(err))))
}
