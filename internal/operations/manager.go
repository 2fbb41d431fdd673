package operations

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/internal/infrastructure"
)

// Manager runs the report pipeline: one step after another, stopping at
// the first failure.
type Manager struct {
	config    *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	registry  *Registry
}

// NewManager creates a manager with the default steps for cfg. telemetry
// may be nil.
func NewManager(cfg *config.Config, logger *slog.Logger, telemetry *infrastructure.Telemetry) (*Manager, error) {
	if cfg == nil {
		return nil, NewFatalError("configuration is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	paths := config.NewPaths(cfg)
	return NewManagerWithSteps(cfg, logger, telemetry,
		DefaultSteps(cfg, paths, logger, telemetry.ReportMetrics())...)
}

// NewManagerWithSteps creates a manager running the given steps.
func NewManagerWithSteps(cfg *config.Config, logger *slog.Logger, telemetry *infrastructure.Telemetry, steps ...Step) (*Manager, error) {
	if cfg == nil {
		return nil, NewFatalError("configuration is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := NewRegistry()
	for _, s := range steps {
		if err := registry.Register(s); err != nil {
			return nil, NewFatalError("failed to register step", err)
		}
	}
	if _, err := registry.GetDependencyOrder(); err != nil {
		return nil, NewFatalError("invalid step dependencies", err)
	}

	return &Manager{
		config:    cfg,
		paths:     config.NewPaths(cfg),
		logger:    infrastructure.WithComponent(logger, "pipeline"),
		telemetry: telemetry,
		registry:  registry,
	}, nil
}

// Paths returns the resolved run locations.
func (m *Manager) Paths() *config.Paths {
	return m.paths
}

// Run executes every step once. The returned state is never nil and lists
// the artifacts written, including those written before a failure.
func (m *Manager) Run(ctx context.Context) (*OperationState, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)
	state := NewOperationState(runID)
	logger := infrastructure.LoggerWithContext(ctx, m.logger)

	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		fatal := NewFatalError("failed to order steps", err)
		state.Fail(fatal)
		return state, fatal
	}
	for _, s := range steps {
		state.SetStage(s.ID(), NewStepState(s.ID(), s.Name()))
	}

	ctx, span := m.telemetry.StartSpan(ctx, "report.run",
		attribute.String("run.id", runID),
		attribute.String("run.input", m.paths.InputFile),
		attribute.Int("run.steps", len(steps)))
	defer span.End()

	m.paths.LogPathResolution(logger)
	state.Start()
	m.logRunStart(ctx, logger)

	err = m.executeSequential(ctx, logger, state, steps)
	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
	default:
		state.Fail(err)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}

	var resources *infrastructure.RunResources
	if m.telemetry != nil {
		resources = m.telemetry.Resources
	}
	stats := resources.Collect(ctx, state.StartTime)
	m.logRunComplete(ctx, logger, state, stats)

	return state, err
}

// executeSequential runs steps in order. After a failure the remaining steps
// are marked skipped.
func (m *Manager) executeSequential(ctx context.Context, logger *slog.Logger, state *OperationState, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			cancelErr := NewCancellationError(step.ID(), err)
			m.skipRemaining(state, steps[i:], "run cancelled")
			return cancelErr
		}

		if err := m.checkDependencies(state, step); err != nil {
			state.GetStage(step.ID()).Fail(err)
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
			return err
		}

		if err := step.Validate(state); err != nil {
			verr := WrapError(err, step.ID())
			verr.Type = ErrorTypeValidation
			state.GetStage(step.ID()).Fail(verr)
			m.logStepError(ctx, logger, step.ID(), verr)
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
			return verr
		}

		logger.DebugContext(ctx, "Executing step",
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, logger, state, step); err != nil {
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
			return err
		}
	}
	return nil
}

// executeStep runs one step inside its own span.
func (m *Manager) executeStep(ctx context.Context, logger *slog.Logger, state *OperationState, step Step) error {
	ctx, span := m.telemetry.StartSpan(ctx, "report.step."+step.ID(),
		attribute.String("step.id", step.ID()),
		attribute.String("step.name", step.Name()))
	defer span.End()

	stepState := state.GetStage(step.ID())
	before := len(state.Artifacts())

	stepState.Start()
	err := step.Execute(ctx, state)

	if reason, ok := IsSkip(err); ok {
		stepState.Skip(reason)
		logger.InfoContext(ctx, "Step skipped",
			slog.String("step", step.ID()),
			slog.String("reason", reason))
		return nil
	}

	if err != nil {
		stepState.Fail(err)
	} else {
		stepState.Complete()
	}

	metrics := m.telemetry.ReportMetrics()
	metrics.RecordStep(ctx, step.ID(), stepState.Duration(), err)
	written := state.Artifacts()[before:]
	for _, a := range written {
		metrics.RecordArtifact(ctx, string(a.Kind))
	}
	span.SetAttributes(attribute.Int("step.artifacts", len(written)))

	if err != nil {
		infrastructure.RecordError(ctx, err)
		m.logStepError(ctx, logger, step.ID(), err)
		return WrapError(err, step.ID())
	}

	m.logStepComplete(ctx, logger, stepState, len(written))
	return nil
}

// checkDependencies verifies that every dependency finished or was skipped.
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			return NewValidationError(step.ID(), fmt.Sprintf("dependency %s not found", dep))
		}
		if s := depState.GetStatus(); s != StepStatusCompleted && s != StepStatusSkipped {
			return NewValidationError(step.ID(), fmt.Sprintf("dependency %s not completed (status: %s)", dep, s))
		}
	}
	return nil
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, s := range steps {
		if st := state.GetStage(s.ID()); st != nil && st.GetStatus() == StepStatusPending {
			st.Skip(reason)
		}
	}
}
