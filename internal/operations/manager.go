package operations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salarycli/internal/infrastructure"
)

// Manager executes registered stages in order
type Manager struct {
	registry *Registry
	tracer   trace.Tracer
	metrics  *infrastructure.StageMetrics
	logger   *slog.Logger
}

// NewManager creates a manager. Nil providers record nothing.
func NewManager(registry *Registry, providers *infrastructure.OTelProviders, logger *slog.Logger) (*Manager, error) {
	if providers == nil {
		providers = infrastructure.NoopProviders()
	}
	metrics, err := infrastructure.NewStageMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}
	return &Manager{
		registry: registry,
		tracer:   providers.Tracer,
		metrics:  metrics,
		logger:   infrastructure.WithComponent(logger, "operations"),
	}, nil
}

// Registry returns the stage registry
func (m *Manager) Registry() *Registry { return m.registry }

// Run executes the selected stages (all when ids is empty) one after the
// other. A failing stage stops the run and the stages after it are marked
// skipped. The state is returned even when the run fails.
func (m *Manager) Run(ctx context.Context, runID string, ids ...string) (*State, error) {
	stages, err := m.registry.Select(ids...)
	if err != nil {
		return nil, err
	}
	state := NewState(runID, stages)

	ctx, span := m.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.stages", len(stages)),
		))
	defer span.End()

	m.logger.InfoContext(ctx, "pipeline started",
		slog.String("run_id", runID),
		slog.Int("stage_count", len(stages)))
	started := time.Now()

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, stages[i:], "run cancelled")
			span.SetStatus(codes.Error, err.Error())
			return state, &StageError{Stage: stage.ID(), Cause: err}
		}
		if err := m.execute(ctx, state, stage, i+1, len(stages)); err != nil {
			m.skipRemaining(state, stages[i+1:], "previous stage "+stage.ID()+" failed")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return state, err
		}
	}

	m.logger.InfoContext(ctx, "pipeline completed",
		slog.String("run_id", runID),
		slog.Duration("duration", time.Since(started)))
	return state, nil
}

func (m *Manager) execute(ctx context.Context, state *State, stage Stage, n, total int) error {
	ctx, span := m.tracer.Start(ctx, "pipeline.stage."+stage.ID(),
		trace.WithAttributes(
			attribute.String("stage.id", stage.ID()),
			attribute.Int("stage.number", n),
		))
	defer span.End()

	ctx = infrastructure.WithStage(ctx, stage.ID())
	logger := m.logger
	logger.InfoContext(ctx, "executing stage",
		slog.Int("stage_number", n),
		slog.Int("total_stages", total))

	state.start(stage.ID())
	started := time.Now()
	err := stage.Execute(ctx, state)
	elapsed := time.Since(started)

	switch {
	case err == nil:
		state.finish(stage.ID(), StatusCompleted, "", nil)
		st, _ := state.Stage(stage.ID())
		m.metrics.RecordStage(ctx, stage.ID(), elapsed, nil)
		m.metrics.RecordRows(ctx, stage.ID(), st.Rows)
		span.SetAttributes(attribute.Int("stage.rows", st.Rows), attribute.Int("stage.outputs", len(st.Outputs)))
		logger.InfoContext(ctx, "stage completed",
			slog.Duration("duration", elapsed),
			slog.Int("rows", st.Rows),
			slog.Int("outputs", len(st.Outputs)))
		return nil

	case errors.Is(err, ErrSkipStage):
		state.finish(stage.ID(), StatusSkipped, err.Error(), nil)
		span.SetAttributes(attribute.Bool("stage.skipped", true))
		logger.InfoContext(ctx, "stage skipped", slog.String("reason", err.Error()))
		return nil

	default:
		state.finish(stage.ID(), StatusFailed, "", err)
		m.metrics.RecordStage(ctx, stage.ID(), elapsed, err)
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "stage failed",
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()))
		return &StageError{Stage: stage.ID(), Cause: err}
	}
}

func (m *Manager) skipRemaining(state *State, stages []Stage, reason string) {
	for _, stage := range stages {
		state.finish(stage.ID(), StatusSkipped, reason, nil)
	}
}
