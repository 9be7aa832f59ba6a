package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"retailsight/internal/infrastructure"
)

// ErrAlreadyRunning is returned when a pipeline is triggered while a prior
// run of the same pipeline is still in flight.
var ErrAlreadyRunning = errors.New("pipeline run already in progress")

// ErrRunNotFound is returned when no run with the requested ID exists.
var ErrRunNotFound = errors.New("run not found")

type runState struct {
	mu     sync.RWMutex
	info   RunInfo
	stages []*StageInfo
}

func (r *runState) snapshot() RunInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info := r.info
	info.Stages = make([]StageInfo, len(r.stages))
	for i, s := range r.stages {
		info.Stages[i] = *s
	}
	return info
}

// Manager owns pipeline run execution: one run per pipeline at a time,
// sequential stages, progress broadcast and run/stage metrics.
type Manager struct {
	mu      sync.Mutex
	runs    map[string]*runState
	active  map[string]string
	timeout time.Duration

	metrics     *infrastructure.BusinessMetrics
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewManager creates a manager. metrics and broadcaster may be nil for batch
// use; runTimeout bounds a whole run.
func NewManager(runTimeout time.Duration, metrics *infrastructure.BusinessMetrics, broadcaster Broadcaster, logger *slog.Logger) *Manager {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &Manager{
		runs:        make(map[string]*runState),
		active:      make(map[string]string),
		timeout:     runTimeout,
		metrics:     metrics,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "run_manager")),
	}
}

// StageBuilder materializes a pipeline's stages once the run ID is known,
// so stages that publish or export can stamp their output with it.
type StageBuilder func(runID string) []Stage

// Trigger starts a run of the named pipeline. It returns immediately with
// the pending run's info; stages execute on a background goroutine. A second
// trigger while the same pipeline is running fails with ErrAlreadyRunning.
func (m *Manager) Trigger(pipeline string, build StageBuilder) (RunInfo, error) {
	if pipeline != PipelineRetail && pipeline != PipelineChurn {
		return RunInfo{}, fmt.Errorf("unknown pipeline %q", pipeline)
	}

	m.mu.Lock()
	if activeID, busy := m.active[pipeline]; busy {
		m.mu.Unlock()
		return RunInfo{}, fmt.Errorf("%w: pipeline %s (run %s)", ErrAlreadyRunning, pipeline, activeID)
	}

	run := &runState{
		info: RunInfo{
			ID:        uuid.New().String(),
			Pipeline:  pipeline,
			Status:    RunStatusPending,
			StartTime: time.Now(),
		},
	}
	stages := build(run.info.ID)
	if len(stages) == 0 {
		m.mu.Unlock()
		return RunInfo{}, fmt.Errorf("pipeline %s has no stages", pipeline)
	}
	for _, stage := range stages {
		run.stages = append(run.stages, &StageInfo{
			ID:     stage.ID(),
			Name:   stage.Name(),
			Status: StageStatusPending,
		})
	}
	m.runs[run.info.ID] = run
	m.active[pipeline] = run.info.ID
	m.mu.Unlock()

	go m.execute(run, stages)
	return run.snapshot(), nil
}

// Execute runs the pipeline synchronously. The batch CLI uses this; the HTTP
// surface uses Trigger.
func (m *Manager) Execute(ctx context.Context, pipeline string, build StageBuilder) (RunInfo, error) {
	info, err := m.Trigger(pipeline, build)
	if err != nil {
		return RunInfo{}, err
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		current, err := m.Get(info.ID)
		if err != nil {
			return RunInfo{}, err
		}
		switch current.Status {
		case RunStatusCompleted:
			return current, nil
		case RunStatusFailed:
			return current, fmt.Errorf("run %s failed: %s", current.ID, current.Error)
		}
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Get returns the current view of one run.
func (m *Manager) Get(runID string) (RunInfo, error) {
	m.mu.Lock()
	run, ok := m.runs[runID]
	m.mu.Unlock()
	if !ok {
		return RunInfo{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run.snapshot(), nil
}

// List returns every known run, most recent first.
func (m *Manager) List() []RunInfo {
	m.mu.Lock()
	infos := make([]RunInfo, 0, len(m.runs))
	for _, run := range m.runs {
		infos = append(infos, run.snapshot())
	}
	m.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].StartTime.Equal(infos[j].StartTime) {
			return infos[i].StartTime.After(infos[j].StartTime)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

func (m *Manager) execute(run *runState, stages []Stage) {
	ctx := context.Background()
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	run.mu.Lock()
	run.info.Status = RunStatusRunning
	run.info.StartTime = time.Now()
	pipeline, runID := run.info.Pipeline, run.info.ID
	run.mu.Unlock()

	start := time.Now()
	m.broadcast(EventRunStarted, run, "", "run started")
	m.logger.Info("run started",
		slog.String("run_id", runID),
		slog.String("pipeline", pipeline))

	var runErr error
	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("run aborted before stage %s: %w", stage.ID(), err)
			m.failStage(run, i, runErr)
			break
		}
		if err := m.executeStage(ctx, run, i, stage); err != nil {
			runErr = err
			break
		}
	}

	now := time.Now()
	run.mu.Lock()
	run.info.EndTime = &now
	if runErr != nil {
		run.info.Status = RunStatusFailed
		run.info.Error = runErr.Error()
	} else {
		run.info.Status = RunStatusCompleted
	}
	run.mu.Unlock()

	m.mu.Lock()
	delete(m.active, pipeline)
	m.mu.Unlock()

	if m.metrics != nil {
		infrastructure.RecordRunMetrics(ctx, m.metrics, runID, pipeline, time.Since(start), runErr == nil, runErr)
	}

	if runErr != nil {
		m.broadcast(EventRunFailed, run, "", runErr.Error())
		m.logger.Error("run failed",
			slog.String("run_id", runID),
			slog.String("pipeline", pipeline),
			slog.String("error", runErr.Error()),
			slog.Duration("duration", time.Since(start)))
		return
	}
	m.broadcast(EventRunCompleted, run, "", "run completed")
	m.logger.Info("run completed",
		slog.String("run_id", runID),
		slog.String("pipeline", pipeline),
		slog.Duration("duration", time.Since(start)))
}

func (m *Manager) executeStage(ctx context.Context, run *runState, idx int, stage Stage) error {
	now := time.Now()
	run.mu.Lock()
	run.stages[idx].Status = StageStatusActive
	run.stages[idx].StartTime = &now
	runID, pipeline := run.info.ID, run.info.Pipeline
	run.mu.Unlock()

	m.broadcast(EventStageStarted, run, stage.ID(), stage.Name())

	start := time.Now()
	err := stage.Run(ctx)
	duration := time.Since(start)

	if m.metrics != nil {
		infrastructure.RecordStageMetrics(ctx, m.metrics, runID, stage.ID(), duration, err == nil)
	}

	end := time.Now()
	run.mu.Lock()
	run.stages[idx].EndTime = &end
	if err != nil {
		run.stages[idx].Status = StageStatusFailed
		run.stages[idx].Error = err.Error()
	} else {
		run.stages[idx].Status = StageStatusCompleted
	}
	run.mu.Unlock()

	if err != nil {
		m.broadcast(EventStageFailed, run, stage.ID(), err.Error())
		return fmt.Errorf("stage %s: %w", stage.ID(), err)
	}

	m.broadcast(EventStageCompleted, run, stage.ID(), stage.Name())
	m.logger.Debug("stage completed",
		slog.String("run_id", runID),
		slog.String("pipeline", pipeline),
		slog.String("stage", stage.ID()),
		slog.Duration("duration", duration))
	return nil
}

func (m *Manager) failStage(run *runState, idx int, err error) {
	now := time.Now()
	run.mu.Lock()
	run.stages[idx].Status = StageStatusFailed
	run.stages[idx].Error = err.Error()
	run.stages[idx].EndTime = &now
	run.mu.Unlock()
}

func (m *Manager) broadcast(eventType string, run *runState, stage, message string) {
	run.mu.RLock()
	event := ProgressEvent{
		Type:      eventType,
		RunID:     run.info.ID,
		Pipeline:  run.info.Pipeline,
		Status:    run.info.Status,
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	}
	run.mu.RUnlock()
	m.broadcaster.BroadcastProgress(event)
}
