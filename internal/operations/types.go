package operations

import (
	"time"
)

// Pipeline names accepted by the run entry point.
const (
	PipelineRetail = "retail"
	PipelineChurn  = "churn"
)

// RunStatus is the overall lifecycle state of one pipeline run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StageStatus is the lifecycle state of one stage within a run.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

// StageInfo is the immutable view of one stage's state.
type StageInfo struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Status    StageStatus `json:"status"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// RunInfo is the immutable view of one run's state, safe to hand to the
// transport layer.
type RunInfo struct {
	ID        string      `json:"id"`
	Pipeline  string      `json:"pipeline"`
	Status    RunStatus   `json:"status"`
	StartTime time.Time   `json:"start_time"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Stages    []StageInfo `json:"stages"`
	Error     string      `json:"error,omitempty"`
}

// ProgressEvent is one run/stage transition pushed to websocket subscribers.
type ProgressEvent struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	Pipeline  string    `json:"pipeline"`
	Status    RunStatus `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Progress event types.
const (
	EventRunStarted     = "run_started"
	EventStageStarted   = "stage_started"
	EventStageCompleted = "stage_completed"
	EventStageFailed    = "stage_failed"
	EventRunCompleted   = "run_completed"
	EventRunFailed      = "run_failed"
)

// Broadcaster pushes progress events to subscribers. The websocket hub
// implements it; a no-op implementation serves the batch CLI.
type Broadcaster interface {
	BroadcastProgress(event ProgressEvent)
}

// NopBroadcaster discards every event.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastProgress(ProgressEvent) {}
