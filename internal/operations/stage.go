package operations

import (
	"context"
)

// Stage is one unit of work within a pipeline run. Stages execute
// sequentially in registration order; the first failure aborts the run.
type Stage interface {
	ID() string
	Name() string
	Run(ctx context.Context) error
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageID   string
	StageName string
	Fn        func(ctx context.Context) error
}

func (s StageFunc) ID() string   { return s.StageID }
func (s StageFunc) Name() string { return s.StageName }

func (s StageFunc) Run(ctx context.Context) error {
	return s.Fn(ctx)
}
