package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"retailsight/internal/churn"
	"retailsight/internal/config"
	"retailsight/internal/exporter"
	"retailsight/internal/ingest"
	"retailsight/internal/operations"
	"retailsight/internal/retail"
	"retailsight/internal/store"
	"retailsight/pkg/contracts/domain"
)

// RunService is the orchestration entry point: it assembles each pipeline's
// stages (load, derive, publish, export) and delegates execution to the run
// manager. Triggering is idempotent at the snapshot level: the same raw
// extract produces the same derived output on every run.
type RunService struct {
	cfg       *config.Config
	manager   *operations.Manager
	snapshots *store.Snapshots
	exporter  *exporter.CSVWriter

	retailReader   *ingest.RetailReader
	churnReader    *ingest.ChurnReader
	retailPipeline *retail.Pipeline
	churnPipeline  *churn.Pipeline

	logger *slog.Logger
}

// NewRunService wires the orchestration service.
func NewRunService(cfg *config.Config, manager *operations.Manager, snapshots *store.Snapshots, logger *slog.Logger) *RunService {
	return &RunService{
		cfg:            cfg,
		manager:        manager,
		snapshots:      snapshots,
		exporter:       exporter.NewCSVWriter(cfg.Paths.OutputDir, logger),
		retailReader:   ingest.NewRetailReader(logger),
		churnReader:    ingest.NewChurnReader(logger),
		retailPipeline: retail.NewPipeline(cfg.Analytics, logger),
		churnPipeline:  churn.NewPipeline(cfg.Analytics, logger),
		logger:         logger.With(slog.String("component", "run_service")),
	}
}

// Trigger starts a background run of the named pipeline.
func (s *RunService) Trigger(pipeline string) (operations.RunInfo, error) {
	switch pipeline {
	case operations.PipelineRetail:
		return s.manager.Trigger(pipeline, s.retailStages)
	case operations.PipelineChurn:
		return s.manager.Trigger(pipeline, s.churnStages)
	default:
		return operations.RunInfo{}, fmt.Errorf("unknown pipeline %q", pipeline)
	}
}

// Execute runs the named pipeline synchronously; "all" runs retail then
// churn.
func (s *RunService) Execute(ctx context.Context, pipeline string) ([]operations.RunInfo, error) {
	var pipelines []string
	switch pipeline {
	case "all":
		pipelines = []string{operations.PipelineRetail, operations.PipelineChurn}
	case operations.PipelineRetail, operations.PipelineChurn:
		pipelines = []string{pipeline}
	default:
		return nil, fmt.Errorf("unknown pipeline %q", pipeline)
	}

	var infos []operations.RunInfo
	for _, p := range pipelines {
		builder := s.retailStages
		if p == operations.PipelineChurn {
			builder = s.churnStages
		}
		info, err := s.manager.Execute(ctx, p, builder)
		infos = append(infos, info)
		if err != nil {
			return infos, err
		}
	}
	return infos, nil
}

// Get returns one run's current state.
func (s *RunService) Get(runID string) (operations.RunInfo, error) {
	return s.manager.Get(runID)
}

// List returns all known runs, most recent first.
func (s *RunService) List() []operations.RunInfo {
	return s.manager.List()
}

func (s *RunService) retailStages(runID string) []operations.Stage {
	var records []domain.SalesRecord
	var derived *retail.Derived

	return []operations.Stage{
		operations.StageFunc{
			StageID: "load", StageName: "Load retail extract",
			Fn: func(ctx context.Context) error {
				var err error
				records, err = s.retailReader.Load(ctx, s.cfg.Paths.RetailExtract)
				return err
			},
		},
		operations.StageFunc{
			StageID: "derive", StageName: "Derive retail analytics",
			Fn: func(ctx context.Context) error {
				var err error
				derived, err = s.retailPipeline.Run(ctx, records)
				return err
			},
		},
		operations.StageFunc{
			StageID: "publish", StageName: "Publish snapshot",
			Fn: func(context.Context) error {
				s.snapshots.PublishRetail(&store.RetailSnapshot{
					RunID:     runID,
					CreatedAt: time.Now(),
					RawCount:  len(records),
					Derived:   derived,
				})
				return nil
			},
		},
		operations.StageFunc{
			StageID: "export", StageName: "Export CSV tables",
			Fn: func(context.Context) error {
				_, err := s.exporter.ExportRetail(runID, derived)
				return err
			},
		},
	}
}

func (s *RunService) churnStages(runID string) []operations.Stage {
	var users []domain.User
	var transactions []domain.Transaction
	var activities []domain.ActivityEvent
	var derived *churn.Derived

	return []operations.Stage{
		operations.StageFunc{
			StageID: "load", StageName: "Load churn extracts",
			Fn: func(ctx context.Context) error {
				var err error
				if users, err = s.churnReader.LoadUsers(ctx, s.cfg.Paths.UsersCSV); err != nil {
					return err
				}
				if transactions, err = s.churnReader.LoadTransactions(ctx, s.cfg.Paths.TransactionsCSV); err != nil {
					return err
				}
				activities, err = s.churnReader.LoadActivities(ctx, s.cfg.Paths.ActivitiesCSV)
				return err
			},
		},
		operations.StageFunc{
			StageID: "derive", StageName: "Derive churn features",
			Fn: func(ctx context.Context) error {
				var err error
				derived, err = s.churnPipeline.Run(ctx, users, transactions, activities)
				return err
			},
		},
		operations.StageFunc{
			StageID: "publish", StageName: "Publish snapshot",
			Fn: func(context.Context) error {
				s.snapshots.PublishChurn(&store.ChurnSnapshot{
					RunID:     runID,
					CreatedAt: time.Now(),
					UserCount: len(users),
					Derived:   derived,
				})
				return nil
			},
		},
		operations.StageFunc{
			StageID: "export", StageName: "Export CSV tables",
			Fn: func(context.Context) error {
				_, err := s.exporter.ExportChurn(runID, derived)
				return err
			},
		},
	}
}
