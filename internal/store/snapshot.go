package store

import (
	"log/slog"
	"sync"
	"time"

	"retailsight/internal/churn"
	"retailsight/internal/retail"
)

// RetailSnapshot is one complete, immutable derived output set stamped with
// the run that produced it.
type RetailSnapshot struct {
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	RawCount  int             `json:"raw_count"`
	Derived   *retail.Derived `json:"derived"`
}

// ChurnSnapshot is one complete churn feature set stamped with its run.
type ChurnSnapshot struct {
	RunID     string         `json:"run_id"`
	CreatedAt time.Time      `json:"created_at"`
	UserCount int            `json:"user_count"`
	Derived   *churn.Derived `json:"derived"`
}

// Snapshots is the serving layer's view of the latest derived output. A run
// publishes its whole output set in one swap: readers either see the prior
// complete snapshot or the new one, never a mix.
type Snapshots struct {
	mu     sync.RWMutex
	retail *RetailSnapshot
	churn  *ChurnSnapshot
	logger *slog.Logger
}

// NewSnapshots creates an empty snapshot store.
func NewSnapshots(logger *slog.Logger) *Snapshots {
	return &Snapshots{
		logger: logger.With(slog.String("component", "snapshot_store")),
	}
}

// PublishRetail swaps in a new retail snapshot wholesale.
func (s *Snapshots) PublishRetail(snap *RetailSnapshot) {
	s.mu.Lock()
	s.retail = snap
	s.mu.Unlock()

	s.logger.Info("retail snapshot published",
		slog.String("run_id", snap.RunID),
		slog.Int("raw_count", snap.RawCount))
}

// Retail returns the latest retail snapshot, or false when no run has
// completed yet.
func (s *Snapshots) Retail() (*RetailSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retail, s.retail != nil
}

// PublishChurn swaps in a new churn snapshot wholesale.
func (s *Snapshots) PublishChurn(snap *ChurnSnapshot) {
	s.mu.Lock()
	s.churn = snap
	s.mu.Unlock()

	s.logger.Info("churn snapshot published",
		slog.String("run_id", snap.RunID),
		slog.Int("user_count", snap.UserCount))
}

// Churn returns the latest churn snapshot, or false when no run has
// completed yet.
func (s *Snapshots) Churn() (*ChurnSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.churn, s.churn != nil
}
