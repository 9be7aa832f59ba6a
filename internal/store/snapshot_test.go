package store

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"retailsight/internal/retail"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSnapshots_EmptyUntilPublished(t *testing.T) {
	s := NewSnapshots(testLogger())

	_, ok := s.Retail()
	assert.False(t, ok)
	_, ok = s.Churn()
	assert.False(t, ok)
}

func TestSnapshots_PublishSwapsWholesale(t *testing.T) {
	s := NewSnapshots(testLogger())

	first := &RetailSnapshot{RunID: "run-1", CreatedAt: time.Now(), RawCount: 10, Derived: &retail.Derived{}}
	s.PublishRetail(first)

	got, ok := s.Retail()
	assert.True(t, ok)
	assert.Equal(t, "run-1", got.RunID)

	second := &RetailSnapshot{RunID: "run-2", CreatedAt: time.Now(), RawCount: 12, Derived: &retail.Derived{}}
	s.PublishRetail(second)

	got, _ = s.Retail()
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, 12, got.RawCount)
}

func TestSnapshots_ConcurrentReadersSeeCompleteSnapshots(t *testing.T) {
	s := NewSnapshots(testLogger())
	s.PublishRetail(&RetailSnapshot{RunID: "run-1", RawCount: 1, Derived: &retail.Derived{}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap, ok := s.Retail()
				assert.True(t, ok)
				// A reader must never observe a half-written snapshot.
				assert.NotNil(t, snap.Derived)
				assert.NotEmpty(t, snap.RunID)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.PublishRetail(&RetailSnapshot{RunID: "run-x", RawCount: n, Derived: &retail.Derived{}})
			}
		}(i)
	}
	wg.Wait()
}
