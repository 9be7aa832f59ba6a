package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"retailsight/pkg/contracts/domain"
)

var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ChurnReader loads the user, transaction and activity extracts that feed the
// churn feature pipeline.
type ChurnReader struct {
	logger *slog.Logger
}

// NewChurnReader creates a reader for churn source extracts.
func NewChurnReader(logger *slog.Logger) *ChurnReader {
	return &ChurnReader{
		logger: logger.With(slog.String("component", "churn_reader")),
	}
}

// LoadUsers reads the users CSV extract.
func (r *ChurnReader) LoadUsers(ctx context.Context, path string) ([]domain.User, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, fmt.Errorf("read users extract %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("users extract %s is empty", path)
	}

	cols := headerIndex(rows[0])
	var users []domain.User
	skipped := 0

	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		userID, ok := cellInt(row, cols, "user_id")
		if !ok {
			skipped++
			continue
		}
		signup, ok := cellTime(row, cols, "signup_date")
		if !ok {
			skipped++
			continue
		}
		users = append(users, domain.User{
			UserID:     userID,
			Email:      cellString(row, cols, "email"),
			SignupDate: signup,
			Region:     cellString(row, cols, "region"),
			Channel:    cellString(row, cols, "channel"),
		})
	}

	r.logger.InfoContext(ctx, "users extract loaded",
		slog.String("path", path),
		slog.Int("users", len(users)),
		slog.Int("skipped_rows", skipped))
	return users, nil
}

// LoadTransactions reads the transactions CSV extract.
func (r *ChurnReader) LoadTransactions(ctx context.Context, path string) ([]domain.Transaction, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, fmt.Errorf("read transactions extract %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("transactions extract %s is empty", path)
	}

	cols := headerIndex(rows[0])
	var txs []domain.Transaction
	skipped := 0

	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		userID, ok := cellInt(row, cols, "user_id")
		if !ok {
			skipped++
			continue
		}
		createdAt, ok := cellTime(row, cols, "created_at")
		if !ok {
			skipped++
			continue
		}
		amount, _ := strconv.ParseFloat(cellString(row, cols, "amount"), 64)
		txs = append(txs, domain.Transaction{
			TransactionID: cellString(row, cols, "transaction_id"),
			UserID:        userID,
			Amount:        amount,
			Status:        domain.TransactionStatus(strings.ToLower(cellString(row, cols, "status"))),
			CreatedAt:     createdAt,
		})
	}

	r.logger.InfoContext(ctx, "transactions extract loaded",
		slog.String("path", path),
		slog.Int("transactions", len(txs)),
		slog.Int("skipped_rows", skipped))
	return txs, nil
}

// LoadActivities reads the user activity events CSV extract.
func (r *ChurnReader) LoadActivities(ctx context.Context, path string) ([]domain.ActivityEvent, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, fmt.Errorf("read activities extract %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("activities extract %s is empty", path)
	}

	cols := headerIndex(rows[0])
	var events []domain.ActivityEvent
	skipped := 0

	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		userID, ok := cellInt(row, cols, "user_id")
		if !ok {
			skipped++
			continue
		}
		ts, ok := cellTime(row, cols, "event_timestamp")
		if !ok {
			skipped++
			continue
		}
		events = append(events, domain.ActivityEvent{
			UserID:         userID,
			SessionID:      cellString(row, cols, "session_id"),
			EventName:      cellString(row, cols, "event_name"),
			EventTimestamp: ts,
			Device:         cellString(row, cols, "device"),
			AppVersion:     cellString(row, cols, "app_version"),
		})
	}

	r.logger.InfoContext(ctx, "activities extract loaded",
		slog.String("path", path),
		slog.Int("events", len(events)),
		slog.Int("skipped_rows", skipped))
	return events, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for j, h := range header {
		cols[normalizeHeader(h)] = j
	}
	return cols
}

func cellString(row []string, cols map[string]int, name string) string {
	if idx, ok := cols[name]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func cellInt(row []string, cols map[string]int, name string) (int, bool) {
	val, err := strconv.Atoi(cellString(row, cols, name))
	if err != nil {
		return 0, false
	}
	return val, true
}

func cellTime(row []string, cols map[string]int, name string) (time.Time, bool) {
	raw := cellString(row, cols, name)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
