package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"retailsight/internal/churn"
	apperrors "retailsight/internal/errors"
	"retailsight/internal/store"
)

// ChurnService serves read-only queries over the latest churn snapshot.
type ChurnService struct {
	snapshots *store.Snapshots
	logger    *slog.Logger
}

// NewChurnService creates a churn query service.
func NewChurnService(snapshots *store.Snapshots, logger *slog.Logger) *ChurnService {
	return &ChurnService{
		snapshots: snapshots,
		logger:    logger.With(slog.String("component", "churn_service")),
	}
}

// ChurnQuery filters and paginates the feature list.
type ChurnQuery struct {
	ChurnFlag       *int
	Region          string
	Channel         string
	LifecycleStage  string
	MinSpend        *float64
	MaxDaysInactive *int
	Limit           int
	Offset          int
}

// ChurnPage is one page of feature rows plus the total match count before
// pagination.
type ChurnPage struct {
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
	Features []churn.FeatureRow `json:"features"`
}

// ChurnStats summarizes the whole feature set.
type ChurnStats struct {
	TotalUsers            int              `json:"total_users"`
	ChurnedUsers          int              `json:"churned_users"`
	ActiveUsers           int              `json:"active_users"`
	ChurnRatePercent      float64          `json:"churn_rate_percent"`
	AvgTotalSpend         float64          `json:"avg_total_spend"`
	AvgSessionCount       float64          `json:"avg_session_count"`
	AvgTenureDays         float64          `json:"avg_tenure_days"`
	TopRegions            []DimensionCount `json:"top_regions"`
	TopChannels           []DimensionCount `json:"top_channels"`
	LifecycleDistribution map[string]int   `json:"lifecycle_distribution"`
}

// DimensionCount is one value of a grouping dimension with its user count.
type DimensionCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// RFMSegment is one RFM total-score bucket.
type RFMSegment struct {
	RFMTotalScore int     `json:"rfm_total_score"`
	UserCount     int     `json:"user_count"`
	ChurnRate     float64 `json:"churn_rate"`
	AvgSpend      float64 `json:"avg_spend"`
}

// LifecycleSegment is one lifecycle-stage bucket.
type LifecycleSegment struct {
	LifecycleStage string  `json:"lifecycle_stage"`
	UserCount      int     `json:"user_count"`
	ChurnRate      float64 `json:"churn_rate"`
	AvgSpend       float64 `json:"avg_spend"`
	AvgSessions    float64 `json:"avg_sessions"`
}

// Segments pairs both segment rollups.
type Segments struct {
	RFMSegments       []RFMSegment       `json:"rfm_segments"`
	LifecycleSegments []LifecycleSegment `json:"lifecycle_segments"`
}

func (s *ChurnService) snapshot(context.Context) (*store.ChurnSnapshot, error) {
	snap, ok := s.snapshots.Churn()
	if !ok {
		return nil, apperrors.ErrSnapshotNotFound
	}
	return snap, nil
}

func matches(row churn.FeatureRow, q ChurnQuery) bool {
	if q.ChurnFlag != nil && row.ChurnFlag != *q.ChurnFlag {
		return false
	}
	if q.Region != "" && !strings.EqualFold(row.Region, q.Region) {
		return false
	}
	if q.Channel != "" && !strings.EqualFold(row.Channel, q.Channel) {
		return false
	}
	if q.LifecycleStage != "" && row.UserLifecycleStage != q.LifecycleStage {
		return false
	}
	if q.MinSpend != nil && row.TotalSpendNGN < *q.MinSpend {
		return false
	}
	if q.MaxDaysInactive != nil {
		if row.DaysSinceLastActivity == nil || *row.DaysSinceLastActivity > *q.MaxDaysInactive {
			return false
		}
	}
	return true
}

// Features returns one page of feature rows matching the query.
func (s *ChurnService) Features(ctx context.Context, q ChurnQuery) (*ChurnPage, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	var filtered []churn.FeatureRow
	for _, row := range snap.Derived.Features {
		if matches(row, q) {
			filtered = append(filtered, row)
		}
	}

	page := &ChurnPage{Total: len(filtered), Limit: q.Limit, Offset: q.Offset}
	if q.Offset < len(filtered) {
		end := q.Offset + q.Limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page.Features = filtered[q.Offset:end]
	} else {
		page.Features = []churn.FeatureRow{}
	}
	return page, nil
}

// User returns one user's feature row.
func (s *ChurnService) User(ctx context.Context, userID int) (*churn.FeatureRow, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.Derived.Features {
		if snap.Derived.Features[i].UserID == userID {
			row := snap.Derived.Features[i]
			return &row, nil
		}
	}
	return nil, fmt.Errorf("%w: user %d", apperrors.ErrUserNotFound, userID)
}

// Stats computes the dataset summary.
func (s *ChurnService) Stats(ctx context.Context) (*ChurnStats, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows := snap.Derived.Features

	stats := &ChurnStats{
		TotalUsers:            len(rows),
		LifecycleDistribution: make(map[string]int),
	}
	if len(rows) == 0 {
		return stats, nil
	}

	regions := make(map[string]int)
	channels := make(map[string]int)
	var spendSum, sessionSum, tenureSum float64
	for _, row := range rows {
		if row.ChurnFlag == 1 {
			stats.ChurnedUsers++
		}
		spendSum += row.TotalSpendNGN
		sessionSum += float64(row.UniqueSessions)
		tenureSum += float64(row.UserTenureDays)
		regions[row.Region]++
		channels[row.Channel]++
		stats.LifecycleDistribution[row.UserLifecycleStage]++
	}

	n := float64(len(rows))
	stats.ActiveUsers = stats.TotalUsers - stats.ChurnedUsers
	stats.ChurnRatePercent = round2(float64(stats.ChurnedUsers) / n * 100)
	stats.AvgTotalSpend = round2(spendSum / n)
	stats.AvgSessionCount = round2(sessionSum / n)
	stats.AvgTenureDays = round2(tenureSum / n)
	stats.TopRegions = topCounts(regions, 5)
	stats.TopChannels = topCounts(channels, 5)
	return stats, nil
}

// Segments computes the RFM and lifecycle segment rollups.
func (s *ChurnService) Segments(ctx context.Context) (*Segments, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		users      int
		churned    int
		spendSum   float64
		sessionSum float64
	}
	byScore := make(map[int]*bucket)
	byStage := make(map[string]*bucket)

	for _, row := range snap.Derived.Features {
		sb, ok := byScore[row.RFMTotalScore]
		if !ok {
			sb = &bucket{}
			byScore[row.RFMTotalScore] = sb
		}
		lb, ok := byStage[row.UserLifecycleStage]
		if !ok {
			lb = &bucket{}
			byStage[row.UserLifecycleStage] = lb
		}
		for _, b := range []*bucket{sb, lb} {
			b.users++
			b.churned += row.ChurnFlag
			b.spendSum += row.TotalSpendNGN
			b.sessionSum += float64(row.UniqueSessions)
		}
	}

	out := &Segments{}
	scores := make([]int, 0, len(byScore))
	for score := range byScore {
		scores = append(scores, score)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))
	for _, score := range scores {
		b := byScore[score]
		out.RFMSegments = append(out.RFMSegments, RFMSegment{
			RFMTotalScore: score,
			UserCount:     b.users,
			ChurnRate:     round3(float64(b.churned) / float64(b.users)),
			AvgSpend:      round2(b.spendSum / float64(b.users)),
		})
	}

	stages := make([]string, 0, len(byStage))
	for stage := range byStage {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		b := byStage[stage]
		out.LifecycleSegments = append(out.LifecycleSegments, LifecycleSegment{
			LifecycleStage: stage,
			UserCount:      b.users,
			ChurnRate:      round3(float64(b.churned) / float64(b.users)),
			AvgSpend:       round2(b.spendSum / float64(b.users)),
			AvgSessions:    round1(b.sessionSum / float64(b.users)),
		})
	}
	return out, nil
}

// ExportCSV renders the filtered feature rows as a CSV document.
func (s *ChurnService) ExportCSV(ctx context.Context, q ChurnQuery) ([]byte, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{
		"user_id", "email", "region", "channel", "user_tenure_days",
		"total_spend_ngn", "total_activity_events", "days_since_last_activity",
		"rfm_total_score", "user_lifecycle_stage", "churn_flag",
	}); err != nil {
		return nil, fmt.Errorf("write export header: %w", err)
	}

	for _, row := range snap.Derived.Features {
		if !matches(row, q) {
			continue
		}
		daysInactive := ""
		if row.DaysSinceLastActivity != nil {
			daysInactive = strconv.Itoa(*row.DaysSinceLastActivity)
		}
		if err := w.Write([]string{
			strconv.Itoa(row.UserID), row.Email, row.Region, row.Channel,
			strconv.Itoa(row.UserTenureDays),
			strconv.FormatFloat(row.TotalSpendNGN, 'f', 2, 64),
			strconv.Itoa(row.TotalActivityEvents), daysInactive,
			strconv.Itoa(row.RFMTotalScore), row.UserLifecycleStage,
			strconv.Itoa(row.ChurnFlag),
		}); err != nil {
			return nil, fmt.Errorf("write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func topCounts(counts map[string]int, n int) []DimensionCount {
	out := make([]DimensionCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, DimensionCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
