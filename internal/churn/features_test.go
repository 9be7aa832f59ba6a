package churn

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsight/internal/config"
	"retailsight/pkg/contracts/domain"
)

var refDate = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCalculator() *Calculator {
	return NewCalculator(config.DefaultAnalyticsConfig().Churn, testLogger())
}

func user(id, tenureDays int) domain.User {
	return domain.User{
		UserID:     id,
		Email:      "user@example.com",
		SignupDate: refDate.AddDate(0, 0, -tenureDays),
		Region:     "Lagos",
		Channel:    "organic",
	}
}

func tx(userID int, daysAgo int, amount float64, status domain.TransactionStatus) domain.Transaction {
	return domain.Transaction{
		TransactionID: "tx",
		UserID:        userID,
		Amount:        amount,
		Status:        status,
		CreatedAt:     refDate.AddDate(0, 0, -daysAgo),
	}
}

func event(userID int, daysAgo int, session, name string) domain.ActivityEvent {
	return domain.ActivityEvent{
		UserID:         userID,
		SessionID:      session,
		EventName:      name,
		EventTimestamp: refDate.AddDate(0, 0, -daysAgo),
	}
}

// anchor pins the snapshot's maximum timestamp to the intended reference
// date, so daysAgo values above read literally.
func anchor() domain.ActivityEvent {
	return event(999, 0, "anchor", "page_view")
}

func computeOne(t *testing.T, u domain.User, txs []domain.Transaction, events []domain.ActivityEvent) FeatureRow {
	t.Helper()
	events = append(events, anchor())
	derived := testCalculator().Compute([]domain.User{u, user(999, 1)}, txs, events)
	for _, row := range derived.Features {
		if row.UserID == u.UserID {
			return row
		}
	}
	t.Fatalf("no feature row for user %d", u.UserID)
	return FeatureRow{}
}

func TestChurnFlag_LongTenureLowEngagement(t *testing.T) {
	// Tenure 95 days with only 3 activity events fires the low-engagement
	// rule even though the user was active 10 days ago.
	u := user(1, 95)
	events := []domain.ActivityEvent{
		event(1, 10, "s1", "page_view"),
		event(1, 20, "s2", "page_view"),
		event(1, 40, "s3", "page_view"),
	}
	txs := []domain.Transaction{tx(1, 10, 5000, domain.TransactionSuccess)}

	row := computeOne(t, u, txs, events)

	assert.Equal(t, 95, row.UserTenureDays)
	assert.Equal(t, 3, row.TotalActivityEvents)
	require.NotNil(t, row.DaysSinceLastActivity)
	assert.Equal(t, 10, *row.DaysSinceLastActivity)
	assert.Equal(t, 5000.0, row.TotalSpendNGN)
	assert.Equal(t, 1, row.ChurnFlag)
}

func TestChurnFlag_NeverActiveUser(t *testing.T) {
	row := computeOne(t, user(1, 20), nil, nil)
	assert.Nil(t, row.DaysSinceLastActivity)
	assert.Equal(t, 1, row.ChurnFlag, "no activity at all counts as inactive")
	assert.Equal(t, 1, row.RecencyScore)
}

func TestChurnFlag_StaleTransactions(t *testing.T) {
	u := user(1, 80)
	events := make([]domain.ActivityEvent, 0, 10)
	for i := 0; i < 10; i++ {
		events = append(events, event(1, i+1, "s1", "page_view"))
	}
	txs := []domain.Transaction{tx(1, 70, 2000, domain.TransactionSuccess)}

	row := computeOne(t, u, txs, events)
	require.NotNil(t, row.DaysSinceLastTransaction)
	assert.Equal(t, 70, *row.DaysSinceLastTransaction)
	assert.Equal(t, 1, row.ChurnFlag, "transaction gap above 60 days fires rule (b)")
}

func TestChurnFlag_HealthyUserNotFlagged(t *testing.T) {
	u := user(1, 80)
	var events []domain.ActivityEvent
	for i := 0; i < 10; i++ {
		events = append(events, event(1, i+1, "s1", "page_view"))
	}
	txs := []domain.Transaction{
		tx(1, 5, 3000, domain.TransactionSuccess),
		tx(1, 15, 2500, domain.TransactionSuccess),
	}

	row := computeOne(t, u, txs, events)
	assert.Equal(t, 0, row.ChurnFlag)
}

func TestRecencyScoreBreakpoints(t *testing.T) {
	c := testCalculator()
	cases := map[int]int{3: 5, 7: 5, 10: 4, 14: 4, 21: 3, 30: 3, 45: 2, 60: 2, 90: 1}
	for days, want := range cases {
		d := days
		assert.Equal(t, want, c.recencyScore(&d), "days %d", days)
	}
	assert.Equal(t, 1, c.recencyScore(nil))
}

func TestFrequencyScoreUsesMonthlyRate(t *testing.T) {
	c := testCalculator()

	// 8 successful transactions over one month of tenure.
	assert.Equal(t, 5, c.frequencyScore(8, 30))
	// Same count over four months drops the rate to 2 per month.
	assert.Equal(t, 3, c.frequencyScore(8, 120))
	assert.Equal(t, 2, c.frequencyScore(1, 30))
	assert.Equal(t, 1, c.frequencyScore(0, 300))
	// Tenure below a month must not inflate the rate via a tiny denominator.
	assert.Equal(t, 2, c.frequencyScore(1, 3))
}

func TestMonetaryScoreBreakpoints(t *testing.T) {
	c := testCalculator()
	cases := map[float64]int{150000: 5, 100000: 5, 60000: 4, 25000: 3, 8000: 2, 100: 1}
	for spend, want := range cases {
		assert.Equal(t, want, c.monetaryScore(spend), "spend %.0f", spend)
	}
}

func TestLifecycleStage_FirstMatchWins(t *testing.T) {
	u := user(1, 20)
	// New beats everything else, even with zero activity.
	row := computeOne(t, u, nil, nil)
	assert.Equal(t, StageNew, row.UserLifecycleStage)

	// Tenure 60 with a transaction is activated.
	row = computeOne(t, user(2, 60), []domain.Transaction{tx(2, 5, 1000, domain.TransactionSuccess)}, nil)
	assert.Equal(t, StageActivated, row.UserLifecycleStage)
}

func TestLifecycleStage_EngagedRequiresRecencyAndFrequency(t *testing.T) {
	u := user(1, 120)
	var txs []domain.Transaction
	for i := 0; i < 16; i++ {
		txs = append(txs, tx(1, i+1, 500, domain.TransactionSuccess))
	}
	events := []domain.ActivityEvent{event(1, 5, "s1", "page_view")}
	for i := 0; i < 10; i++ {
		events = append(events, event(1, 5, "s1", "page_view"))
	}

	row := computeOne(t, u, txs, events)
	assert.GreaterOrEqual(t, row.FrequencyScore, 4)
	assert.Equal(t, StageEngaged, row.UserLifecycleStage)
}

func TestLifecycleStage_Inactive(t *testing.T) {
	row := computeOne(t, user(1, 200), nil, []domain.ActivityEvent{
		event(1, 90, "s1", "page_view"),
	})
	assert.Equal(t, StageInactive, row.UserLifecycleStage)
	assert.Equal(t, 1, row.ChurnFlag)
}

func TestSessionAndConversionMetrics(t *testing.T) {
	u := user(1, 50)
	events := []domain.ActivityEvent{
		// Session s1 spans 30 minutes on one day.
		{UserID: 1, SessionID: "s1", EventName: "page_view", EventTimestamp: refDate.Add(-48 * time.Hour)},
		{UserID: 1, SessionID: "s1", EventName: "add_to_cart", EventTimestamp: refDate.Add(-48*time.Hour + 30*time.Minute)},
		// Session s2 is a single purchase event on another day.
		{UserID: 1, SessionID: "s2", EventName: "purchase", EventTimestamp: refDate.Add(-24 * time.Hour)},
	}

	row := computeOne(t, u, nil, events)
	assert.Equal(t, 2, row.UniqueSessions)
	assert.Equal(t, 2, row.ActiveDays)
	assert.Equal(t, 1, row.PageViews)
	assert.Equal(t, 15.0, row.AvgSessionDurationMinutes)
	assert.Equal(t, 1.0, row.CartConversionRate)
	assert.Equal(t, 1.0, row.PurchaseConversionRate)
}

func TestPipeline_Deterministic(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	p := NewPipeline(cfg, testLogger())

	users := []domain.User{user(3, 40), user(1, 95), user(2, 10)}
	txs := []domain.Transaction{
		tx(1, 10, 5000, domain.TransactionSuccess),
		tx(2, 3, 800, domain.TransactionFailed),
		tx(3, 70, 2000, domain.TransactionSuccess),
	}
	events := []domain.ActivityEvent{
		anchor(),
		event(1, 10, "s1", "page_view"),
		event(2, 1, "s2", "page_view"),
		event(3, 65, "s3", "page_view"),
	}

	first, err := p.Run(context.Background(), users, txs, events)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), users, txs, events)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))

	// Rows come back ordered by user ID regardless of input order.
	require.Len(t, first.Features, 3)
	assert.Equal(t, 1, first.Features[0].UserID)
	assert.Equal(t, 3, first.Features[2].UserID)
}

func TestPipeline_RejectsEmptyUsers(t *testing.T) {
	p := NewPipeline(config.DefaultAnalyticsConfig(), testLogger())
	_, err := p.Run(context.Background(), nil, nil, nil)
	assert.Error(t, err)
}

func TestFailedTransactionsExcludedFromSpend(t *testing.T) {
	u := user(1, 50)
	txs := []domain.Transaction{
		tx(1, 5, 3000, domain.TransactionSuccess),
		tx(1, 6, 9000, domain.TransactionFailed),
		tx(1, 7, 1000, domain.TransactionPending),
	}
	events := []domain.ActivityEvent{event(1, 2, "s1", "page_view")}

	row := computeOne(t, u, txs, events)
	assert.Equal(t, 3, row.TotalTransactions)
	assert.Equal(t, 1, row.SuccessfulTransactions)
	assert.Equal(t, 3000.0, row.TotalSpendNGN)
	assert.Equal(t, 3000.0, row.AvgTransactionAmount)
}
