package churn

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"retailsight/internal/config"
	"retailsight/pkg/contracts/domain"
)

const dateFormat = "2006-01-02"

// Calculator joins the user, transaction and activity streams into one
// feature row per user, scoring RFM, lifecycle stage and the churn flag.
type Calculator struct {
	cfg    config.ChurnConfig
	logger *slog.Logger
}

// NewCalculator creates a calculator with the given breakpoints and rule
// thresholds.
func NewCalculator(cfg config.ChurnConfig, logger *slog.Logger) *Calculator {
	return &Calculator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "churn_calculator")),
	}
}

type userActivity struct {
	events     int
	pageViews  int
	cartEvents int
	purchases  int
	sessions   map[string]sessionSpan
	days       map[string]struct{}
	lastEvent  time.Time
}

type sessionSpan struct {
	first time.Time
	last  time.Time
}

type userSpend struct {
	total        int
	successful   int
	successSpend float64
	lastCreated  time.Time
}

// Compute produces one feature row per user, sorted by user ID. All recency
// metrics are taken against the snapshot's own maximum timestamp rather than
// the wall clock, so re-running over the same snapshot reproduces identical
// rows.
func (c *Calculator) Compute(users []domain.User, transactions []domain.Transaction, activities []domain.ActivityEvent) Derived {
	ref := referenceDate(users, transactions, activities)

	spend := make(map[int]*userSpend)
	for _, t := range transactions {
		s, ok := spend[t.UserID]
		if !ok {
			s = &userSpend{}
			spend[t.UserID] = s
		}
		s.total++
		if t.IsSuccessful() {
			s.successful++
			s.successSpend += t.Amount
		}
		if t.CreatedAt.After(s.lastCreated) {
			s.lastCreated = t.CreatedAt
		}
	}

	activity := make(map[int]*userActivity)
	for _, a := range activities {
		ua, ok := activity[a.UserID]
		if !ok {
			ua = &userActivity{
				sessions: make(map[string]sessionSpan),
				days:     make(map[string]struct{}),
			}
			activity[a.UserID] = ua
		}
		ua.events++
		switch a.EventName {
		case "page_view":
			ua.pageViews++
		case "add_to_cart":
			ua.cartEvents++
		case "purchase":
			ua.purchases++
		}
		span, seen := ua.sessions[a.SessionID]
		if !seen {
			span = sessionSpan{first: a.EventTimestamp, last: a.EventTimestamp}
		} else {
			if a.EventTimestamp.Before(span.first) {
				span.first = a.EventTimestamp
			}
			if a.EventTimestamp.After(span.last) {
				span.last = a.EventTimestamp
			}
		}
		ua.sessions[a.SessionID] = span
		ua.days[a.EventTimestamp.Format(dateFormat)] = struct{}{}
		if a.EventTimestamp.After(ua.lastEvent) {
			ua.lastEvent = a.EventTimestamp
		}
	}

	sorted := make([]domain.User, len(users))
	copy(sorted, users)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UserID < sorted[j].UserID })

	rows := make([]FeatureRow, 0, len(sorted))
	for _, u := range sorted {
		rows = append(rows, c.featureRow(u, spend[u.UserID], activity[u.UserID], ref))
	}

	c.logger.Info("churn features computed",
		slog.Int("users", len(rows)),
		slog.String("reference_date", ref.Format(dateFormat)))

	return Derived{Features: rows, ReferenceDate: ref.Format(dateFormat)}
}

func (c *Calculator) featureRow(u domain.User, s *userSpend, a *userActivity, ref time.Time) FeatureRow {
	row := FeatureRow{
		UserID:           u.UserID,
		Email:            u.Email,
		SignupDate:       u.SignupDate.Format(dateFormat),
		Region:           u.Region,
		Channel:          u.Channel,
		UserTenureDays:   daysBetween(u.SignupDate, ref),
		FeatureCreatedAt: ref.Format(dateFormat),
	}

	if s != nil {
		row.TotalTransactions = s.total
		row.SuccessfulTransactions = s.successful
		row.TotalSpendNGN = round2(s.successSpend)
		if s.successful > 0 {
			row.AvgTransactionAmount = round2(s.successSpend / float64(s.successful))
		}
		if !s.lastCreated.IsZero() {
			d := s.lastCreated.Format(dateFormat)
			row.LastTransactionDate = &d
			gap := daysBetween(s.lastCreated, ref)
			row.DaysSinceLastTransaction = &gap
		}
	}

	if a != nil {
		row.TotalActivityEvents = a.events
		row.UniqueSessions = len(a.sessions)
		row.ActiveDays = len(a.days)
		row.PageViews = a.pageViews
		row.AvgSessionDurationMinutes = avgSessionMinutes(a.sessions)
		if a.pageViews > 0 {
			row.CartConversionRate = round4(float64(a.cartEvents) / float64(a.pageViews))
		}
		if a.cartEvents > 0 {
			row.PurchaseConversionRate = round4(float64(a.purchases) / float64(a.cartEvents))
		}
		if !a.lastEvent.IsZero() {
			d := a.lastEvent.Format(dateFormat)
			row.LastActivityDate = &d
			gap := daysBetween(a.lastEvent, ref)
			row.DaysSinceLastActivity = &gap
		}
	}

	row.RecencyScore = c.recencyScore(row.DaysSinceLastActivity)
	row.FrequencyScore = c.frequencyScore(row.SuccessfulTransactions, row.UserTenureDays)
	row.MonetaryScore = c.monetaryScore(row.TotalSpendNGN)
	row.RFMTotalScore = row.RecencyScore + row.FrequencyScore + row.MonetaryScore

	row.UserLifecycleStage = c.lifecycleStage(row)
	row.ChurnFlag = c.churnFlag(row)
	return row
}

// recencyScore maps days since last activity onto 5..1 via the configured
// breakpoints. A user with no activity at all scores the minimum.
func (c *Calculator) recencyScore(daysSince *int) int {
	if daysSince == nil {
		return 1
	}
	for i, boundary := range c.cfg.RecencyDays {
		if *daysSince <= boundary {
			return 5 - i
		}
	}
	return 1
}

// frequencyScore maps the monthly successful-transaction rate onto 5..1.
// Tenure is floored at one month so new users are not inflated by a tiny
// denominator.
func (c *Calculator) frequencyScore(successful, tenureDays int) int {
	months := float64(tenureDays) / 30
	if months < 1 {
		months = 1
	}
	rate := float64(successful) / months
	for i, boundary := range c.cfg.FrequencyPerMo {
		if rate >= boundary {
			return 5 - i
		}
	}
	return 1
}

func (c *Calculator) monetaryScore(spend float64) int {
	for i, boundary := range c.cfg.MonetarySpend {
		if spend >= boundary {
			return 5 - i
		}
	}
	return 1
}

// lifecycleStage evaluates the fixed decision table in priority order; the
// first matching rule wins.
func (c *Calculator) lifecycleStage(row FeatureRow) string {
	recent := func(days int) bool {
		return row.DaysSinceLastActivity != nil && *row.DaysSinceLastActivity <= days
	}
	switch {
	case row.UserTenureDays <= 30:
		return StageNew
	case row.UserTenureDays <= 90 && row.TotalTransactions > 0:
		return StageActivated
	case recent(14) && row.FrequencyScore >= 4:
		return StageEngaged
	case row.RFMTotalScore >= 12:
		return StageLoyal
	case recent(c.cfg.InactivityDays):
		return StageActive
	default:
		return StageInactive
	}
}

// churnFlag ORs the four disengagement rules. Each rule fires independently
// of lifecycle stage.
func (c *Calculator) churnFlag(row FeatureRow) int {
	inactive := row.DaysSinceLastActivity == nil || *row.DaysSinceLastActivity > c.cfg.InactivityDays
	staleTx := row.TotalTransactions > 0 &&
		row.DaysSinceLastTransaction != nil && *row.DaysSinceLastTransaction > c.cfg.TransactionGapDays
	lowEngagement := row.UserTenureDays > c.cfg.LowEngagementTenureDays &&
		row.TotalActivityEvents < c.cfg.LowEngagementEvents
	lowSpend := row.UserTenureDays > c.cfg.LowSpendTenureDays &&
		row.TotalSpendNGN < c.cfg.LowSpendAmount

	if inactive || staleTx || lowEngagement || lowSpend {
		return 1
	}
	return 0
}

// referenceDate is the maximum timestamp anywhere in the snapshot. Using it
// instead of time.Now keeps reruns byte-identical.
func referenceDate(users []domain.User, transactions []domain.Transaction, activities []domain.ActivityEvent) time.Time {
	var ref time.Time
	for _, u := range users {
		if u.SignupDate.After(ref) {
			ref = u.SignupDate
		}
	}
	for _, t := range transactions {
		if t.CreatedAt.After(ref) {
			ref = t.CreatedAt
		}
	}
	for _, a := range activities {
		if a.EventTimestamp.After(ref) {
			ref = a.EventTimestamp
		}
	}
	return ref
}

func avgSessionMinutes(sessions map[string]sessionSpan) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var total float64
	for _, span := range sessions {
		total += span.last.Sub(span.first).Minutes()
	}
	return round2(total / float64(len(sessions)))
}

func daysBetween(from, to time.Time) int {
	d := int(to.Sub(from).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
