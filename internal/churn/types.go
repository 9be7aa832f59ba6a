package churn

// Lifecycle stage labels, in decision-table priority order.
const (
	StageNew       = "new"
	StageActivated = "activated"
	StageEngaged   = "engaged"
	StageLoyal     = "loyal"
	StageActive    = "active"
	StageInactive  = "inactive"
)

// FeatureRow is one user's ML-ready churn feature vector. Nullable recency
// fields use pointers: a user who never transacted or never produced an
// activity event has no "days since", and that absence drives the churn rules
// differently from a large number.
type FeatureRow struct {
	UserID     int    `json:"user_id"`
	Email      string `json:"email"`
	SignupDate string `json:"signup_date"`
	Region     string `json:"region"`
	Channel    string `json:"channel"`

	UserTenureDays int `json:"user_tenure_days"`

	TotalTransactions        int      `json:"total_transactions"`
	SuccessfulTransactions   int      `json:"successful_transactions"`
	TotalSpendNGN            float64  `json:"total_spend_ngn"`
	AvgTransactionAmount     float64  `json:"avg_transaction_amount"`
	LastTransactionDate      *string  `json:"last_transaction_date"`
	DaysSinceLastTransaction *int     `json:"days_since_last_transaction"`

	TotalActivityEvents       int      `json:"total_activity_events"`
	UniqueSessions            int      `json:"unique_sessions"`
	ActiveDays                int      `json:"active_days"`
	PageViews                 int      `json:"page_views"`
	LastActivityDate          *string  `json:"last_activity_date"`
	DaysSinceLastActivity     *int     `json:"days_since_last_activity"`
	AvgSessionDurationMinutes float64  `json:"avg_session_duration_minutes"`
	CartConversionRate        float64  `json:"cart_conversion_rate"`
	PurchaseConversionRate    float64  `json:"purchase_conversion_rate"`

	RecencyScore       int    `json:"recency_score"`
	FrequencyScore     int    `json:"frequency_score"`
	MonetaryScore      int    `json:"monetary_score"`
	RFMTotalScore      int    `json:"rfm_total_score"`
	UserLifecycleStage string `json:"user_lifecycle_stage"`
	ChurnFlag          int    `json:"churn_flag"`

	FeatureCreatedAt string `json:"feature_created_at"`
}

// Derived is the complete output of one churn pipeline run.
type Derived struct {
	Features []FeatureRow `json:"features"`
	// ReferenceDate is the as-of date every recency metric was computed
	// against: the maximum timestamp observed anywhere in the snapshot.
	ReferenceDate string `json:"reference_date"`
}
