package domain

import (
	"time"
)

// User represents a raw user profile row from the users extract.
type User struct {
	UserID     int       `json:"user_id" csv:"user_id"`
	Email      string    `json:"email" csv:"email"`
	SignupDate time.Time `json:"signup_date" csv:"signup_date"`
	Region     string    `json:"region" csv:"region"`
	Channel    string    `json:"channel" csv:"channel"`
}

// TransactionStatus enumerates the terminal states a transaction can carry.
type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
	TransactionPending TransactionStatus = "pending"
)

// Transaction represents a raw transaction row from the transactions extract.
type Transaction struct {
	TransactionID string            `json:"transaction_id" csv:"transaction_id"`
	UserID        int               `json:"user_id" csv:"user_id"`
	Amount        float64           `json:"amount" csv:"amount"`
	Status        TransactionStatus `json:"status" csv:"status"`
	CreatedAt     time.Time         `json:"created_at" csv:"created_at"`
}

// IsSuccessful reports whether the transaction completed and counts toward
// monetary totals.
func (t Transaction) IsSuccessful() bool {
	return t.Status == TransactionSuccess
}

// ActivityEvent represents a raw user-activity row from the activities
// extract.
type ActivityEvent struct {
	UserID         int       `json:"user_id" csv:"user_id"`
	SessionID      string    `json:"session_id" csv:"session_id"`
	EventName      string    `json:"event_name" csv:"event_name"`
	EventTimestamp time.Time `json:"event_timestamp" csv:"event_timestamp"`
	Device         string    `json:"device" csv:"device"`
	AppVersion     string    `json:"app_version" csv:"app_version"`
}
