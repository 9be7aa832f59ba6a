package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsight/pkg/contracts/domain"
)

func TestChurnReader_LoadUsers(t *testing.T) {
	csv := `user_id,email,signup_date,region,channel
1,a@example.com,2025-01-15,Nairobi,organic
2,b@example.com,2025-02-01 09:30:00,Mombasa,paid_social
bad,c@example.com,2025-02-01,Kisumu,referral
`
	reader := NewChurnReader(testLogger())
	users, err := reader.LoadUsers(context.Background(), writeTempCSV(t, csv))
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, 1, users[0].UserID)
	assert.Equal(t, "Nairobi", users[0].Region)
	assert.Equal(t, "2025-02-01", users[1].SignupDate.Format("2006-01-02"))
}

func TestChurnReader_LoadTransactions(t *testing.T) {
	csv := `transaction_id,user_id,amount,status,created_at
tx-1,1,2500.50,success,2025-03-01 10:00:00
tx-2,1,1000,FAILED,2025-03-02 11:00:00
tx-3,2,750,pending,2025-03-03
`
	reader := NewChurnReader(testLogger())
	txs, err := reader.LoadTransactions(context.Background(), writeTempCSV(t, csv))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.True(t, txs[0].IsSuccessful())
	assert.Equal(t, 2500.50, txs[0].Amount)
	// Status casing is normalized on load.
	assert.Equal(t, domain.TransactionFailed, txs[1].Status)
	assert.False(t, txs[1].IsSuccessful())
	assert.False(t, txs[2].IsSuccessful())
}

func TestChurnReader_LoadActivities(t *testing.T) {
	csv := `user_id,session_id,event_name,event_timestamp,device,app_version
1,s-1,app_open,2025-03-01T08:00:00Z,android,2.4.0
1,s-1,view_product,2025-03-01T08:01:30Z,android,2.4.0
2,s-2,app_open,2025-03-02 19:15:00,ios,2.3.9
`
	reader := NewChurnReader(testLogger())
	events, err := reader.LoadActivities(context.Background(), writeTempCSV(t, csv))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "app_open", events[0].EventName)
	assert.Equal(t, "ios", events[2].Device)
}

func TestChurnReader_EmptyExtract(t *testing.T) {
	reader := NewChurnReader(testLogger())
	_, err := reader.LoadUsers(context.Background(), writeTempCSV(t, ""))
	require.Error(t, err)
}
