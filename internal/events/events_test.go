package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger_service/internal/domain"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func sampleTransaction() *domain.Transaction {
	return &domain.Transaction{
		ID:            uuid.New(),
		FromAccountID: uuid.New(),
		ToAccountID:   uuid.New(),
		Amount:        decimal.RequireFromString("12.5"),
		CreatedAt:     time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
		Type:          domain.TypeTransfer,
	}
}

func TestRedisPublisherAppendsToStream(t *testing.T) {
	rdb, _ := newTestRedis(t)
	p := NewRedisPublisher(rdb, 0)
	tx := sampleTransaction()

	require.NoError(t, p.Publish(context.Background(), TransactionEventsStream, TransferCompleted, NewTransferCompleted(tx)))

	msgs, err := rdb.XRange(context.Background(), TransactionEventsStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	raw, ok := msgs[0].Values["event"].(string)
	require.True(t, ok)
	var got struct {
		Type      string                 `json:"type"`
		Timestamp time.Time              `json:"timestamp"`
		Data      TransferCompletedEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, TransferCompleted, got.Type)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, tx.ID.String(), got.Data.TransactionID)
	assert.Equal(t, tx.FromAccountID.String(), got.Data.FromAccountID)
	assert.Equal(t, tx.ToAccountID.String(), got.Data.ToAccountID)
	assert.Equal(t, "12.50", got.Data.Amount)
	assert.Equal(t, domain.TypeTransfer, got.Data.Type)
	assert.True(t, tx.CreatedAt.Equal(got.Data.CreatedAt))
}

func TestTransferHookPublishes(t *testing.T) {
	rdb, _ := newTestRedis(t)
	logger, logs := test.NewNullLogger()
	hook := TransferHook(NewRedisPublisher(rdb, 100), logrus.NewEntry(logger))

	hook.TransferCommitted(context.Background(), sampleTransaction())
	hook.TransferCommitted(context.Background(), sampleTransaction())

	n, err := rdb.XLen(context.Background(), TransactionEventsStream).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Empty(t, logs.AllEntries())
}

func TestTransferHookLogsPublishFailure(t *testing.T) {
	rdb, mr := newTestRedis(t)
	logger, logs := test.NewNullLogger()
	hook := TransferHook(NewRedisPublisher(rdb, 0), logrus.NewEntry(logger))
	mr.Close()

	tx := sampleTransaction()
	hook.TransferCommitted(context.Background(), tx)

	entry := logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, tx.ID, entry.Data["transaction_id"])
}

func TestMarshalEventRejectsUnencodable(t *testing.T) {
	_, err := marshalEvent(TransferCompleted, make(chan int))
	assert.Error(t, err)
}
