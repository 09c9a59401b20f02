package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger_service/internal/domain"
)

func newTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	s := natsserver.RunRandClientPortServer()
	t.Cleanup(s.Shutdown)
	nc, err := nats.Connect(s.ClientURL(), nats.NoReconnect())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestNATSPublisherDeliversEvent(t *testing.T) {
	nc := newTestNATS(t)
	sub, err := nc.SubscribeSync(TransactionEventsStream)
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	tx := sampleTransaction()
	require.NoError(t, NewNATSPublisher(nc).Publish(context.Background(), TransactionEventsStream, TransferCompleted, NewTransferCompleted(tx)))

	msg, err := sub.NextMsg(time.Second)
	require.NoError(t, err)
	var got struct {
		Type string                 `json:"type"`
		Data TransferCompletedEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, TransferCompleted, got.Type)
	assert.Equal(t, tx.ID.String(), got.Data.TransactionID)
	assert.Equal(t, "12.50", got.Data.Amount)
	assert.Equal(t, domain.TypeTransfer, got.Data.Type)
}

func TestNATSPublisherClosedConnection(t *testing.T) {
	nc := newTestNATS(t)
	nc.Close()

	err := NewNATSPublisher(nc).Publish(context.Background(), TransactionEventsStream, TransferCompleted, NewTransferCompleted(sampleTransaction()))
	require.ErrorIs(t, err, nats.ErrConnectionClosed)

	logger, hook := test.NewNullLogger()
	TransferHook(NewNATSPublisher(nc), logrus.NewEntry(logger)).TransferCommitted(context.Background(), sampleTransaction())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
