package kafka

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savator12/agriadapt/internal/alerts"
)

func TestSerializeToMessage(t *testing.T) {
	alertID := uuid.New()
	msg := alerts.Message{
		To:      "+251911000001",
		Body:    "Drought Alert: no rainfall expected - AGRIADAPT",
		AlertID: alertID,
	}

	kafkaMsg, err := serializeToMessage(msg)
	require.NoError(t, err)

	assert.Equal(t, []byte(alertID.String()), kafkaMsg.Key)
	assert.Contains(t, string(kafkaMsg.Value), `"to":"+251911000001"`)
	assert.Contains(t, string(kafkaMsg.Value), `"alert_id":"`+alertID.String()+`"`)
	require.Len(t, kafkaMsg.Headers, 2)
	assert.Equal(t, "recipient", kafkaMsg.Headers[0].Key)
	assert.Equal(t, []byte("+251911000001"), kafkaMsg.Headers[0].Value)
	assert.Equal(t, "queued_at", kafkaMsg.Headers[1].Key)
}
