package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/model"
)

func TestEncodeWatchEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg, err := encodeWatchEvent(model.WatchEvent{UserID: 3, VideoID: 9, WatchedAt: at})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, watchEventType, msg.Type)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.True(t, at.Equal(msg.Timestamp))

	var decoded model.WatchEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, uint(3), decoded.UserID)
	assert.Equal(t, uint(9), decoded.VideoID)
	assert.True(t, at.Equal(decoded.WatchedAt))
}
