package kafka

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftedcrochet/storefront/internal/events"
)

func TestOrderPlacedPublishes(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, TopicOrderPlaced, msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "ORD-1-001", string(key))

		payload, err := msg.Value.Encode()
		require.NoError(t, err)
		var event OrderPlacedEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, EventTypeOrderPlaced, event.EventType)
		assert.Equal(t, "ORD-1-001", event.OrderID)
		assert.Equal(t, 2000.0, event.Total)
		assert.NotEmpty(t, event.EventID)
		require.Len(t, event.Items, 1)
		assert.Equal(t, 1, event.Items[0].ProductID)

		types := make(map[string]string)
		for _, h := range msg.Headers {
			types[string(h.Key)] = string(h.Value)
		}
		assert.Equal(t, EventTypeOrderPlaced, types["event_type"])
		assert.Equal(t, event.EventID, types["event_id"])
		return nil
	})

	p := &Publisher{producer: mp}
	p.OrderPlaced(events.OrderPlaced{
		OrderID:      "ORD-1-001",
		CustomerName: "Maya Chen",
		Total:        2000,
		Items:        []events.OrderLine{{ProductID: 1, Name: "Crochet Rose", Price: 1000, Quantity: 2}},
		PlacedAt:     time.Now(),
	})

	require.NoError(t, mp.Close())
}

func TestOrderPlacedSwallowsSendFailure(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageAndFail(errors.New("broker down"))

	p := &Publisher{producer: mp}
	p.OrderPlaced(events.OrderPlaced{OrderID: "ORD-1-002", Total: 500})

	require.NoError(t, mp.Close())
}
