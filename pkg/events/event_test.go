package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	aggID := uuid.New()
	payload := []byte(`{"k":"v"}`)

	evt := NewBaseEvent("plan.created", aggID, "PaymentPlan", payload)

	assert.NotEqual(t, uuid.Nil, evt.EventID())
	assert.Equal(t, "plan.created", evt.EventType())
	assert.Equal(t, aggID, evt.AggregateID())
	assert.Equal(t, "PaymentPlan", evt.AggregateType())
	assert.Equal(t, payload, evt.Payload())
	assert.WithinDuration(t, time.Now().UTC(), evt.OccurredAt(), time.Second)
}

func TestNewOutboxEntry(t *testing.T) {
	aggID := uuid.New()
	evt := NewBaseEvent("payment.recorded", aggID, "PaymentTransaction", []byte(`{}`))

	entry := NewOutboxEntry(evt)

	require.Equal(t, evt.EventID(), entry.ID)
	assert.Equal(t, aggID, entry.AggregateID)
	assert.Equal(t, "PaymentTransaction", entry.AggregateType)
	assert.Equal(t, "payment.recorded", entry.EventType)
	assert.Equal(t, evt.OccurredAt(), entry.CreatedAt)
	assert.Nil(t, entry.PublishedAt)
	assert.NotEmpty(t, entry.Payload)
}
