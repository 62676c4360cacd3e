package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBus_DeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	published := New(TypeDeletionCompleted, map[string]string{"trash_id": "t1"}, "admin")
	bus.Publish(published)

	select {
	case got := <-events:
		assert.Equal(t, TypeDeletionCompleted, got.Type)
		assert.Equal(t, "admin", got.ActorID)
		assert.Equal(t, published.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestInMemoryBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	unsubscribe()

	// Channel is closed on unsubscribe.
	_, open := <-events
	assert.False(t, open)

	// Publishing afterwards must not panic.
	assert.NotPanics(t, func() {
		bus.Publish(New(TypeTrashCreated, nil, ""))
	})
}

func TestInMemoryBus_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()
	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		// More events than the subscriber buffer holds.
		for i := 0; i < 500; i++ {
			bus.Publish(New(TypeDeletionRetried, nil, ""))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestNew_PopulatesEnvelope(t *testing.T) {
	e := New(TypeTrashRestored, "payload", "u1")

	require.NotEmpty(t, e.ID)
	assert.Equal(t, TypeTrashRestored, e.Type)
	assert.Equal(t, "payload", e.Payload)
	assert.Equal(t, "u1", e.ActorID)

	_, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	assert.NoError(t, err)
}
