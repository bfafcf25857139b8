package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeFiltersByType(t *testing.T) {
	bus := New(8)
	defer bus.Close()

	ch := bus.Subscribe(TypeStoreChanged)
	bus.Publish(NewMigrationProgress("importing", 0.5))
	bus.Publish(NewStoreChanged(1, "create_routine"))

	ev := <-ch
	changed, ok := ev.(StoreChangedEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(1), changed.Counter)
	assert.Empty(t, ch)
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := New(8)
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Publish(NewStoreChanged(1, "add_exercise"))
	bus.Publish(NewMigrationProgress("importing", 0.25))

	assert.Equal(t, TypeStoreChanged, (<-ch).EventType())
	assert.Equal(t, TypeMigrationProgress, (<-ch).EventType())
}

func TestRingBufferDropsOldest(t *testing.T) {
	bus := New(2)
	defer bus.Close()

	ch := bus.Subscribe(TypeStoreChanged)
	for i := 1; i <= 4; i++ {
		bus.Publish(NewStoreChanged(uint64(i), "update_set"))
	}

	first := (<-ch).(StoreChangedEvent)
	assert.Equal(t, uint64(3), first.Counter)
	assert.Positive(t, bus.DroppedCount())
}

func TestPriorityReceivesOnlyPriorityEvents(t *testing.T) {
	bus := New(8)
	defer bus.Close()

	priority := bus.SubscribePriority()
	bus.Publish(NewMigrationProgress("importing", 0.5))
	bus.PublishPriority(NewMigrationCompleted(1, 2, 3))

	ev := <-priority
	completed, ok := ev.(MigrationCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 3, completed.Sets)
	assert.Empty(t, priority)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(8)
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	bus := New(8)
	ch := bus.Subscribe()
	bus.Close()

	bus.Publish(NewStoreChanged(1, "noop"))
	_, open := <-ch
	assert.False(t, open)
}
