package event_test

import (
	"sync"
	"testing"

	"github.com/argus-labs/sparseworld/pkg/event"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_FanOut(t *testing.T) {
	t.Parallel()

	bus := event.NewBus[int]()
	first := bus.Subscribe()
	second := bus.Subscribe()

	for i := range 5 {
		bus.Publish(i)
	}

	late := bus.Subscribe()

	want := []int{0, 1, 2, 3, 4}
	assert.Equal(t, want, first.Read())
	assert.Equal(t, want, second.Read())
	assert.Empty(t, late.Read(), "subscriber created after publishing should see nothing")

	// Reads are destructive.
	assert.Empty(t, first.Read())
	assert.Empty(t, second.Read())
}

func TestBus_Unsubscribe(t *testing.T) {
	t.Parallel()

	bus := event.NewBus[string]()
	keep := bus.Subscribe()
	drop := bus.Subscribe()
	require.Equal(t, 2, bus.Len())

	bus.Publish("before")
	bus.Unsubscribe(drop)
	bus.Publish("after")

	assert.Equal(t, 1, bus.Len())
	assert.True(t, drop.Closed())
	assert.Nil(t, drop.Read(), "revoked subscription drops its queue")
	assert.Equal(t, []string{"before", "after"}, keep.Read())

	// Unsubscribing again, or a handle owned by another bus, is ignored.
	bus.Unsubscribe(drop)
	bus.Unsubscribe(event.NewBus[string]().Subscribe())
	bus.Unsubscribe(nil)
	assert.Equal(t, 1, bus.Len())
}

func TestSubscription_Close(t *testing.T) {
	t.Parallel()

	bus := event.NewBus[int]()
	sub := bus.Subscribe()
	bus.Publish(1)
	assert.Equal(t, 1, sub.Pending())

	require.NoError(t, sub.Close())
	assert.Equal(t, 0, bus.Len())
	assert.Equal(t, 0, sub.Pending())

	err := sub.Close()
	assert.True(t, eris.Is(err, event.ErrSubscriptionClosed))

	bus.Publish(2)
	assert.Nil(t, sub.Read())
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	t.Parallel()

	bus := event.NewBus[int]()
	assert.NotPanics(t, func() { bus.Publish(42) })
	assert.Equal(t, 0, bus.Len())
}

func TestBus_ConcurrentPublishRead(t *testing.T) {
	t.Parallel()

	const (
		publishers = 4
		perWriter  = 500
	)

	type msg struct {
		writer int
		seq    int
	}

	bus := event.NewBus[msg]()
	sub := bus.Subscribe()

	var wg sync.WaitGroup
	for w := range publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				bus.Publish(msg{writer: w, seq: i})
			}
		}()
	}

	received := make([]msg, 0, publishers*perWriter)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for drained := false; !drained; {
		select {
		case <-done:
			drained = true
		default:
		}
		received = append(received, sub.Read()...)
	}

	require.Len(t, received, publishers*perWriter)

	// Each publisher's events arrive in the order they were published.
	next := make([]int, publishers)
	for _, m := range received {
		assert.Equal(t, next[m.writer], m.seq, "writer %d out of order", m.writer)
		next[m.writer]++
	}
}
