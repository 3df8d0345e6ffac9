package pubsub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe(t *testing.T) {
	ps := New()

	sub := ps.Subscribe(TopicDMXOutput, "", 10)
	require.NotNil(t, sub)
	assert.Equal(t, TopicDMXOutput, sub.Topic)
	assert.Equal(t, 10, cap(sub.Channel))
	assert.Equal(t, 1, ps.SubscriberCount(TopicDMXOutput))

	other := ps.Subscribe(TopicDMXOutput, "", 1)
	assert.NotEqual(t, sub.ID, other.ID)
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	ps := New()
	sub := ps.Subscribe(TopicMapUpdated, "", 1)

	ps.Unsubscribe(sub)

	assert.Equal(t, 0, ps.SubscriberCount(TopicMapUpdated))
	_, open := <-sub.Channel
	assert.False(t, open)
}

func TestPublish_Filter(t *testing.T) {
	ps := New()
	all := ps.Subscribe(TopicMapUpdated, "", 5)
	mapA := ps.Subscribe(TopicMapUpdated, "map-a", 5)
	mapB := ps.Subscribe(TopicMapUpdated, "map-b", 5)

	ps.Publish(TopicMapUpdated, "map-a", "changed")

	assert.Len(t, all.Channel, 1)
	assert.Len(t, mapA.Channel, 1)
	assert.Len(t, mapB.Channel, 0)
}

func TestPublish_DropsWhenFull(t *testing.T) {
	ps := New()
	sub := ps.Subscribe(TopicDMXOutput, "", 1)

	ps.Publish(TopicDMXOutput, "", 1)
	ps.Publish(TopicDMXOutput, "", 2)

	assert.Equal(t, 1, <-sub.Channel)
	assert.Len(t, sub.Channel, 0)
}

func TestPublish_ConcurrentUnsubscribe(t *testing.T) {
	ps := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub := ps.Subscribe(TopicCueExecuted, "", 1)
		wg.Add(2)
		go func() {
			defer wg.Done()
			ps.Publish(TopicCueExecuted, "", "go")
		}()
		go func() {
			defer wg.Done()
			ps.Unsubscribe(sub)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, ps.SubscriberCount(TopicCueExecuted))
}
