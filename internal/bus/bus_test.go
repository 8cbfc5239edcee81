package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublish_FansOutPerTopic(t *testing.T) {
	t.Parallel()
	b := New(nil, 4)
	defer b.Close()

	a1 := b.Subscribe(TopicAction)
	a2 := b.Subscribe(TopicAction)
	s := b.Subscribe(TopicSnapshot)

	id := b.Publish(TopicAction, "file.save")
	require.Equal(t, uint64(1), id)

	for _, ch := range []<-chan Message{a1, a2} {
		msg := <-ch
		require.Equal(t, TopicAction, msg.Topic)
		require.Equal(t, "file.save", msg.Payload)
		require.Equal(t, id, msg.ID)
		require.False(t, msg.At.IsZero())
	}
	require.Empty(t, s)
}

func TestPublish_DropsWhenFull(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.WarnLevel)
	b := New(zap.New(core), 1)
	defer b.Close()

	ch := b.Subscribe(TopicAction)
	b.Publish(TopicAction, 1)
	b.Publish(TopicAction, 2)

	require.Equal(t, 1, (<-ch).Payload)
	require.Equal(t, uint64(1), b.Stats().Dropped)
	require.Equal(t, 1, logs.FilterMessage("bus subscriber full; message dropped").Len())
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	t.Parallel()
	b := New(nil, 0)
	defer b.Close()

	ch := b.Subscribe(TopicAction)
	require.Equal(t, 1, b.Stats().Subscribers)
	b.Unsubscribe(TopicAction, ch)
	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, b.Stats().Subscribers)

	b.Unsubscribe(TopicAction, ch)
	b.Unsubscribe(TopicAction, nil)
}

func TestClose(t *testing.T) {
	t.Parallel()
	b := New(nil, 0)
	ch := b.Subscribe(TopicSnapshot)
	b.Close()
	b.Close()

	_, ok := <-ch
	require.False(t, ok)
	require.Zero(t, b.Publish(TopicSnapshot, "x"))

	late := b.Subscribe(TopicSnapshot)
	_, ok = <-late
	require.False(t, ok)
	require.True(t, b.Stats().Closed)
}
