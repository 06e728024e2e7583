package pubsub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscribePublishDirect(t *testing.T) {
	r := New()
	sub := NewSubscription(8)

	count := r.Subscribe(sub, "news")
	require.Equal(t, 1, count)

	n := r.Publish("news", []byte("hello"))
	require.Equal(t, 1, n)

	msg := <-sub.Out()
	require.Equal(t, "message", msg.Kind)
	require.Equal(t, "news", msg.Channel)
	require.Equal(t, []byte("hello"), msg.Payload)
}

func TestPublishNoSubscribers(t *testing.T) {
	r := New()
	require.Equal(t, 0, r.Publish("nobody-listening", []byte("x")))
}

func TestPatternSubscribeMatches(t *testing.T) {
	r := New()
	sub := NewSubscription(8)
	r.PSubscribe(sub, "news.*")

	n := r.Publish("news.sports", []byte("goal"))
	require.Equal(t, 1, n)

	msg := <-sub.Out()
	require.Equal(t, "pmessage", msg.Kind)
	require.Equal(t, "news.*", msg.Pattern)
	require.Equal(t, "news.sports", msg.Channel)
}

func TestDualSubscriptionCountsOnce(t *testing.T) {
	r := New()
	sub := NewSubscription(8)
	r.Subscribe(sub, "news.sports")
	r.PSubscribe(sub, "news.*")

	n := r.Publish("news.sports", []byte("goal"))
	require.Equal(t, 1, n)
	require.Len(t, sub.out, 2) // one direct, one pattern delivery queued
}

func TestUnsubscribeRemovesFromRegistry(t *testing.T) {
	r := New()
	sub := NewSubscription(8)
	r.Subscribe(sub, "a")
	r.Subscribe(sub, "b")

	count := r.Unsubscribe(sub, "a")
	require.Equal(t, 1, count)
	require.Equal(t, 0, r.Publish("a", []byte("x")))
	require.Equal(t, 1, r.Publish("b", []byte("x")))
}

func TestUnsubscribeAllEmptyArgsForm(t *testing.T) {
	r := New()
	sub := NewSubscription(8)
	require.Empty(t, sub.Channels())

	r.Subscribe(sub, "a")
	r.Subscribe(sub, "b")
	chans := sub.Channels()
	require.ElementsMatch(t, []string{"a", "b"}, chans)
	for _, c := range chans {
		r.Unsubscribe(sub, c)
	}
	require.Equal(t, 0, sub.Count())
}

func TestDisconnectClearsBothIndexes(t *testing.T) {
	r := New()
	sub := NewSubscription(8)
	r.Subscribe(sub, "a")
	r.PSubscribe(sub, "b.*")

	r.Disconnect(sub)
	require.Equal(t, 0, sub.Count())
	require.Equal(t, 0, r.Publish("a", []byte("x")))
	require.Equal(t, 0, r.Publish("b.1", []byte("x")))
}

func TestSlowSubscriberDropsRatherThanBlocks(t *testing.T) {
	r := New()
	sub := NewSubscription(1)
	r.Subscribe(sub, "a")

	require.Equal(t, 1, r.Publish("a", []byte("1")))
	require.Equal(t, 0, r.Publish("a", []byte("2"))) // queue full, delivery dropped silently and not counted

	msg := <-sub.Out()
	require.Equal(t, []byte("1"), msg.Payload)
}
