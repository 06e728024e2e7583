// Package pubsub implements the Pub/Sub Registry component (spec §4.3): a
// forward index of channel/pattern subscriptions plus each connection's
// reverse index, and the broadcast fan-out PUBLISH performs against both.
package pubsub

import (
	"sync"

	"github.com/edirooss/redisd/pkg/glob"
)

// Message is one delivery queued onto a subscriber's outbound channel. Kind
// is "message" for a direct channel match or "pmessage" for a pattern
// match, in which case Pattern names the pattern that matched.
type Message struct {
	Kind    string
	Pattern string
	Channel string
	Payload []byte
}

// Subscription is one connection's membership in the registry: its own
// channel/pattern sets (the reverse index) and the outbound queue that
// Publish writes to without blocking on the connection's I/O.
type Subscription struct {
	mu       sync.Mutex
	channels map[string]struct{}
	patterns map[string]struct{}
	out      chan Message
}

// NewSubscription creates a subscription with an outbound queue of the
// given capacity. A slow or wedged reader fills its queue and subsequent
// Publish deliveries to it are dropped rather than blocking every other
// subscriber (spec §4.3: "publish does not suspend").
func NewSubscription(queueSize int) *Subscription {
	if queueSize <= 0 {
		queueSize = 128
	}
	return &Subscription{
		channels: make(map[string]struct{}),
		patterns: make(map[string]struct{}),
		out:      make(chan Message, queueSize),
	}
}

// Out returns the channel a connection's write loop should range over to
// deliver queued messages.
func (s *Subscription) Out() <-chan Message { return s.out }

// Count returns the connection's total channel + pattern subscription
// count, as returned alongside every subscribe/unsubscribe acknowledgement.
func (s *Subscription) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels) + len(s.patterns)
}

func (s *Subscription) send(msg Message) bool {
	select {
	case s.out <- msg:
		return true
	default:
		return false
	}
}

// Registry is the process-wide singleton binding channel and pattern names
// to the subscriptions registered against them (spec §4.3).
type Registry struct {
	mu       sync.Mutex
	channels map[string]map[*Subscription]struct{}
	patterns map[string]map[*Subscription]struct{}
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		channels: make(map[string]map[*Subscription]struct{}),
		patterns: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe adds sub to channel's subscriber set, returning sub's new
// total subscription count.
func (r *Registry) Subscribe(sub *Subscription, channel string) int {
	sub.mu.Lock()
	sub.channels[channel] = struct{}{}
	count := len(sub.channels) + len(sub.patterns)
	sub.mu.Unlock()

	r.mu.Lock()
	set, ok := r.channels[channel]
	if !ok {
		set = make(map[*Subscription]struct{})
		r.channels[channel] = set
	}
	set[sub] = struct{}{}
	r.mu.Unlock()
	return count
}

// PSubscribe adds sub to pattern's subscriber set, returning sub's new
// total subscription count.
func (r *Registry) PSubscribe(sub *Subscription, pattern string) int {
	sub.mu.Lock()
	sub.patterns[pattern] = struct{}{}
	count := len(sub.channels) + len(sub.patterns)
	sub.mu.Unlock()

	r.mu.Lock()
	set, ok := r.patterns[pattern]
	if !ok {
		set = make(map[*Subscription]struct{})
		r.patterns[pattern] = set
	}
	set[sub] = struct{}{}
	r.mu.Unlock()
	return count
}

// Unsubscribe removes sub from channel's subscriber set, returning sub's
// new total subscription count.
func (r *Registry) Unsubscribe(sub *Subscription, channel string) int {
	sub.mu.Lock()
	delete(sub.channels, channel)
	count := len(sub.channels) + len(sub.patterns)
	sub.mu.Unlock()

	r.mu.Lock()
	if set, ok := r.channels[channel]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(r.channels, channel)
		}
	}
	r.mu.Unlock()
	return count
}

// PUnsubscribe removes sub from pattern's subscriber set, returning sub's
// new total subscription count.
func (r *Registry) PUnsubscribe(sub *Subscription, pattern string) int {
	sub.mu.Lock()
	delete(sub.patterns, pattern)
	count := len(sub.channels) + len(sub.patterns)
	sub.mu.Unlock()

	r.mu.Lock()
	if set, ok := r.patterns[pattern]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(r.patterns, pattern)
		}
	}
	r.mu.Unlock()
	return count
}

// Channels returns sub's currently subscribed channel names, for the
// empty-args form of UNSUBSCRIBE.
func (s *Subscription) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.channels))
	for c := range s.channels {
		out = append(out, c)
	}
	return out
}

// Patterns returns sub's currently subscribed pattern names, for the
// empty-args form of PUNSUBSCRIBE.
func (s *Subscription) Patterns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.patterns))
	for p := range s.patterns {
		out = append(out, p)
	}
	return out
}

// Disconnect removes sub from every channel and pattern it is subscribed
// to, for connection teardown.
func (r *Registry) Disconnect(sub *Subscription) {
	for _, c := range sub.Channels() {
		r.Unsubscribe(sub, c)
	}
	for _, p := range sub.Patterns() {
		r.PUnsubscribe(sub, p)
	}
}

// Publish delivers payload to every subscription registered on channel
// directly, and to every subscription registered on a pattern matching
// channel, returning the count of distinct subscriptions that received a
// message (spec §4.3: a connection subscribed both ways counts once).
func (r *Registry) Publish(channel string, payload []byte) int {
	r.mu.Lock()
	direct := make([]*Subscription, 0, len(r.channels[channel]))
	for sub := range r.channels[channel] {
		direct = append(direct, sub)
	}
	var patternHits []struct {
		sub *Subscription
		pat string
	}
	for pat, set := range r.patterns {
		if !glob.Match(pat, channel) {
			continue
		}
		for sub := range set {
			patternHits = append(patternHits, struct {
				sub *Subscription
				pat string
			}{sub, pat})
		}
	}
	r.mu.Unlock()

	delivered := make(map[*Subscription]struct{}, len(direct)+len(patternHits))
	for _, sub := range direct {
		if sub.send(Message{Kind: "message", Channel: channel, Payload: payload}) {
			delivered[sub] = struct{}{}
		}
	}
	for _, hit := range patternHits {
		if hit.sub.send(Message{Kind: "pmessage", Pattern: hit.pat, Channel: channel, Payload: payload}) {
			delivered[hit.sub] = struct{}{}
		}
	}
	return len(delivered)
}
