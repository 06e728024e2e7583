package command

import (
	"github.com/edirooss/redisd/internal/cmderr"
	"github.com/edirooss/redisd/internal/pubsub"
	"github.com/edirooss/redisd/internal/reply"
)

func cmdPublish(w reply.Writer, d *Dispatcher, args [][]byte) {
	if len(args) != 2 {
		w.WriteError(cmderr.Arity("publish").Error())
		return
	}
	n := d.PubSub.Publish(string(args[0]), args[1])
	w.WriteInt(n)
}

// ensureSub lazily creates cs's pub/sub subscription handle on first
// SUBSCRIBE/PSUBSCRIBE (spec §3: subscription state is per-connection).
func ensureSub(cs *ConnState) {
	if cs.Sub == nil {
		cs.Sub = pubsub.NewSubscription(0)
	}
}

func cmdSubscribe(w reply.Writer, d *Dispatcher, cs *ConnState, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("subscribe").Error())
		return
	}
	ensureSub(cs)
	for _, a := range args {
		ch := string(a)
		count := d.PubSub.Subscribe(cs.Sub, ch)
		writeSubAck(w, "subscribe", &ch, count)
	}
}

func cmdUnsubscribe(w reply.Writer, d *Dispatcher, cs *ConnState, args [][]byte) {
	ensureSub(cs)
	channels := toStrings(args)
	if len(channels) == 0 {
		channels = cs.Sub.Channels()
	}
	if len(channels) == 0 {
		writeSubAck(w, "unsubscribe", nil, 0)
		return
	}
	for _, ch := range channels {
		count := d.PubSub.Unsubscribe(cs.Sub, ch)
		name := ch
		writeSubAck(w, "unsubscribe", &name, count)
	}
}

func cmdPSubscribe(w reply.Writer, d *Dispatcher, cs *ConnState, args [][]byte) {
	if len(args) < 1 {
		w.WriteError(cmderr.Arity("psubscribe").Error())
		return
	}
	ensureSub(cs)
	for _, a := range args {
		pat := string(a)
		count := d.PubSub.PSubscribe(cs.Sub, pat)
		writeSubAck(w, "psubscribe", &pat, count)
	}
}

func cmdPUnsubscribe(w reply.Writer, d *Dispatcher, cs *ConnState, args [][]byte) {
	ensureSub(cs)
	patterns := toStrings(args)
	if len(patterns) == 0 {
		patterns = cs.Sub.Patterns()
	}
	if len(patterns) == 0 {
		writeSubAck(w, "punsubscribe", nil, 0)
		return
	}
	for _, pat := range patterns {
		count := d.PubSub.PUnsubscribe(cs.Sub, pat)
		name := pat
		writeSubAck(w, "punsubscribe", &name, count)
	}
}
