// Package events feeds ledger activity to websocket listeners. Every
// message is stamped with a sequence number and the topic taken from its
// prefix, so listeners can follow only the parts of the node they care about.
package events

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Buffer sizes for listeners and the replay history.
const (
	listenerBuffer = 100
	historySize    = 20
)

// Event is a single message produced by the node.
type Event struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Topic   string    `json:"topic"`
	Message string    `json:"message"`
}

// TopicOf returns the topic of a message, the text before the first colon.
// Messages without a prefix belong to the "node" topic.
func TopicOf(msg string) string {
	topic, _, found := strings.Cut(msg, ":")
	if !found || topic == "" || strings.ContainsAny(topic, " \t") {
		return "node"
	}
	return topic
}

type listener struct {
	ch      chan Event
	topics  map[string]bool
	dropped uint64
}

func (l *listener) wants(ev Event) bool {
	return len(l.topics) == 0 || l.topics[ev.Topic]
}

// deliver never blocks. Events the listener has no room for are counted
// and dropped.
func (l *listener) deliver(ev Event) {
	select {
	case l.ch <- ev:
	default:
		l.dropped++
	}
}

// Events keeps the set of listeners and the most recent events.
type Events struct {
	mu        sync.Mutex
	seq       uint64
	history   []Event
	listeners map[string]*listener
}

// New constructs an empty event feed.
func New() *Events {
	return &Events{
		listeners: make(map[string]*listener),
	}
}

// Acquire registers a listener under the id and returns the channel its
// events arrive on. With no topics every event is delivered. The recent
// history matching the topics is queued first, so a viewer that connects
// late still sees the last blocks mined. Acquiring an existing id returns
// the channel already registered.
func (evt *Events) Acquire(id string, topics ...string) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if l, exists := evt.listeners[id]; exists {
		return l.ch
	}

	l := listener{
		ch:     make(chan Event, listenerBuffer),
		topics: make(map[string]bool, len(topics)),
	}
	for _, topic := range topics {
		if topic != "" {
			l.topics[topic] = true
		}
	}

	for _, ev := range evt.history {
		if l.wants(ev) {
			l.deliver(ev)
		}
	}

	evt.listeners[id] = &l
	return l.ch
}

// Release closes and removes the listener registered under the id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	l, exists := evt.listeners[id]
	if !exists {
		return fmt.Errorf("listener %q does not exist", id)
	}

	delete(evt.listeners, id)
	close(l.ch)
	return nil
}

// Shutdown closes every listener channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, l := range evt.listeners {
		delete(evt.listeners, id)
		close(l.ch)
	}
}

// Count returns the number of registered listeners.
func (evt *Events) Count() int {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	return len(evt.listeners)
}

// Dropped returns the number of events the listener missed because it was
// not reading fast enough.
func (evt *Events) Dropped(id string) uint64 {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if l, exists := evt.listeners[id]; exists {
		return l.dropped
	}
	return 0
}

// Send stamps the message and hands it to every interested listener. Send
// never waits on a listener.
func (evt *Events) Send(msg string) Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	evt.seq++
	ev := Event{
		Seq:     evt.seq,
		Time:    time.Now().UTC(),
		Topic:   TopicOf(msg),
		Message: msg,
	}

	evt.history = append(evt.history, ev)
	if len(evt.history) > historySize {
		evt.history = evt.history[len(evt.history)-historySize:]
	}

	for _, l := range evt.listeners {
		if l.wants(ev) {
			l.deliver(ev)
		}
	}

	return ev
}
