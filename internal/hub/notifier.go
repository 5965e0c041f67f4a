package hub

import "sync"

// Notifier is an explicit publish/subscribe registry for "visitor updated"
// notifications. It is constructed once in main and passed by reference to
// every collaborator that needs it; there is no ambient global instance.
type Notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func()
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func())}
}

// Subscription identifies one subscriber and is the handle used to remove it.
type Subscription struct {
	notifier *Notifier
	id       int
}

// Subscribe registers fn to run on every publication. fn must not block;
// long work belongs on the subscriber's own goroutine.
func (n *Notifier) Subscribe(fn func()) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.subs[n.nextID] = fn
	return Subscription{notifier: n, id: n.nextID}
}

// Unsubscribe removes the subscriber. Safe to call more than once.
func (s Subscription) Unsubscribe() {
	if s.notifier == nil {
		return
	}
	s.notifier.mu.Lock()
	defer s.notifier.mu.Unlock()
	delete(s.notifier.subs, s.id)
}

// Publish invokes every current subscriber. Subscribers are copied out under
// the lock first, so a callback may subscribe or unsubscribe without
// deadlocking or mutating the set mid-iteration.
func (n *Notifier) Publish() {
	n.mu.RLock()
	snapshot := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		snapshot = append(snapshot, fn)
	}
	n.mu.RUnlock()

	for _, fn := range snapshot {
		fn()
	}
}
