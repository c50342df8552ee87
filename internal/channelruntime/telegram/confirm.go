package telegram

import (
	"strings"
	"sync"
	"time"
)

// Destructive commands ask for confirmation before running. The worker
// blocks on a waiter channel while the poll loop keeps draining updates, so
// the follow-up message can reach the waiter without a deadlock.

const confirmWindow = 5 * time.Second

var confirmWords = map[string]bool{
	"yes":     true,
	"confirm": true,
	"y":       true,
	"👍":       true,
}

func isConfirmText(text string) bool {
	return confirmWords[strings.ToLower(strings.TrimSpace(text))]
}

type confirmKey struct {
	chatID int64
	userID int64
}

type confirmRegistry struct {
	mu      sync.Mutex
	waiters map[confirmKey]chan bool
}

func newConfirmRegistry() *confirmRegistry {
	return &confirmRegistry{waiters: map[confirmKey]chan bool{}}
}

// arm registers a waiter for chatID/userID and returns the channel the
// worker should block on. Arming twice for the same key cancels the earlier
// waiter.
func (r *confirmRegistry) arm(chatID, userID int64) chan bool {
	key := confirmKey{chatID: chatID, userID: userID}
	ch := make(chan bool, 1)
	r.mu.Lock()
	if prev, ok := r.waiters[key]; ok {
		close(prev)
	}
	r.waiters[key] = ch
	r.mu.Unlock()
	return ch
}

// disarm removes the waiter if it is still the registered one.
func (r *confirmRegistry) disarm(chatID, userID int64, ch chan bool) {
	key := confirmKey{chatID: chatID, userID: userID}
	r.mu.Lock()
	if cur, ok := r.waiters[key]; ok && cur == ch {
		delete(r.waiters, key)
	}
	r.mu.Unlock()
}

// deliver routes an inbound message to a pending waiter. It reports whether
// the message was consumed as a confirmation answer; a consumed message must
// not be dispatched as a regular command. Only the exact requester may
// answer.
func (r *confirmRegistry) deliver(chatID, userID int64, text string) bool {
	key := confirmKey{chatID: chatID, userID: userID}
	r.mu.Lock()
	ch, ok := r.waiters[key]
	if ok {
		delete(r.waiters, key)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	ch <- isConfirmText(text)
	return true
}
