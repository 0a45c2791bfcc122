package bot

import (
	"sync"
	"time"

	"budgetbot/internal/models"
)

// The add-transaction dialog is an explicit per-chat state machine:
// idle -> awaiting amount -> awaiting description -> idle. Entries expire so
// an abandoned dialog cannot swallow an unrelated message days later.

type stage int

const (
	stageAmount stage = iota + 1
	stageDescription
)

type pendingEntry struct {
	tType     models.TransactionType
	amount    float64
	stage     stage
	updatedAt time.Time
}

type pendingStates struct {
	mu      sync.Mutex
	entries map[int64]*pendingEntry
	ttl     time.Duration
}

func newPendingStates(ttl time.Duration) *pendingStates {
	return &pendingStates{
		entries: make(map[int64]*pendingEntry),
		ttl:     ttl,
	}
}

// get returns the live entry for a chat, discarding it when expired.
func (p *pendingStates) get(chatID int64) *pendingEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[chatID]
	if !ok {
		return nil
	}
	if time.Since(e.updatedAt) > p.ttl {
		delete(p.entries, chatID)
		return nil
	}
	return e
}

func (p *pendingStates) set(chatID int64, e *pendingEntry) {
	e.updatedAt = time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[chatID] = e
}

func (p *pendingStates) clear(chatID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, chatID)
}
