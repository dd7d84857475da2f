package client

import (
	"sync"
	"time"

	"StreetEncounters/internal/protocol"
)

// Tracker caches the latest authoritative snapshot and ages its cooldowns
// locally, so the panel can repaint every second without another round
// trip. The cache is never persisted; reconnect always refetches.
type Tracker struct {
	now func() time.Time

	mu         sync.Mutex
	data       protocol.TrackerData
	receivedAt time.Time
	haveData   bool
}

// NewTracker builds an empty tracker cache.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now}
}

// Apply replaces the cache with a fresh authoritative snapshot.
func (t *Tracker) Apply(data protocol.TrackerData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = data
	t.receivedAt = t.now()
	t.haveData = true
}

// Empty reports whether no snapshot has arrived yet.
func (t *Tracker) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.haveData
}

// Snapshot returns a copy of the cache with cooldowns advanced by the time
// elapsed since the authority sent it. A cooldown that reaches zero renders
// as available; the authority still has the final say on accept.
func (t *Tracker) Snapshot() protocol.TrackerData {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := int(t.now().Sub(t.receivedAt).Seconds())
	out := protocol.TrackerData{
		Statuses:   make([]protocol.MissionStatus, len(t.data.Statuses)),
		Discovered: t.data.Discovered,
	}
	copy(out.Statuses, t.data.Statuses)
	for i := range out.Statuses {
		row := &out.Statuses[i]
		if row.Status != protocol.StatusCooldown {
			continue
		}
		row.CooldownRemaining -= elapsed
		if row.CooldownRemaining <= 0 {
			row.CooldownRemaining = 0
			row.Status = protocol.StatusAvailable
		}
	}
	return out
}
