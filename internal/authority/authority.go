// Package authority implements the server-side mission lifecycle engine: the
// single source of truth for which state every player's encounters are in.
// All mutations go through here; clients only ever report intent and observe
// pushed state.
package authority

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/store"
)

// Status of an active mission. A mission that has been claimed or cancelled
// has no status; it simply no longer exists.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusComplete   Status = "complete"
)

// ActiveMission is the per-(player, encounter) session record.
type ActiveMission struct {
	EncounterID string         `json:"encounterId"`
	NpcID       string         `json:"npcId"`
	Status      Status         `json:"status"`
	Progress    *progressState `json:"progress,omitempty"`
}

// Emitter pushes lifecycle and tracker messages to a player's client.
// Delivery is fire-and-forget; clients recover lost pushes via snapshot and
// restore requests.
type Emitter interface {
	Push(identity, msgType string, payload any)
}

// Rewarder is the boundary to the external economy system.
type Rewarder interface {
	GrantReward(identity string, reward catalog.Reward)
	GrantItem(identity string, item catalog.RewardItem)
	RevokeItem(identity string, item catalog.RewardItem)
}

// Authority owns every player's session state. Operations on the same player
// are serialized; operations on different players run in parallel.
type Authority struct {
	cat     *catalog.Catalog
	kv      store.KV
	rewards Rewarder
	emit    Emitter
	now     func() time.Time
	log     zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// Option customizes a new Authority.
type Option func(*Authority)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) { a.now = now }
}

// New builds an Authority over the given catalog, store and collaborators.
func New(cat *catalog.Catalog, kv store.KV, rewards Rewarder, emit Emitter, log zerolog.Logger, opts ...Option) *Authority {
	a := &Authority{
		cat:      cat,
		kv:       kv,
		rewards:  rewards,
		emit:     emit,
		now:      time.Now,
		log:      log.With().Str("component", "authority").Logger(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// session is one player's in-memory mission cache. Its mutex gives each
// player run-to-completion operation semantics without a global lock.
type session struct {
	mu               sync.Mutex
	actives          map[string]*ActiveMission
	hydrated         map[string]bool
	discovered       []string
	discoveredLoaded bool
}

func (a *Authority) session(identity string) *session {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[identity]
	if !ok {
		s = &session{
			actives:  make(map[string]*ActiveMission),
			hydrated: make(map[string]bool),
		}
		a.sessions[identity] = s
	}
	return s
}

// progressState is the stored shape of archetype progress. Counting fields
// are monotonic: merges never decrease them.
type progressState struct {
	Type           string `json:"type"`
	Completed      int    `json:"completed,omitempty"`
	Total          int    `json:"total,omitempty"`
	ElapsedSeconds int    `json:"elapsedSeconds,omitempty"`
}
