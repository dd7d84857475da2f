package runtime

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/protocol"
)

// Reporter carries runtime outcomes back to the authority connection.
type Reporter interface {
	Progress(encounterID string, p protocol.Progress)
	Complete(encounterID string)
	Cancel(encounterID, reason string)
}

// Runtime is one archetype's in-world driver. Start spawns world state for
// a mission, optionally resuming from restored progress. Stop tears the
// world state down and is safe to call more than once, including after a
// partially failed Start. SetProgress applies authoritative progress to a
// running mission.
type Runtime interface {
	Start(def *catalog.Definition, progress *protocol.Progress) error
	Stop()
	SetProgress(p *protocol.Progress)
}

// Options tune runtime behavior; zero values take defaults.
type Options struct {
	Tick time.Duration
	Now  func() time.Time
	Rand *rand.Rand
	Log  zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Tick <= 0 {
		o.Tick = 500 * time.Millisecond
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Set owns at most one running runtime per archetype and routes lifecycle
// calls to the right one. Missions of different archetypes run
// concurrently; starting a second mission of the same archetype replaces
// the first.
type Set struct {
	world World
	rep   Reporter
	opts  Options

	mu     sync.Mutex
	active map[catalog.Archetype]Runtime
}

// NewSet builds a runtime set over a world capability surface.
func NewSet(world World, rep Reporter, opts Options) *Set {
	return &Set{
		world:  world,
		rep:    rep,
		opts:   opts.withDefaults(),
		active: make(map[catalog.Archetype]Runtime),
	}
}

func (s *Set) build(t catalog.Archetype) (Runtime, error) {
	switch t {
	case catalog.ArchetypeCleanup:
		return NewCleanup(s.world, s.rep, s.opts), nil
	case catalog.ArchetypeDelivery:
		return NewDelivery(s.world, s.rep, s.opts), nil
	case catalog.ArchetypeAssassination:
		return NewAssassination(s.world, s.rep, s.opts), nil
	default:
		return nil, fmt.Errorf("no runtime for archetype %q", t)
	}
}

// Start spins up the runtime for a mission, stopping any prior mission of
// the same archetype first.
func (s *Set) Start(def *catalog.Definition, progress *protocol.Progress) error {
	r, err := s.build(def.Archetype)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.active[def.Archetype]
	s.active[def.Archetype] = r
	s.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	if err := r.Start(def, progress); err != nil {
		r.Stop()
		s.mu.Lock()
		if s.active[def.Archetype] == r {
			delete(s.active, def.Archetype)
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// StopArchetype stops the running mission of one archetype, if any.
func (s *Set) StopArchetype(t catalog.Archetype) {
	s.mu.Lock()
	r := s.active[t]
	delete(s.active, t)
	s.mu.Unlock()
	if r != nil {
		r.Stop()
	}
}

// StopAll stops every running mission.
func (s *Set) StopAll() {
	s.mu.Lock()
	running := make([]Runtime, 0, len(s.active))
	for _, r := range s.active {
		running = append(running, r)
	}
	s.active = make(map[catalog.Archetype]Runtime)
	s.mu.Unlock()
	for _, r := range running {
		r.Stop()
	}
}

// SetProgress forwards authoritative progress to the running runtime of the
// given archetype.
func (s *Set) SetProgress(t catalog.Archetype, p *protocol.Progress) {
	s.mu.Lock()
	r := s.active[t]
	s.mu.Unlock()
	if r != nil {
		r.SetProgress(p)
	}
}

// loopHandle runs fn every tick until it returns false or Stop is called.
type loopHandle struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func startLoop(tick time.Duration, fn func() bool) *loopHandle {
	h := &loopHandle{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(h.done)
		t := time.NewTicker(tick)
		defer t.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-t.C:
				if !fn() {
					return
				}
			}
		}
	}()
	return h
}

// Stop halts the loop and waits for the current tick to finish. Safe to
// call repeatedly.
func (h *loopHandle) Stop() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
