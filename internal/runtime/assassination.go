package runtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/protocol"
)

// Assassination drives elimination missions: it spawns the configured
// hostiles and polls until every one of them is down. Completion leaves the
// bodies in the world; only the markers come off the map. Cancellation
// removes the actors entirely.
type Assassination struct {
	world World
	rep   Reporter
	tick  time.Duration
	log   zerolog.Logger

	mu      sync.Mutex
	def     *catalog.Definition
	peds    []Handle
	blips   *Blips
	loop    *loopHandle
	running bool
}

// NewAssassination builds an assassination runtime.
func NewAssassination(world World, rep Reporter, opts Options) *Assassination {
	opts = opts.withDefaults()
	return &Assassination{
		world: world,
		rep:   rep,
		tick:  opts.Tick,
		log:   opts.Log.With().Str("runtime", "assassination").Logger(),
	}
}

func (a *Assassination) Start(def *catalog.Definition, _ *protocol.Progress) error {
	p := def.Assassination
	if p == nil {
		return fmt.Errorf("encounter %q has no assassination parameters", def.ID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return fmt.Errorf("assassination runtime already running")
	}
	a.def = def

	for _, t := range p.Targets {
		if t.Model == "" {
			continue
		}
		if err := a.world.LoadModel(t.Model); err != nil {
			// One bad model should not sink the mission; the rest of the
			// targets still spawn and the objective shrinks to match.
			a.log.Warn().Err(err).Str("model", t.Model).Str("encounter", def.ID).Msg("target model skipped")
			continue
		}
		pos := t.Spawn
		pos.Z = a.world.GroundZ(pos) + 1
		h, err := a.world.CreatePed(t.Model, pos, t.Heading)
		if err != nil {
			a.log.Warn().Err(err).Str("model", t.Model).Str("encounter", def.ID).Msg("target spawn failed")
			continue
		}
		if t.Weapon != "" && t.Weapon != "unarmed" {
			a.world.ArmPed(h, t.Weapon)
		}
		a.peds = append(a.peds, h)
	}
	if len(a.peds) == 0 {
		return fmt.Errorf("encounter %q: no targets could be spawned", def.ID)
	}

	if p.Blip {
		a.blips = a.world.CreateBlips(BlipConfig{
			Location: p.Area,
			Label:    def.Label,
			Area:     &p.Area,
			Radius:   p.Radius,
		})
	}

	a.running = true
	a.loop = startLoop(a.tick, a.step)
	return nil
}

func (a *Assassination) step() bool {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return false
	}
	def := a.def
	peds := a.peds
	a.mu.Unlock()

	for _, h := range peds {
		if !a.world.PedDown(h) {
			return true
		}
	}

	a.mu.Lock()
	a.running = false
	// Bodies stay where they fell; only the markers clear.
	a.peds = nil
	if a.blips != nil {
		a.world.RemoveBlips(a.blips)
		a.blips = nil
	}
	a.mu.Unlock()

	if msg := completeMessage(def, "Targets eliminated. Report back."); msg != "" {
		a.world.Notify(def.Label, msg, "success")
	}
	a.rep.Complete(def.ID)
	return false
}

func (a *Assassination) Stop() {
	a.mu.Lock()
	loop := a.loop
	a.loop = nil
	a.mu.Unlock()
	if loop != nil {
		loop.Stop()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, h := range a.peds {
		a.world.DeletePed(h)
	}
	a.peds = nil
	if a.blips != nil {
		a.world.RemoveBlips(a.blips)
		a.blips = nil
	}
	a.running = false
}

// SetProgress is a no-op: kill state lives in the world, not in counters.
func (a *Assassination) SetProgress(*protocol.Progress) {}
