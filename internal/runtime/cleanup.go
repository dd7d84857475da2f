package runtime

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/protocol"
)

// Cleanup drives area-cleanup missions: it scatters props, wires a pickup
// prompt onto each, and reports a monotonically growing collected count.
// Completion is event-driven; there is no tick loop.
type Cleanup struct {
	world World
	rep   Reporter
	rand  *rand.Rand

	mu        sync.Mutex
	def       *catalog.Definition
	spawned   map[Handle]bool
	total     int
	collected int
	blips     *Blips
	running   bool
}

// NewCleanup builds a cleanup runtime.
func NewCleanup(world World, rep Reporter, opts Options) *Cleanup {
	opts = opts.withDefaults()
	return &Cleanup{
		world:   world,
		rep:     rep,
		rand:    opts.Rand,
		spawned: make(map[Handle]bool),
	}
}

func (c *Cleanup) Start(def *catalog.Definition, progress *protocol.Progress) error {
	p := def.Cleanup
	if p == nil {
		return fmt.Errorf("encounter %q has no cleanup parameters", def.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("cleanup runtime already running")
	}

	c.def = def
	c.total = p.Count
	c.collected = 0
	if progress != nil {
		c.applyProgressLocked(progress)
	}
	if c.collected >= c.total {
		// Everything was already collected before the restart; finish
		// without spawning.
		c.rep.Complete(def.ID)
		return nil
	}

	c.blips = c.world.CreateBlips(BlipConfig{
		Location: p.Area,
		Label:    def.Label,
		Area:     &p.Area,
		Radius:   p.Radius,
	})

	points := c.spawnPoints(p, c.total-c.collected)
	label := p.ItemLabel
	if label == "" {
		label = "Pick up"
	}
	for _, pos := range points {
		model := p.Props[c.rand.Intn(len(p.Props))]
		if err := c.world.LoadModel(model); err != nil {
			// Skip unloadable props; the mission stays winnable because the
			// remaining count tracks spawned objects, not the config count.
			continue
		}
		pos.Z = c.world.GroundZ(pos)
		h, err := c.world.CreateObject(model, pos)
		if err != nil {
			continue
		}
		c.spawned[h] = true
		handle := h
		c.world.AddPickup(handle, label, func() { c.collect(handle) })
	}
	if len(c.spawned) == 0 {
		c.teardownLocked()
		return fmt.Errorf("encounter %q: no cleanup props could be spawned", def.ID)
	}
	// The live objective counts what actually spawned plus anything already
	// collected in an earlier session.
	c.total = c.collected + len(c.spawned)
	c.running = true
	return nil
}

// spawnPoints resolves placement for n props according to the spawn mode.
// Fixed position lists shorter than n fall back to random placement for the
// remainder.
func (c *Cleanup) spawnPoints(p *catalog.CleanupParams, n int) []catalog.Vec3 {
	var fixed []catalog.Vec3
	switch p.SpawnModeOrDefault() {
	case catalog.SpawnPositions:
		fixed = p.Positions
	case catalog.SpawnPreset:
		if len(p.Presets) > 0 {
			fixed = p.Presets[c.rand.Intn(len(p.Presets))].Positions
		}
	}

	points := make([]catalog.Vec3, 0, n)
	for i := 0; i < n; i++ {
		if i < len(fixed) {
			points = append(points, fixed[i])
			continue
		}
		points = append(points, randomInDisk(c.rand, p.Area, p.Radius))
	}
	return points
}

// randomInDisk samples uniformly inside the circle, not on a ring: taking
// sqrt of the radial uniform compensates for area growing with r².
func randomInDisk(rng *rand.Rand, center catalog.Vec3, radius float64) catalog.Vec3 {
	angle := rng.Float64() * 2 * math.Pi
	r := radius * math.Sqrt(rng.Float64())
	return catalog.Vec3{
		X: center.X + r*math.Cos(angle),
		Y: center.Y + r*math.Sin(angle),
		Z: center.Z,
	}
}

func (c *Cleanup) collect(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || !c.spawned[h] {
		return
	}
	delete(c.spawned, h)
	c.world.DeleteObject(h)
	c.collected++

	def := c.def
	c.rep.Progress(def.ID, protocol.Progress{
		Type:      string(catalog.ArchetypeCleanup),
		Completed: c.collected,
		Total:     c.total,
	})
	if msg := pickupMessage(def); msg != "" {
		c.world.Notify(def.Label, msg, "success")
	}

	if len(c.spawned) == 0 {
		c.teardownLocked()
		c.rep.Complete(def.ID)
	}
}

func pickupMessage(def *catalog.Definition) string {
	if def.Messages != nil && def.Messages.Pickup != "" {
		return def.Messages.Pickup
	}
	return "Picked up. Keep going."
}

func (c *Cleanup) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

func (c *Cleanup) teardownLocked() {
	for h := range c.spawned {
		c.world.DeleteObject(h)
		delete(c.spawned, h)
	}
	if c.blips != nil {
		c.world.RemoveBlips(c.blips)
		c.blips = nil
	}
	c.running = false
}

// SetProgress applies authoritative progress to a running mission. The
// collected count is clamped into [current, total]; it never goes backward
// and never exceeds what can still be picked up.
func (c *Cleanup) SetProgress(p *protocol.Progress) {
	if p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyProgressLocked(p)
}

func (c *Cleanup) applyProgressLocked(p *protocol.Progress) {
	if p.Total > 0 {
		c.total = p.Total
	}
	if p.Completed > c.collected {
		c.collected = p.Completed
	}
	if c.collected > c.total {
		c.collected = c.total
	}
}
