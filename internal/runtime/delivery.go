package runtime

import (
	"fmt"
	"math"
	"sync"
	"time"

	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/protocol"
)

// deliveryNearDistance is how close to the destination the player must be
// before the confirm prompt arms.
const deliveryNearDistance = 5.0

// Delivery drives timed-delivery missions: a countdown, a destination
// marker, an optional carry animation, and a confirm prompt that completes
// the run when pressed in range. Running out of time cancels the mission
// with a timeout reason so the authority applies the same cooldown rules as
// a player-initiated cancel.
type Delivery struct {
	world World
	rep   Reporter
	now   func() time.Time
	tick  time.Duration

	mu        sync.Mutex
	def       *catalog.Definition
	startedAt time.Time
	blips     *Blips
	props     []Handle
	loop      *loopHandle
	running   bool
}

// NewDelivery builds a delivery runtime.
func NewDelivery(world World, rep Reporter, opts Options) *Delivery {
	opts = opts.withDefaults()
	return &Delivery{
		world: world,
		rep:   rep,
		now:   opts.Now,
		tick:  opts.Tick,
	}
}

func (d *Delivery) Start(def *catalog.Definition, progress *protocol.Progress) error {
	p := def.Delivery
	if p == nil {
		return fmt.Errorf("encounter %q has no delivery parameters", def.ID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("delivery runtime already running")
	}

	d.def = def
	d.startedAt = d.now()
	if progress != nil && progress.ElapsedSeconds > 0 {
		// Resume mid-countdown: pretend the run started ElapsedSeconds ago.
		d.startedAt = d.startedAt.Add(-time.Duration(progress.ElapsedSeconds) * time.Second)
	}

	cfg := BlipConfig{Location: p.Destination, Label: def.Label}
	if p.Area != nil {
		cfg.Area = p.Area
		cfg.Radius = p.Radius
	}
	d.blips = d.world.CreateBlips(cfg)

	if p.Animation != nil {
		props, err := d.world.PlayAnimation(p.Animation)
		if err == nil {
			d.props = props
		}
	}

	d.running = true
	d.loop = startLoop(d.tick, d.step)
	return nil
}

// step runs once per tick; returning false ends the loop.
func (d *Delivery) step() bool {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return false
	}
	def := d.def
	p := def.Delivery
	elapsed := d.now().Sub(d.startedAt)
	remaining := time.Duration(p.TimeSeconds)*time.Second - elapsed
	d.mu.Unlock()

	if remaining <= 0 {
		d.finish()
		d.world.Notify(def.Label, "You ran out of time.", "error")
		d.rep.Cancel(def.ID, protocol.CancelReasonTimeout)
		return false
	}

	pos := d.world.PlayerPosition()
	near := distance2D(pos, p.Destination) <= deliveryNearDistance
	if near {
		d.world.ShowPrompt(fmt.Sprintf("Deliver (%s left)", formatCountdown(remaining)))
		if d.world.ConfirmPressed() {
			d.finish()
			if msg := completeMessage(def, "Delivered. Head back for your reward."); msg != "" {
				d.world.Notify(def.Label, msg, "success")
			}
			d.rep.Complete(def.ID)
			return false
		}
	} else {
		d.world.ShowPrompt(fmt.Sprintf("Time left: %s", formatCountdown(remaining)))
	}
	return true
}

func completeMessage(def *catalog.Definition, fallback string) string {
	if def.Messages != nil && def.Messages.Complete != "" {
		return def.Messages.Complete
	}
	return fallback
}

func distance2D(a, b catalog.Vec3) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// finish tears down world state without stopping the loop goroutine; the
// caller's step returns false right after.
func (d *Delivery) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teardownLocked()
}

func (d *Delivery) Stop() {
	d.mu.Lock()
	loop := d.loop
	d.loop = nil
	d.mu.Unlock()
	if loop != nil {
		loop.Stop()
	}

	d.mu.Lock()
	d.teardownLocked()
	d.mu.Unlock()
}

func (d *Delivery) teardownLocked() {
	if !d.running {
		return
	}
	d.running = false
	d.world.HidePrompt()
	if d.blips != nil {
		d.world.RemoveBlips(d.blips)
		d.blips = nil
	}
	if len(d.props) > 0 {
		d.world.StopAnimation(d.props)
		d.props = nil
	}
}

// SetProgress rebases the countdown on authoritative elapsed time.
func (d *Delivery) SetProgress(p *protocol.Progress) {
	if p == nil || p.ElapsedSeconds <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.startedAt = d.now().Add(-time.Duration(p.ElapsedSeconds) * time.Second)
}
