package main

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/protocol"
	"StreetEncounters/internal/runtime"
)

func intent(action string, payload any) protocol.PanelMessage {
	buf, _ := json.Marshal(payload)
	return protocol.PanelMessage{Action: action, Data: buf}
}

// simWorld is a scripted stand-in for the game world. It approximates an
// obedient player: pickups get collected after actDelay, the player walks
// to wherever a destination blip points, targets go down after actDelay
// per head. Every capability call is logged so a soak run reads as a
// transcript.
type simWorld struct {
	log      zerolog.Logger
	actDelay time.Duration

	mu      sync.Mutex
	nextID  runtime.Handle
	peds    map[runtime.Handle]time.Time
	pos     catalog.Vec3
	confirm bool
}

func newSimWorld(log zerolog.Logger, actDelay time.Duration) *simWorld {
	return &simWorld{
		log:      log.With().Str("component", "simworld").Logger(),
		actDelay: actDelay,
		peds:     make(map[runtime.Handle]time.Time),
	}
}

func (w *simWorld) handle() runtime.Handle {
	w.nextID++
	return w.nextID
}

func (w *simWorld) LoadModel(model string) error {
	w.log.Debug().Str("model", model).Msg("load model")
	return nil
}

func (w *simWorld) CreateObject(model string, pos catalog.Vec3) (runtime.Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := w.handle()
	w.log.Info().Int64("handle", int64(h)).Str("model", model).Msg("object spawned")
	return h, nil
}

func (w *simWorld) DeleteObject(h runtime.Handle) {
	w.log.Debug().Int64("handle", int64(h)).Msg("object removed")
}

func (w *simWorld) AddPickup(h runtime.Handle, label string, onSelect func()) {
	w.log.Info().Int64("handle", int64(h)).Str("label", label).Msg("pickup armed")
	time.AfterFunc(w.actDelay, onSelect)
}

func (w *simWorld) CreatePed(model string, pos catalog.Vec3, heading float64) (runtime.Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := w.handle()
	w.peds[h] = time.Now().Add(w.actDelay)
	w.log.Info().Int64("handle", int64(h)).Str("model", model).Msg("ped spawned")
	return h, nil
}

func (w *simWorld) ArmPed(h runtime.Handle, weapon string) {
	w.log.Debug().Int64("handle", int64(h)).Str("weapon", weapon).Msg("ped armed")
}

func (w *simWorld) PedDown(h runtime.Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	downAt, ok := w.peds[h]
	return !ok || time.Now().After(downAt)
}

func (w *simWorld) DeletePed(h runtime.Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.peds, h)
	w.log.Debug().Int64("handle", int64(h)).Msg("ped removed")
}

func (w *simWorld) PlayerPosition() catalog.Vec3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos
}

func (w *simWorld) GroundZ(pos catalog.Vec3) float64 { return pos.Z }

// CreateBlips teleports the simulated player toward the marker after one
// action delay; deliveries then see the destination in range.
func (w *simWorld) CreateBlips(cfg runtime.BlipConfig) *runtime.Blips {
	w.log.Info().Str("label", cfg.Label).Msg("blips created")
	target := cfg.Location
	time.AfterFunc(w.actDelay, func() {
		w.mu.Lock()
		w.pos = target
		w.confirm = true
		w.mu.Unlock()
	})
	w.mu.Lock()
	defer w.mu.Unlock()
	b := &runtime.Blips{Mission: w.handle()}
	if cfg.Area != nil {
		b.Area = w.handle()
		b.HasArea = true
	}
	return b
}

func (w *simWorld) RemoveBlips(b *runtime.Blips) {
	w.log.Debug().Msg("blips removed")
}

func (w *simWorld) SetWaypoint(x, y float64) {
	w.log.Info().Float64("x", x).Float64("y", y).Msg("waypoint set")
}

func (w *simWorld) ShowPrompt(text string) {
	w.log.Debug().Str("text", text).Msg("prompt")
}

func (w *simWorld) HidePrompt() {}

func (w *simWorld) ConfirmPressed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.confirm {
		w.confirm = false
		return true
	}
	return false
}

func (w *simWorld) PlayAnimation(anim *catalog.Animation) ([]runtime.Handle, error) {
	w.log.Debug().Str("dict", anim.Dictionary).Str("name", anim.Name).Msg("animation started")
	props := make([]runtime.Handle, 0, len(anim.Props))
	w.mu.Lock()
	for range anim.Props {
		props = append(props, w.handle())
	}
	w.mu.Unlock()
	return props, nil
}

func (w *simWorld) StopAnimation(props []runtime.Handle) {
	w.log.Debug().Int("props", len(props)).Msg("animation stopped")
}

func (w *simWorld) Notify(title, description, level string) {
	w.log.Info().Str("title", title).Str("level", level).Msg(description)
}
