// Package runtime drives the in-world behavior of each encounter archetype
// on the client: spawning, progress tracking and completion detection. All
// world effects go through the World capability surface; the actual
// rendering and entity primitives live outside this module.
package runtime

import "StreetEncounters/internal/catalog"

// Handle identifies a world entity created through the capability surface.
type Handle int64

// BlipConfig describes the map markers for one mission.
type BlipConfig struct {
	Location catalog.Vec3
	Label    string
	Area     *catalog.Vec3
	Radius   float64
}

// Blips tracks created markers so they can be removed on stop.
type Blips struct {
	Mission Handle
	Area    Handle
	HasArea bool
}

// World is the capability surface the runtimes consume. Implementations
// wrap the platform's entity, blip and interaction primitives; tests use
// fakes.
type World interface {
	// LoadModel blocks until the named model is streamable, or fails.
	LoadModel(model string) error

	CreateObject(model string, pos catalog.Vec3) (Handle, error)
	DeleteObject(h Handle)
	// AddPickup registers an interaction prompt on an object; onSelect runs
	// when the player picks it up.
	AddPickup(h Handle, label string, onSelect func())

	CreatePed(model string, pos catalog.Vec3, heading float64) (Handle, error)
	ArmPed(h Handle, weapon string)
	// PedDown reports whether a ped is dead, fatally injured, or gone.
	PedDown(h Handle) bool
	DeletePed(h Handle)

	PlayerPosition() catalog.Vec3
	GroundZ(pos catalog.Vec3) float64

	CreateBlips(cfg BlipConfig) *Blips
	RemoveBlips(b *Blips)
	SetWaypoint(x, y float64)

	ShowPrompt(text string)
	HidePrompt()
	// ConfirmPressed reports whether the confirm control was released since
	// the last tick.
	ConfirmPressed() bool

	// PlayAnimation starts a carry animation and returns handles for any
	// attached props.
	PlayAnimation(anim *catalog.Animation) ([]Handle, error)
	StopAnimation(props []Handle)

	Notify(title, description, level string)
}
