package runtime

import (
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"StreetEncounters/internal/catalog"
	"StreetEncounters/internal/protocol"
)

type fakeWorld struct {
	mu         sync.Mutex
	nextHandle Handle
	objects    map[Handle]catalog.Vec3
	pickups    map[Handle]func()
	peds       map[Handle]bool
	blipCount  int
	pos        catalog.Vec3
	confirm    bool
	failModels map[string]bool
	prompts    []string
	notified   []string
	animating  bool
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		objects:    make(map[Handle]catalog.Vec3),
		pickups:    make(map[Handle]func()),
		peds:       make(map[Handle]bool),
		failModels: make(map[string]bool),
	}
}

func (w *fakeWorld) handle() Handle {
	w.nextHandle++
	return w.nextHandle
}

func (w *fakeWorld) LoadModel(model string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failModels[model] {
		return errModelLoad
	}
	return nil
}

func (w *fakeWorld) CreateObject(model string, pos catalog.Vec3) (Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := w.handle()
	w.objects[h] = pos
	return h, nil
}

func (w *fakeWorld) DeleteObject(h Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.objects, h)
	delete(w.pickups, h)
}

func (w *fakeWorld) AddPickup(h Handle, _ string, onSelect func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pickups[h] = onSelect
}

func (w *fakeWorld) CreatePed(model string, pos catalog.Vec3, _ float64) (Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := w.handle()
	w.peds[h] = false
	return h, nil
}

func (w *fakeWorld) ArmPed(Handle, string) {}

func (w *fakeWorld) PedDown(h Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	down, ok := w.peds[h]
	return !ok || down
}

func (w *fakeWorld) DeletePed(h Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.peds, h)
}

func (w *fakeWorld) PlayerPosition() catalog.Vec3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos
}

func (w *fakeWorld) GroundZ(pos catalog.Vec3) float64 { return pos.Z }

func (w *fakeWorld) CreateBlips(cfg BlipConfig) *Blips {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blipCount++
	return &Blips{Mission: w.handle()}
}

func (w *fakeWorld) RemoveBlips(*Blips) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blipCount--
}

func (w *fakeWorld) SetWaypoint(float64, float64) {}

func (w *fakeWorld) ShowPrompt(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prompts = append(w.prompts, text)
}

func (w *fakeWorld) HidePrompt() {}

func (w *fakeWorld) ConfirmPressed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.confirm
}

func (w *fakeWorld) PlayAnimation(*catalog.Animation) ([]Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.animating = true
	return []Handle{w.handle()}, nil
}

func (w *fakeWorld) StopAnimation([]Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.animating = false
}

func (w *fakeWorld) Notify(_, description, _ string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notified = append(w.notified, description)
}

func (w *fakeWorld) collectAll() {
	for {
		w.mu.Lock()
		var fn func()
		for h, f := range w.pickups {
			fn = f
			delete(w.pickups, h)
			break
		}
		w.mu.Unlock()
		if fn == nil {
			return
		}
		fn()
	}
}

func (w *fakeWorld) downAllPeds() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for h := range w.peds {
		w.peds[h] = true
	}
}

var errModelLoad = errModel("model load failed")

type errModel string

func (e errModel) Error() string { return string(e) }

type recorder struct {
	mu        sync.Mutex
	progress  []protocol.Progress
	completed []string
	cancelled []string
	reasons   []string
}

func (r *recorder) Progress(_ string, p protocol.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recorder) Complete(encounterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, encounterID)
}

func (r *recorder) Cancel(encounterID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, encounterID)
	r.reasons = append(r.reasons, reason)
}

func (r *recorder) waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		ok := cond()
		r.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func testOptions() Options {
	return Options{
		Tick: 10 * time.Millisecond,
		Rand: rand.New(rand.NewSource(42)),
	}
}

func cleanupDef(count int, props ...string) *catalog.Definition {
	if len(props) == 0 {
		props = []string{"binbag"}
	}
	return &catalog.Definition{
		ID: "cleanup_beach", Label: "Beach Cleanup", Archetype: catalog.ArchetypeCleanup,
		Cleanup: &catalog.CleanupParams{
			Area:   catalog.Vec3{X: 100, Y: 200, Z: 5},
			Radius: 40,
			Props:  props,
			Count:  count,
		},
	}
}

func TestCleanupCollectToCompletion(t *testing.T) {
	world := newFakeWorld()
	rep := &recorder{}
	c := NewCleanup(world, rep, testOptions())

	def := cleanupDef(4)
	if err := c.Start(def, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(world.objects) != 4 || len(world.pickups) != 4 {
		t.Fatalf("expected 4 spawned props, got %d objects %d pickups", len(world.objects), len(world.pickups))
	}
	if world.blipCount != 1 {
		t.Fatalf("expected mission blips, got %d", world.blipCount)
	}

	world.collectAll()

	if len(rep.completed) != 1 || rep.completed[0] != "cleanup_beach" {
		t.Fatalf("expected completion report, got %v", rep.completed)
	}
	if n := len(rep.progress); n != 4 {
		t.Fatalf("expected 4 progress reports, got %d", n)
	}
	last := rep.progress[len(rep.progress)-1]
	if last.Completed != 4 || last.Total != 4 {
		t.Fatalf("expected final progress 4/4, got %+v", last)
	}
	if len(world.objects) != 0 || world.blipCount != 0 {
		t.Fatalf("expected world torn down after completion")
	}
}

func TestCleanupSpawnsInsideRadius(t *testing.T) {
	world := newFakeWorld()
	c := NewCleanup(world, &recorder{}, testOptions())

	def := cleanupDef(20)
	if err := c.Start(def, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	p := def.Cleanup
	for _, pos := range world.objects {
		dx, dy := pos.X-p.Area.X, pos.Y-p.Area.Y
		if math.Sqrt(dx*dx+dy*dy) > p.Radius+1e-9 {
			t.Fatalf("prop spawned outside radius: %+v", pos)
		}
	}
	c.Stop()
}

func TestCleanupFixedPositions(t *testing.T) {
	world := newFakeWorld()
	c := NewCleanup(world, &recorder{}, testOptions())

	def := cleanupDef(3)
	def.Cleanup.SpawnMode = catalog.SpawnPositions
	def.Cleanup.Positions = []catalog.Vec3{{X: 1, Y: 1, Z: 1}, {X: 2, Y: 2, Z: 2}}
	if err := c.Start(def, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	found := 0
	for _, pos := range world.objects {
		if (pos.X == 1 && pos.Y == 1) || (pos.X == 2 && pos.Y == 2) {
			found++
		}
	}
	if found != 2 {
		t.Fatalf("expected both fixed positions used, found %d", found)
	}
	if len(world.objects) != 3 {
		t.Fatalf("expected remainder spawned randomly, got %d objects", len(world.objects))
	}
	c.Stop()
}

func TestCleanupPresetGroup(t *testing.T) {
	world := newFakeWorld()
	c := NewCleanup(world, &recorder{}, testOptions())

	def := cleanupDef(2)
	def.Cleanup.SpawnMode = catalog.SpawnPreset
	def.Cleanup.Presets = []catalog.PositionGroup{
		{Positions: []catalog.Vec3{{X: 10, Y: 10}, {X: 11, Y: 11}}},
	}
	if err := c.Start(def, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, pos := range world.objects {
		if pos.X != 10 && pos.X != 11 {
			t.Fatalf("expected preset positions, got %+v", pos)
		}
	}
	c.Stop()
}

func TestCleanupResumesFromProgress(t *testing.T) {
	world := newFakeWorld()
	rep := &recorder{}
	c := NewCleanup(world, rep, testOptions())

	def := cleanupDef(5)
	if err := c.Start(def, &protocol.Progress{Type: "cleanup", Completed: 2, Total: 5}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(world.objects) != 3 {
		t.Fatalf("expected only remaining 3 props spawned, got %d", len(world.objects))
	}

	world.collectAll()
	last := rep.progress[len(rep.progress)-1]
	if last.Completed != 5 || last.Total != 5 {
		t.Fatalf("expected resumed run to finish at 5/5, got %+v", last)
	}
}

func TestCleanupRestoredCompleteSpawnsNothing(t *testing.T) {
	world := newFakeWorld()
	rep := &recorder{}
	c := NewCleanup(world, rep, testOptions())

	def := cleanupDef(5)
	if err := c.Start(def, &protocol.Progress{Type: "cleanup", Completed: 5, Total: 5}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(world.objects) != 0 {
		t.Fatalf("expected nothing spawned, got %d", len(world.objects))
	}
	if len(rep.completed) != 1 {
		t.Fatalf("expected immediate completion report, got %v", rep.completed)
	}
}

func TestCleanupProgressClamped(t *testing.T) {
	world := newFakeWorld()
	c := NewCleanup(world, &recorder{}, testOptions())

	def := cleanupDef(5)
	if err := c.Start(def, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.SetProgress(&protocol.Progress{Type: "cleanup", Completed: 99})

	c.mu.Lock()
	collected, total := c.collected, c.total
	c.mu.Unlock()
	if collected != total {
		t.Fatalf("expected completed clamped to total, got %d/%d", collected, total)
	}
	c.Stop()
}

func TestCleanupFailedModelsAbort(t *testing.T) {
	world := newFakeWorld()
	world.failModels["binbag"] = true
	c := NewCleanup(world, &recorder{}, testOptions())

	if err := c.Start(cleanupDef(3), nil); err == nil {
		t.Fatalf("expected start failure when no props spawn")
	}
	if world.blipCount != 0 {
		t.Fatalf("expected blips removed after failed start")
	}
}

func TestCleanupStopIdempotent(t *testing.T) {
	world := newFakeWorld()
	c := NewCleanup(world, &recorder{}, testOptions())

	if err := c.Start(cleanupDef(3), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Stop()
	c.Stop()
	if len(world.objects) != 0 || world.blipCount != 0 {
		t.Fatalf("expected clean world after stop")
	}
}

func deliveryDef(timeSeconds int) *catalog.Definition {
	return &catalog.Definition{
		ID: "delivery_quickdrop", Label: "Express Delivery", Archetype: catalog.ArchetypeDelivery,
		Delivery: &catalog.DeliveryParams{
			Destination: catalog.Vec3{X: 50, Y: 60, Z: 10},
			TimeSeconds: timeSeconds,
			Item:        catalog.RewardItem{Name: "package", Count: 1},
			Animation:   &catalog.Animation{Dictionary: "anim@heists@box_carry@", Name: "idle"},
		},
	}
}

func TestDeliveryCompletesAtDestination(t *testing.T) {
	world := newFakeWorld()
	rep := &recorder{}
	d := NewDelivery(world, rep, testOptions())

	def := deliveryDef(300)
	if err := d.Start(def, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !world.animating {
		t.Fatalf("expected carry animation playing")
	}

	world.mu.Lock()
	world.pos = def.Delivery.Destination
	world.confirm = true
	world.mu.Unlock()

	rep.waitFor(t, func() bool { return len(rep.completed) == 1 })
	world.mu.Lock()
	animating := world.animating
	world.mu.Unlock()
	if animating {
		t.Fatalf("expected carry animation stopped on completion")
	}
	d.Stop()
}

func TestDeliveryTimesOut(t *testing.T) {
	world := newFakeWorld()
	rep := &recorder{}
	d := NewDelivery(world, rep, testOptions())

	if err := d.Start(deliveryDef(1), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	rep.waitFor(t, func() bool { return len(rep.cancelled) == 1 })
	if rep.reasons[0] != protocol.CancelReasonTimeout {
		t.Fatalf("expected timeout reason, got %q", rep.reasons[0])
	}
	if len(rep.completed) != 0 {
		t.Fatalf("expected no completion after timeout")
	}
	d.Stop()
}

func TestDeliveryResumeShortensCountdown(t *testing.T) {
	world := newFakeWorld()
	rep := &recorder{}
	d := NewDelivery(world, rep, testOptions())

	// 1h budget with 3599s already elapsed leaves about a second.
	if err := d.Start(deliveryDef(3600), &protocol.Progress{Type: "delivery", ElapsedSeconds: 3599}); err != nil {
		t.Fatalf("start: %v", err)
	}
	rep.waitFor(t, func() bool { return len(rep.cancelled) == 1 })
	d.Stop()
}

func TestDeliveryStopIdempotent(t *testing.T) {
	world := newFakeWorld()
	d := NewDelivery(world, &recorder{}, testOptions())

	if err := d.Start(deliveryDef(300), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	d.Stop()
	d.Stop()
	world.mu.Lock()
	defer world.mu.Unlock()
	if world.animating || world.blipCount != 0 {
		t.Fatalf("expected world clean after stop")
	}
}

func assassinationDef(models ...string) *catalog.Definition {
	targets := make([]catalog.Target, len(models))
	for i, m := range models {
		targets[i] = catalog.Target{Model: m, Spawn: catalog.Vec3{X: float64(i), Y: 0, Z: 0}, Weapon: "WEAPON_PISTOL"}
	}
	return &catalog.Definition{
		ID: "hit_park", Label: "Deal with the Threat", Archetype: catalog.ArchetypeAssassination,
		Assassination: &catalog.AssassinationParams{
			Area: catalog.Vec3{X: 0, Y: 0, Z: 0}, Radius: 60, Blip: true,
			Targets: targets,
		},
	}
}

func TestAssassinationCompletesWhenAllDown(t *testing.T) {
	world := newFakeWorld()
	rep := &recorder{}
	a := NewAssassination(world, rep, testOptions())

	if err := a.Start(assassinationDef("g1", "g2"), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(world.peds) != 2 {
		t.Fatalf("expected 2 targets spawned, got %d", len(world.peds))
	}

	// One down is not enough.
	world.mu.Lock()
	for h := range world.peds {
		world.peds[h] = true
		break
	}
	world.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	rep.mu.Lock()
	done := len(rep.completed)
	rep.mu.Unlock()
	if done != 0 {
		t.Fatalf("expected no completion with a target standing")
	}

	world.downAllPeds()
	rep.waitFor(t, func() bool { return len(rep.completed) == 1 })

	world.mu.Lock()
	defer world.mu.Unlock()
	if len(world.peds) != 2 {
		t.Fatalf("expected bodies left in world, got %d", len(world.peds))
	}
	if world.blipCount != 0 {
		t.Fatalf("expected blips removed on completion")
	}
}

func TestAssassinationSkipsBadModels(t *testing.T) {
	world := newFakeWorld()
	world.failModels["g_bad"] = true
	a := NewAssassination(world, &recorder{}, testOptions())

	if err := a.Start(assassinationDef("g_bad", "g_ok"), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(world.peds) != 1 {
		t.Fatalf("expected bad model skipped, got %d peds", len(world.peds))
	}
	a.Stop()

	world2 := newFakeWorld()
	world2.failModels["g_bad"] = true
	a2 := NewAssassination(world2, &recorder{}, testOptions())
	if err := a2.Start(assassinationDef("g_bad"), nil); err == nil {
		t.Fatalf("expected start failure when every target fails to spawn")
	}
}

func TestAssassinationStopRemovesTargets(t *testing.T) {
	world := newFakeWorld()
	a := NewAssassination(world, &recorder{}, testOptions())

	if err := a.Start(assassinationDef("g1", "g2"), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	a.Stop()
	a.Stop()
	world.mu.Lock()
	defer world.mu.Unlock()
	if len(world.peds) != 0 || world.blipCount != 0 {
		t.Fatalf("expected targets and blips removed on stop")
	}
}

func TestSetRoutesByArchetype(t *testing.T) {
	world := newFakeWorld()
	rep := &recorder{}
	s := NewSet(world, rep, testOptions())

	if err := s.Start(cleanupDef(2), nil); err != nil {
		t.Fatalf("start cleanup: %v", err)
	}
	if err := s.Start(deliveryDef(300), nil); err != nil {
		t.Fatalf("start delivery: %v", err)
	}

	// Stopping the delivery leaves the cleanup props in the world.
	s.StopArchetype(catalog.ArchetypeDelivery)
	world.mu.Lock()
	objects := len(world.objects)
	animating := world.animating
	world.mu.Unlock()
	if objects != 2 {
		t.Fatalf("expected cleanup props untouched, got %d", objects)
	}
	if animating {
		t.Fatalf("expected delivery animation stopped")
	}

	s.StopAll()
	world.mu.Lock()
	defer world.mu.Unlock()
	if len(world.objects) != 0 {
		t.Fatalf("expected all world state removed, got %d objects", len(world.objects))
	}
}
