package catalog

// Archetype is the behavioral category of an encounter, determining which
// client runtime drives it.
type Archetype string

const (
	ArchetypeCleanup       Archetype = "cleanup"
	ArchetypeDelivery      Archetype = "delivery"
	ArchetypeAssassination Archetype = "assassination"
)

// Vec3 is a world position.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vec4 adds a heading component to a position.
type Vec4 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w,omitempty" yaml:"w,omitempty"`
}

// RewardItem is a single inventory grant.
type RewardItem struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Reward describes what a player receives when claiming a finished encounter.
type Reward struct {
	Cash  int          `json:"cash,omitempty" yaml:"cash,omitempty"`
	Items []RewardItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// SpawnMode selects how cleanup props are placed.
type SpawnMode string

const (
	SpawnRandom    SpawnMode = "random"
	SpawnPositions SpawnMode = "positions"
	SpawnPreset    SpawnMode = "preset"
)

// PositionGroup is one preset cluster of spawn points.
type PositionGroup struct {
	Positions []Vec3 `json:"positions" yaml:"positions"`
}

// CleanupParams configures an area-cleanup encounter.
type CleanupParams struct {
	Area      Vec3            `json:"area" yaml:"area"`
	Radius    float64         `json:"radius" yaml:"radius"`
	Props     []string        `json:"props" yaml:"props"`
	Count     int             `json:"count" yaml:"count"`
	SpawnMode SpawnMode       `json:"spawnMode,omitempty" yaml:"spawnMode,omitempty"`
	ItemLabel string          `json:"itemLabel,omitempty" yaml:"itemLabel,omitempty"`
	Positions []Vec3          `json:"positions,omitempty" yaml:"positions,omitempty"`
	Presets   []PositionGroup `json:"presets,omitempty" yaml:"presets,omitempty"`
}

// AnimationProp attaches a prop model to a ped bone while an animation plays.
type AnimationProp struct {
	Bone     int    `json:"bone" yaml:"bone"`
	Name     string `json:"name" yaml:"name"`
	Offset   Vec3   `json:"offset" yaml:"offset"`
	Rotation Vec3   `json:"rotation" yaml:"rotation"`
}

// Animation configures the optional carry animation for deliveries.
type Animation struct {
	Dictionary string          `json:"dictionary" yaml:"dictionary"`
	Name       string          `json:"name" yaml:"name"`
	Loop       bool            `json:"loop,omitempty" yaml:"loop,omitempty"`
	Move       bool            `json:"move,omitempty" yaml:"move,omitempty"`
	Props      []AnimationProp `json:"props,omitempty" yaml:"props,omitempty"`
}

// DeliveryParams configures a timed-delivery encounter.
type DeliveryParams struct {
	Destination Vec3       `json:"destination" yaml:"destination"`
	TimeSeconds int        `json:"timeSeconds" yaml:"timeSeconds"`
	Item        RewardItem `json:"item" yaml:"item"`
	Area        *Vec3      `json:"area,omitempty" yaml:"area,omitempty"`
	Radius      float64    `json:"radius,omitempty" yaml:"radius,omitempty"`
	Animation   *Animation `json:"animation,omitempty" yaml:"animation,omitempty"`
}

// Target is one hostile actor in an assassination encounter.
type Target struct {
	Model   string  `json:"model" yaml:"model"`
	Spawn   Vec3    `json:"spawn" yaml:"spawn"`
	Weapon  string  `json:"weapon,omitempty" yaml:"weapon,omitempty"`
	Heading float64 `json:"heading,omitempty" yaml:"heading,omitempty"`
}

// AssassinationParams configures an elimination encounter. Area and Radius
// bound a visual marker only; targets are never teleported or despawned for
// leaving it.
type AssassinationParams struct {
	Area    Vec3     `json:"area" yaml:"area"`
	Radius  float64  `json:"radius" yaml:"radius"`
	Targets []Target `json:"targets" yaml:"targets"`
	Blip    bool     `json:"blip,omitempty" yaml:"blip,omitempty"`
}

// BlipStyle customizes the map marker for an NPC.
type BlipStyle struct {
	Sprite int     `json:"sprite,omitempty" yaml:"sprite,omitempty"`
	Color  int     `json:"color,omitempty" yaml:"color,omitempty"`
	Scale  float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// TargetStyle customizes the interaction prompt on an NPC.
type TargetStyle struct {
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// NPC binds an encounter to its giver in the world.
type NPC struct {
	ID          string       `json:"id" yaml:"id"`
	Model       string       `json:"model" yaml:"model"`
	Coords      Vec4         `json:"coords" yaml:"coords"`
	Scenario    string       `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	Blip        *BlipStyle   `json:"blip,omitempty" yaml:"blip,omitempty"`
	Target      *TargetStyle `json:"target,omitempty" yaml:"target,omitempty"`
	Speech      string       `json:"speech,omitempty" yaml:"speech,omitempty"`
	SpeechClaim string       `json:"speechClaim,omitempty" yaml:"speechClaim,omitempty"`
	SpeechBye   string       `json:"speechBye,omitempty" yaml:"speechBye,omitempty"`
}

// Messages override the default per-encounter UI strings.
type Messages struct {
	Pickup   string `json:"pickup,omitempty" yaml:"pickup,omitempty"`
	Complete string `json:"complete,omitempty" yaml:"complete,omitempty"`
}

// Definition is one configured encounter. Definitions are immutable after
// load; the catalog is only replaced by a full process restart.
type Definition struct {
	ID                  string    `json:"id" yaml:"id"`
	Label               string    `json:"label" yaml:"label"`
	Description         string    `json:"description,omitempty" yaml:"description,omitempty"`
	Archetype           Archetype `json:"type" yaml:"type"`
	CooldownSeconds     int       `json:"cooldownSeconds,omitempty" yaml:"cooldownSeconds,omitempty"`
	CancelIncurCooldown bool      `json:"cancelIncurCooldown,omitempty" yaml:"cancelIncurCooldown,omitempty"`
	NPC                 NPC       `json:"npc" yaml:"npc"`
	Reward              Reward    `json:"reward" yaml:"reward"`
	Messages            *Messages `json:"messages,omitempty" yaml:"messages,omitempty"`

	Cleanup       *CleanupParams       `json:"cleanup,omitempty" yaml:"cleanup,omitempty"`
	Delivery      *DeliveryParams      `json:"delivery,omitempty" yaml:"delivery,omitempty"`
	Assassination *AssassinationParams `json:"assassination,omitempty" yaml:"assassination,omitempty"`
}
