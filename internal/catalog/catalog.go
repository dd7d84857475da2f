package catalog

import (
	"fmt"
)

// Catalog is the immutable table of encounter definitions, keyed by id.
// Iteration order matches the order definitions were declared in, so tracker
// snapshots stay stable across requests.
type Catalog struct {
	defs []Definition
	byID map[string]*Definition
}

// New builds a catalog and validates every definition.
func New(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs: make([]Definition, len(defs)),
		byID: make(map[string]*Definition, len(defs)),
	}
	copy(c.defs, defs)
	for i := range c.defs {
		def := &c.defs[i]
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, fmt.Errorf("duplicate encounter id: %s", def.ID)
		}
		c.byID[def.ID] = def
	}
	return c, nil
}

// Get retrieves a definition by id.
func (c *Catalog) Get(id string) (*Definition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// All returns the definitions in declaration order.
func (c *Catalog) All() []Definition {
	return c.defs
}

// Len reports the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Validate checks a definition for internal consistency: exactly one
// archetype parameter bundle, and it must match the declared archetype tag.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("encounter missing id")
	}
	if d.Label == "" {
		return fmt.Errorf("encounter %s missing label", d.ID)
	}
	if d.NPC.ID == "" {
		return fmt.Errorf("encounter %s missing npc binding", d.ID)
	}
	if d.CooldownSeconds < 0 {
		return fmt.Errorf("encounter %s has negative cooldown", d.ID)
	}
	switch d.Archetype {
	case ArchetypeCleanup:
		if d.Cleanup == nil {
			return fmt.Errorf("encounter %s: cleanup params required", d.ID)
		}
		if d.Cleanup.Count <= 0 {
			return fmt.Errorf("encounter %s: cleanup count must be positive", d.ID)
		}
		if len(d.Cleanup.Props) == 0 {
			return fmt.Errorf("encounter %s: cleanup needs at least one prop model", d.ID)
		}
		switch d.Cleanup.SpawnMode {
		case "", SpawnRandom, SpawnPositions, SpawnPreset:
		default:
			return fmt.Errorf("encounter %s: unknown spawn mode %q", d.ID, d.Cleanup.SpawnMode)
		}
	case ArchetypeDelivery:
		if d.Delivery == nil {
			return fmt.Errorf("encounter %s: delivery params required", d.ID)
		}
		if d.Delivery.TimeSeconds <= 0 {
			return fmt.Errorf("encounter %s: delivery time must be positive", d.ID)
		}
		if d.Delivery.Item.Name == "" {
			return fmt.Errorf("encounter %s: delivery needs a carry item", d.ID)
		}
	case ArchetypeAssassination:
		if d.Assassination == nil {
			return fmt.Errorf("encounter %s: assassination params required", d.ID)
		}
		if len(d.Assassination.Targets) == 0 {
			return fmt.Errorf("encounter %s: assassination needs targets", d.ID)
		}
	default:
		return fmt.Errorf("encounter %s: unknown archetype %q", d.ID, d.Archetype)
	}
	return nil
}

// SpawnModeOrDefault resolves the effective cleanup spawn mode, falling back
// the same way older configs without an explicit mode were interpreted.
func (p *CleanupParams) SpawnModeOrDefault() SpawnMode {
	if p.SpawnMode != "" {
		return p.SpawnMode
	}
	if len(p.Positions) > 0 {
		return SpawnPositions
	}
	if len(p.Presets) > 0 {
		return SpawnPreset
	}
	return SpawnRandom
}
