package catalog

import (
	"fmt"
	"hash/fnv"
)

// CooldownVersion derives a version tag from the cooldown-relevant parts of a
// definition. Persisted cooldown records embed this tag in their key, so a
// config change produces a fresh key and stale records are never consulted
// again.
func CooldownVersion(d *Definition) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d|%t", d.CooldownSeconds, d.CancelIncurCooldown)
	return h.Sum32()
}
