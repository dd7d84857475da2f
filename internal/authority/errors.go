package authority

import "errors"

// Operation rejections. None of these ever reach a player as a connection
// failure; they map to push messages or silent no-ops.
var (
	// ErrAlreadyActive rejects an accept while an instance of the same
	// encounter exists, whatever its status.
	ErrAlreadyActive = errors.New("encounter already active")
	// ErrOnCooldown rejects an accept while a live cooldown record exists.
	ErrOnCooldown = errors.New("encounter on cooldown")
	// ErrNotFound marks an operation referencing an unknown encounter or one
	// with no active mission; treated as a stale or duplicate message.
	ErrNotFound = errors.New("no matching encounter")
	// ErrUnauthorized marks a claim with the wrong NPC or wrong status.
	ErrUnauthorized = errors.New("claim not satisfiable")
)
